package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iliyamo/linkboard/internal/auth"
	"github.com/iliyamo/linkboard/internal/config" // Internal config loader
	"github.com/iliyamo/linkboard/internal/database"
	"github.com/iliyamo/linkboard/internal/handler"
	"github.com/iliyamo/linkboard/internal/logger"
	"github.com/iliyamo/linkboard/internal/metrics"
	"github.com/iliyamo/linkboard/internal/middleware"
	"github.com/iliyamo/linkboard/internal/pubsub"
	"github.com/iliyamo/linkboard/internal/queue"
	"github.com/iliyamo/linkboard/internal/repository"
	"github.com/iliyamo/linkboard/internal/router" // Internal router setup
	"github.com/iliyamo/linkboard/internal/service"
	"github.com/iliyamo/linkboard/internal/subscription"
	"github.com/iliyamo/linkboard/internal/utils"
)

func main() {
	cfg := config.Load() // Load environment config
	log := logger.SetupDefault(os.Stdout, logger.ParseLevel(cfg.LogLevel))
	if err := run(cfg, log); err != nil {
		log.Error("server stopped", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	dsn := database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	db, err := database.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.RunMigrations(database.MigrateURL(dsn)); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	// Redis is optional: without it the feed is uncached and nothing is rate limited.
	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		log.Warn("redis unavailable; running without cache and rate limiting", slog.Any("err", err))
	}
	if rdb != nil {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	col := metrics.NewCollector(reg)
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		metricsHandler = metrics.Handler(reg)
	}

	bus := pubsub.NewBus(cfg.EventBuffer, col)

	customers := repository.NewCustomerRepo(db)
	links := repository.NewLinkRepo(db)
	votes := repository.NewVoteRepo(db)
	tokens := utils.NewTokenService(cfg.JWTSecret)

	accounts := service.NewAccountService(customers, utils.NewPasswordHasher(cfg.BcryptCost), tokens, log)
	posting := service.NewPostingService(links, bus, col, log)
	voting := service.NewVotingService(links, votes, bus, col, log)

	e := router.New(router.Deps{
		Log:           log,
		Gate:          auth.NewGate(tokens, customers),
		DB:            db,
		Metrics:       metricsHandler,
		Auth:          handler.NewAuthHandler(accounts),
		Links:         handler.NewLinkHandler(posting, voting),
		Subscriptions: handler.NewSubscriptionHandler(subscription.NewDeliverer(bus, cfg.SSEHeartbeat, log), log),
		RateLimit:     middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		FeedCache:     middleware.NewRedisCache(cacheCfg, rdb),
	})

	// Background bus subscribers stop with bgCtx.
	bgCtx, stopBackground := context.WithCancel(context.Background())
	var bg sync.WaitGroup
	defer bg.Wait()
	defer stopBackground()

	if rdb != nil && cacheCfg.Enabled {
		bg.Add(1)
		go func() {
			defer bg.Done()
			middleware.RunCacheInvalidator(bgCtx, bus, rdb, cacheCfg.Prefix, log)
		}()
	}
	if cfg.RelayEnabled {
		bg.Add(2)
		go func() {
			defer bg.Done()
			pub := queue.NewPublisher(cfg.AMQPURL, queue.EventsQueue)
			defer pub.Close()
			queue.NewRelay(bus, pub, log).Run(bgCtx)
		}()
		go func() {
			defer bg.Done()
			queue.NewConsumer(cfg.AMQPURL, "", log).Run(bgCtx)
		}()
	}

	// No write timeout: subscription streams stay open indefinitely.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", srv.Addr), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		bus.Close()
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	// Closing the bus first ends every open subscription stream, so
	// Shutdown is not left waiting on them.
	bus.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
