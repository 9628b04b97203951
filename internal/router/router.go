package router // package router defines how HTTP routes are registered for the API

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/linkboard/internal/handler"
	"github.com/iliyamo/linkboard/internal/middleware"
)

// Deps carries everything the routes need.  RateLimit and FeedCache may
// be nil, in which case those routes run without them.
type Deps struct {
	Log           *slog.Logger
	Gate          middleware.IdentityResolver
	DB            handler.Pinger
	Metrics       http.Handler
	Auth          *handler.AuthHandler
	Links         *handler.LinkHandler
	Subscriptions *handler.SubscriptionHandler
	RateLimit     echo.MiddlewareFunc
	FeedCache     echo.MiddlewareFunc
}

// New builds the Echo instance with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(d.Log))

	RegisterRoutes(e, d.DB, d.Metrics)

	// Every /v1 route resolves the caller once, before its handler runs.
	v1 := e.Group("/v1", middleware.Authenticate(d.Gate))
	RegisterAuth(v1, d.Auth, orPass(d.RateLimit))
	RegisterLinks(v1, d.Links, orPass(d.RateLimit), orPass(d.FeedCache))
	RegisterSubscriptions(v1, d.Subscriptions)
	return e
}

// RegisterRoutes registers routes that do not require authentication:
// the health check and, when metrics are enabled, the Prometheus scrape
// endpoint.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, metrics http.Handler) {
	e.GET("/healthz", handler.Health(db))
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
}

// RegisterAuth registers signup and login under /auth and the protected
// /me endpoint.  Signup and login are rate limited.
func RegisterAuth(g *echo.Group, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	g.POST("/auth/signup", a.Signup, limit)
	g.POST("/auth/login", a.Login, limit)
	g.GET("/me", a.Me, middleware.RequireCustomer())
}

func orPass(mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	if mw == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return mw
}
