package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/linkboard/internal/subscription"
)

// Deliverer is implemented by *subscription.Deliverer.
type Deliverer interface {
	ParseChannels(raw string) ([]string, error)
	Deliver(ctx context.Context, channels []string, sink subscription.Sink) error
}

// SubscriptionHandler streams bus events as Server-Sent Events.
type SubscriptionHandler struct {
	Deliverer Deliverer
	Log       *slog.Logger
}

func NewSubscriptionHandler(d Deliverer, log *slog.Logger) *SubscriptionHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SubscriptionHandler{Deliverer: d, Log: log}
}

// Subscribe holds the request open and writes one SSE message per event:
//
//	event: newLink
//	data: {"id":1,...}
//
// Heartbeats are SSE comments.  The stream ends when the client goes away
// or the server shuts down.
func (h *SubscriptionHandler) Subscribe(c echo.Context) error {
	channels, err := h.Deliverer.ParseChannels(c.QueryParam("channels"))
	if err != nil {
		return writeError(c, err)
	}

	sink := &sseSink{res: c.Response()}
	err = h.Deliverer.Deliver(c.Request().Context(), channels, sink)
	switch {
	case err == nil, errors.Is(err, subscription.ErrBusClosed):
		return nil
	case !sink.opened:
		return writeError(c, err)
	default:
		// Headers are gone; all that is left is to note why the stream ended.
		h.Log.Info("subscription ended", slog.Any("channels", channels), slog.Any("err", err))
		return nil
	}
}

// sseSink writes text/event-stream frames to an Echo response.
type sseSink struct {
	res    *echo.Response
	opened bool
}

func (s *sseSink) Open() error {
	h := s.res.Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.res.WriteHeader(http.StatusOK)
	s.opened = true
	return s.write(": connected\n\n")
}

func (s *sseSink) Send(p subscription.Payload) error {
	data, err := json.Marshal(p.Data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", p.Channel, err)
	}
	return s.write(fmt.Sprintf("event: %s\ndata: %s\n\n", p.Channel, data))
}

func (s *sseSink) Heartbeat() error { return s.write(": ping\n\n") }

func (s *sseSink) write(frame string) error {
	if _, err := s.res.Write([]byte(frame)); err != nil {
		return err
	}
	s.res.Flush()
	return nil
}
