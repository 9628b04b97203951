package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogger emits one structured log line per request with method,
// route, status, duration and the customer id when authenticated.  The
// level follows the status: 5xx error, 4xx warn, otherwise info.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Let Echo render the error now so the status is final.
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			attrs := []any{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.String("route", c.Path()),
				slog.Int("status", status),
				slog.Float64("duration_ms", float64(time.Since(start).Nanoseconds())/float64(time.Millisecond)),
			}
			if id := IdentityOf(c); !id.IsAnonymous() {
				attrs = append(attrs, slog.Uint64("customer_id", id.CustomerID()))
			}

			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelError
			} else if status >= 400 {
				level = slog.LevelWarn
			}
			logger.Log(req.Context(), level, "http_request", attrs...)
			return nil
		}
	}
}
