package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/linkboard/internal/apperr"
	"github.com/iliyamo/linkboard/internal/auth"
	"github.com/iliyamo/linkboard/internal/config"
	"github.com/iliyamo/linkboard/internal/model"
)

type mockResolver struct {
	resolveFunc func(ctx context.Context, header string) (auth.Identity, error)
	calls       int
}

func (m *mockResolver) Resolve(ctx context.Context, header string) (auth.Identity, error) {
	m.calls++
	return m.resolveFunc(ctx, header)
}

func customerResolver(c model.Customer) *mockResolver {
	return &mockResolver{resolveFunc: func(_ context.Context, header string) (auth.Identity, error) {
		switch header {
		case "":
			return auth.Anonymous(), nil
		case "Bearer good":
			return auth.Authenticated(c), nil
		case "Bearer broken-store":
			return auth.Anonymous(), apperr.E("auth.Resolve", apperr.Internal, errors.New("db down"))
		}
		return auth.Anonymous(), apperr.E("auth.Resolve", apperr.Unauthenticated, errors.New("bad token"))
	}}
}

// serve runs one request through mws and a handler reporting what it saw.
func serve(t *testing.T, header string, handler echo.HandlerFunc, mws ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/ping", handler, mws...)
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func echoIdentity(c echo.Context) error {
	fromCtx := auth.FromContext(c.Request().Context())
	return c.JSON(http.StatusOK, echo.Map{
		"echo":    IdentityOf(c).CustomerID(),
		"request": fromCtx.CustomerID(),
	})
}

func TestAuthenticate_Anonymous(t *testing.T) {
	r := customerResolver(model.Customer{ID: 7})

	rec := serve(t, "", echoIdentity, Authenticate(r))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"echo":0,"request":0}`, rec.Body.String())
	assert.Equal(t, 1, r.calls)
}

func TestAuthenticate_StoresIdentityOnBothContexts(t *testing.T) {
	r := customerResolver(model.Customer{ID: 7})

	rec := serve(t, "Bearer good", echoIdentity, Authenticate(r))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"echo":7,"request":7}`, rec.Body.String())
	assert.Equal(t, 1, r.calls, "identity resolved once per request")
}

func TestAuthenticate_RejectsBadToken(t *testing.T) {
	r := customerResolver(model.Customer{ID: 7})
	called := false

	rec := serve(t, "Bearer forged", func(c echo.Context) error {
		called = true
		return nil
	}, Authenticate(r))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAuthenticate_StoreFailure(t *testing.T) {
	r := customerResolver(model.Customer{ID: 7})

	rec := serve(t, "Bearer broken-store", echoIdentity, Authenticate(r))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireCustomer(t *testing.T) {
	r := customerResolver(model.Customer{ID: 3})
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

	assert.Equal(t, http.StatusUnauthorized, serve(t, "", ok, Authenticate(r), RequireCustomer()).Code)
	assert.Equal(t, http.StatusNoContent, serve(t, "Bearer good", ok, Authenticate(r), RequireCustomer()).Code)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	r := customerResolver(model.Customer{ID: 42})

	rec := serve(t, "Bearer good", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	}, RequestLogger(logger), Authenticate(r))

	assert.Equal(t, http.StatusTeapot, rec.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	assert.Equal(t, "http_request", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/ping", entry["route"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
	assert.EqualValues(t, 42, entry["customer_id"])
	assert.Contains(t, entry, "duration_ms")
}

func TestRequestLogger_OmitsAnonymousCustomer(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	serve(t, "", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequestLogger(logger))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.NotContains(t, entry, "customer_id")
}

func TestNilRedisIsPassThrough(t *testing.T) {
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "fresh") }

	rec := serve(t, "", ok, NewRedisCache(config.CacheConfig{Enabled: true}, nil), NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fresh", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"count":0}`))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, `{"count":0}`, string(body))

	_, _, _, ok = decodePayload(bs[:5])
	assert.False(t, ok, "short payload")
	_, _, _, ok = decodePayload(append([]byte{0, 0, 0, 200, 0, 0, 1, 0}, 'x'))
	assert.False(t, ok, "header length beyond payload")
}

func TestCacheKeyFrom(t *testing.T) {
	e := echo.New()
	key := func(strategy, target string) string {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/v1/feed")
		return cacheKeyFrom(config.CacheConfig{Prefix: "lb:feed", KeyStrategy: strategy}, c)
	}

	assert.True(t, strings.HasPrefix(key("", "/v1/feed"), "lb:feed:"))
	assert.NotEqual(t, key("", "/v1/feed?take=1"), key("", "/v1/feed?take=2"))
	assert.Equal(t, key("route", "/v1/feed?take=1"), key("route", "/v1/feed?take=2"))
}

func TestCaptureWriter_Limit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}

	_, _ = cw.Write([]byte("abc"))
	assert.False(t, cw.truncated())
	_, _ = cw.Write([]byte("def"))

	assert.True(t, cw.truncated())
	assert.Equal(t, "abcd", cw.buf.String())
	assert.Equal(t, "abcdef", rec.Body.String(), "client still gets the full body")
}

func TestParseBucketResult(t *testing.T) {
	res, ok := parseBucketResult([]any{int64(1), int64(4), int64(0)})
	require.True(t, ok)
	assert.True(t, res.allowed)
	assert.Equal(t, int64(4), res.remaining)

	res, ok = parseBucketResult([]any{int64(0), int64(0), "750"})
	require.True(t, ok)
	assert.False(t, res.allowed)
	assert.Equal(t, int64(750), res.retryMs)

	_, ok = parseBucketResult("nope")
	assert.False(t, ok)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/links", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/links")

	cfg := config.RateLimitConfig{Prefix: "rl"}
	assert.Equal(t, "rl:ip:10.0.0.1:user:anon:route:POST /v1/links", buildRateKey(cfg, c))

	c.Set(identityKey, auth.Authenticated(model.Customer{ID: 9}))
	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:9", buildRateKey(cfg, c))
}
