package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/linkboard/internal/handler"
	"github.com/iliyamo/linkboard/internal/middleware"
)

// RegisterLinks registers link and vote endpoints.  Reads are public;
// posting and voting require a customer and are rate limited.  The feed
// is served through the response cache.
func RegisterLinks(g *echo.Group, h *handler.LinkHandler, limit, cache echo.MiddlewareFunc) {
	g.GET("/feed", h.Feed, cache)
	g.GET("/links/:id", h.Get)
	g.GET("/links/:id/votes", h.Votes)

	// Ordering matters: limit after RequireCustomer so anonymous callers
	// are turned away without spending a token.
	g.POST("/links", h.Post, middleware.RequireCustomer(), limit)
	g.POST("/links/:id/votes", h.Vote, middleware.RequireCustomer(), limit)
}

// RegisterSubscriptions registers the Server-Sent Events endpoint.  It
// is open to anonymous callers.
func RegisterSubscriptions(g *echo.Group, h *handler.SubscriptionHandler) {
	g.GET("/subscriptions", h.Subscribe)
}
