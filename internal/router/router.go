package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/attraction-registry/internal/handler" // handlers implementing each endpoint
)

// RegisterRoutes registers the health check on the provided Echo instance.
// Load balancers and monitoring systems use it to verify the service is up.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/health", h.Health)
}

// RegisterAttractions registers the attraction CRUD routes.  cache wraps the
// read routes and invalidate wraps the mutating ones; pass middleware that
// does nothing when caching is off.
func RegisterAttractions(e *echo.Echo, a *handler.AttractionHandler, cache, invalidate echo.MiddlewareFunc) {
	g := e.Group("/attractions")

	// Reads may be served from the response cache.
	g.GET("", a.List, cache)
	g.GET("/:id", a.Get, cache)

	// Successful writes drop cached reads so the next list is current.
	g.POST("", a.Create, invalidate)
	g.PUT("/:id", a.Update, invalidate)
	g.DELETE("/:id", a.Delete, invalidate)
}
