package router

import (
	"log"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/attraction-registry/internal/config"
	"github.com/iliyamo/attraction-registry/internal/handler"
	"github.com/iliyamo/attraction-registry/internal/middleware"
)

// Options bundles everything New wires into the Echo instance.  Cache and
// Invalidate may be nil, in which case reads are never cached.
type Options struct {
	Config      config.Config
	Logger      *log.Logger
	Health      *handler.HealthHandler
	Attractions *handler.AttractionHandler
	Cache       echo.MiddlewareFunc
	Invalidate  echo.MiddlewareFunc
}

// New builds the Echo instance serving the API with JSON error rendering,
// request ids, request logging, panic recovery, CORS and every route.  A
// panic inside a handler becomes a logged 500 for that request only.
func New(opts Options) *echo.Echo {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	noop := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if opts.Cache == nil {
		opts.Cache = noop
	}
	if opts.Invalidate == nil {
		opts.Invalidate = noop
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.NewErrorHandler(opts.Logger)

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(opts.Logger))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: opts.Config.CORSOrigins}))

	RegisterRoutes(e, opts.Health)
	RegisterAttractions(e, opts.Attractions, opts.Cache, opts.Invalidate)
	return e
}
