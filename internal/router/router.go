// Package router wires the HTTP handlers and middleware onto an Echo
// instance.
package router

import (
	"os"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/skillhub-booking/internal/handler"
	"github.com/iliyamo/skillhub-booking/internal/middleware"
)

// Deps holds everything RegisterRoutes needs.  Cache may be nil, in which
// case lesson reads are served uncached.
type Deps struct {
	Lessons   *handler.LessonHandler
	Orders    *handler.OrderHandler
	Cache     *middleware.ResponseCache
	AssetsDir string
	Log       *zap.Logger
}

// RegisterMiddleware installs the pre-routing chain.  Running it in Pre
// means OPTIONS requests and unknown paths still get CORS headers and a log
// line.
func RegisterMiddleware(e *echo.Echo, log *zap.Logger) {
	e.Pre(
		echomw.Recover(),
		echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}),
		middleware.RequestLogger(log),
		middleware.CORS(),
	)
}

// RegisterRoutes maps every public endpoint.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/", handler.Index)
	e.GET("/healthz", handler.Health)

	var lessonReads []echo.MiddlewareFunc
	if d.Cache != nil {
		lessonReads = append(lessonReads, d.Cache.Middleware())
	}
	e.GET("/collection/lessons", d.Lessons.List, lessonReads...)
	e.GET("/search/lessons", d.Lessons.Search, lessonReads...)
	e.PUT("/collection/lessons/:id", d.Lessons.Update)

	e.GET("/collection/orders", d.Orders.List)
	e.POST("/collection/orders", d.Orders.Place)

	if d.AssetsDir != "" {
		if fi, err := os.Stat(d.AssetsDir); err == nil && fi.IsDir() {
			e.Static("/assets", d.AssetsDir)
		} else if d.Log != nil {
			d.Log.Warn("assets directory missing, /assets disabled", zap.String("dir", d.AssetsDir))
		}
	}
}
