// Package handler exposes the HTTP handlers for lessons and orders.  Every
// handler answers with a JSON body; failures use the shape {"error": msg}.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/skillhub-booking/internal/repository"
	"github.com/iliyamo/skillhub-booking/internal/service"
)

// CachePurger drops cached lesson listings after a write.
type CachePurger interface {
	Purge(ctx context.Context) error
}

// respondError maps service and repository errors onto status codes.
// Anything unrecognised is an infrastructure failure: it is logged and the
// client only sees fallback.
func respondError(c echo.Context, log *zap.Logger, err error, fallback string) error {
	var (
		verr *service.ValidationError
		ierr *service.InventoryError
	)
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Message})
	case errors.As(err, &ierr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ierr.Error()})
	case errors.Is(err, repository.ErrLessonNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Lesson not found"})
	}
	log.Error(fallback,
		zap.String("method", c.Request().Method),
		zap.String("path", c.Request().URL.Path),
		zap.Error(err),
	)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
}

func purge(c echo.Context, cache CachePurger, log *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Purge(context.WithoutCancel(c.Request().Context())); err != nil {
		log.Warn("purge lesson cache failed", zap.Error(err))
	}
}
