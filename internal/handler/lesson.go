package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/skillhub-booking/internal/model"
)

// LessonService is the lesson use case consumed by LessonHandler.
type LessonService interface {
	List(ctx context.Context, sortBy, order string) ([]model.Lesson, error)
	Search(ctx context.Context, q, sortBy, order string) ([]model.Lesson, error)
	Update(ctx context.Context, id string, patch map[string]any) error
}

// LessonHandler serves the lesson collection.
type LessonHandler struct {
	Lessons LessonService
	Cache   CachePurger
	Log     *zap.Logger
}

// NewLessonHandler constructs a LessonHandler; cache may be nil.
func NewLessonHandler(lessons LessonService, cache CachePurger, log *zap.Logger) *LessonHandler {
	if lessons == nil {
		panic("nil lesson service passed to NewLessonHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LessonHandler{Lessons: lessons, Cache: cache, Log: log}
}

// List handles GET /collection/lessons?sortBy=&order=.
func (h *LessonHandler) List(c echo.Context) error {
	lessons, err := h.Lessons.List(c.Request().Context(), c.QueryParam("sortBy"), c.QueryParam("order"))
	if err != nil {
		return respondError(c, h.Log, err, "Failed to fetch lessons")
	}
	return c.JSON(http.StatusOK, lessons)
}

// Search handles GET /search/lessons?q=&sortBy=&order=.  A missing q
// matches every lesson.
func (h *LessonHandler) Search(c echo.Context) error {
	lessons, err := h.Lessons.Search(c.Request().Context(), c.QueryParam("q"), c.QueryParam("sortBy"), c.QueryParam("order"))
	if err != nil {
		return respondError(c, h.Log, err, "Failed to search lessons")
	}
	return c.JSON(http.StatusOK, lessons)
}

// Update handles PUT /collection/lessons/:id.  The body is a JSON object
// merged into the lesson.  It is decoded directly rather than with c.Bind,
// which would also copy the :id path parameter into the map.
func (h *LessonHandler) Update(c echo.Context) error {
	var patch map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&patch); err != nil || patch == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := h.Lessons.Update(c.Request().Context(), c.Param("id"), patch); err != nil {
		return respondError(c, h.Log, err, "Failed to update lesson")
	}
	purge(c, h.Cache, h.Log)
	return c.JSON(http.StatusOK, echo.Map{"message": "Lesson updated successfully."})
}
