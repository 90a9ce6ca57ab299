package repository

import (
	"context"

	"github.com/iliyamo/skillhub-booking/internal/model"
)

// LessonQuery selects and orders lessons.  Pattern is a case-insensitive
// regular expression matched against title, location and description and
// against the decimal string form of price and availableSeats; an empty
// Pattern matches every lesson.  SortBy must be one of
// model.SortableLessonFields.
type LessonQuery struct {
	Pattern    string
	SortBy     string
	Descending bool
}

// LessonStore is the narrow view of the lessons collection used by the
// services.
type LessonStore interface {
	FindLessons(ctx context.Context, q LessonQuery) ([]model.Lesson, error)
	GetLesson(ctx context.Context, id string) (*model.Lesson, error)
	// DecrementSeats removes n seats only if at least n are available.  It
	// returns ErrInsufficientSeats otherwise and ErrLessonNotFound when the
	// lesson is absent.
	DecrementSeats(ctx context.Context, id string, n int) error
	IncrementSeats(ctx context.Context, id string, n int) error
	// UpdateLesson merges patch into the lesson document.
	UpdateLesson(ctx context.Context, id string, patch map[string]any) error
	InsertLessons(ctx context.Context, lessons []model.Lesson) ([]string, error)
	CountLessons(ctx context.Context) (int64, error)
}

// OrderStore is the narrow view of the orders collection.
type OrderStore interface {
	// CreateOrder persists o and assigns o.ID.
	CreateOrder(ctx context.Context, o *model.Order) error
	ListOrders(ctx context.Context) ([]model.Order, error)
}
