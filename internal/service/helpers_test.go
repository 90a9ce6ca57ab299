package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/skillhub-booking/internal/model"
	"github.com/iliyamo/skillhub-booking/internal/queue"
	"github.com/iliyamo/skillhub-booking/internal/repository"
	"github.com/iliyamo/skillhub-booking/internal/repository/memstore"
)

var errStoreDown = errors.New("store down")

func seedStore(t *testing.T) (*memstore.Store, []string) {
	t.Helper()
	s := memstore.New()
	ids, err := s.InsertLessons(context.Background(), []model.Lesson{
		{Title: "Yoga", Location: "Park", Price: 10, AvailableSeats: 5, Description: "Morning flow"},
		{Title: "Chess", Location: "Library", Price: 21, AvailableSeats: 12, Description: "Openings"},
		{Title: "Art", Location: "Studio", Price: 35, AvailableSeats: 1, Description: "Watercolour in the park"},
	})
	require.NoError(t, err)
	return s, ids
}

func seats(t *testing.T, s repository.LessonStore, id string) int {
	t.Helper()
	l, err := s.GetLesson(context.Background(), id)
	require.NoError(t, err)
	return l.AvailableSeats
}

// flakyLessons wraps a LessonStore and injects failures.
type flakyLessons struct {
	repository.LessonStore
	findErr      error
	decrementErr map[string]error
}

func (f *flakyLessons) FindLessons(ctx context.Context, q repository.LessonQuery) ([]model.Lesson, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.LessonStore.FindLessons(ctx, q)
}

func (f *flakyLessons) DecrementSeats(ctx context.Context, id string, n int) error {
	if err, ok := f.decrementErr[id]; ok {
		return err
	}
	return f.LessonStore.DecrementSeats(ctx, id, n)
}

// recordingLessons remembers the last search pattern and matches nothing.
type recordingLessons struct {
	repository.LessonStore
	pattern string
}

func (r *recordingLessons) FindLessons(_ context.Context, q repository.LessonQuery) ([]model.Lesson, error) {
	r.pattern = q.Pattern
	return nil, nil
}

// typedLessons rejects values its columns cannot hold, like the SQL store.
type typedLessons struct {
	repository.LessonStore
}

func (s *typedLessons) UpdateLesson(ctx context.Context, id string, patch map[string]any) error {
	for k, v := range patch {
		if _, err := repository.CoerceLessonField(k, v); err != nil {
			return err
		}
	}
	return s.LessonStore.UpdateLesson(ctx, id, patch)
}

type failingOrders struct {
	repository.OrderStore
}

func (failingOrders) CreateOrder(context.Context, *model.Order) error { return errStoreDown }

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.OrderPlacedEvent
	err    error
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, ev queue.OrderPlacedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}
