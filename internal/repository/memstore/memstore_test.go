package memstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/skillhub-booking/internal/model"
	"github.com/iliyamo/skillhub-booking/internal/repository"
)

func seeded(t *testing.T) (*Store, []string) {
	t.Helper()
	s := New()
	ids, err := s.InsertLessons(context.Background(), []model.Lesson{
		{Title: "Yoga", Location: "Park", Price: 10, AvailableSeats: 5, Description: "Morning flow"},
		{Title: "Chess", Location: "Library", Price: 21, AvailableSeats: 12, Description: "Openings"},
		{Title: "Art", Location: "Studio", Price: 35, AvailableSeats: 0, Description: "Watercolour in the park"},
	})
	require.NoError(t, err)
	return s, ids
}

func titles(ls []model.Lesson) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.Title)
	}
	return out
}

func TestStore_FindLessons_SortAndSearch(t *testing.T) {
	s, _ := seeded(t)
	ctx := context.Background()

	all, err := s.FindLessons(ctx, repository.LessonQuery{SortBy: model.FieldTitle})
	require.NoError(t, err)
	assert.Equal(t, []string{"Art", "Chess", "Yoga"}, titles(all))

	byPrice, err := s.FindLessons(ctx, repository.LessonQuery{SortBy: model.FieldPrice, Descending: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Art", "Chess", "Yoga"}, titles(byPrice))

	park, err := s.FindLessons(ctx, repository.LessonQuery{Pattern: "PARK", SortBy: model.FieldTitle})
	require.NoError(t, err)
	assert.Equal(t, []string{"Art", "Yoga"}, titles(park))
}

func TestStore_FindLessons_NumericAsString(t *testing.T) {
	s, _ := seeded(t)

	got, err := s.FindLessons(context.Background(), repository.LessonQuery{Pattern: "1", SortBy: model.FieldTitle})
	require.NoError(t, err)
	// "1" hits price 10, price 21 and 12 seats.
	assert.Equal(t, []string{"Chess", "Yoga"}, titles(got))
}

func TestStore_DecrementSeats(t *testing.T) {
	s, ids := seeded(t)
	ctx := context.Background()

	require.NoError(t, s.DecrementSeats(ctx, ids[0], 2))
	l, err := s.GetLesson(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 3, l.AvailableSeats)

	assert.ErrorIs(t, s.DecrementSeats(ctx, ids[0], 4), repository.ErrInsufficientSeats)
	assert.ErrorIs(t, s.DecrementSeats(ctx, "missing", 1), repository.ErrLessonNotFound)
}

func TestStore_DecrementSeats_NeverOversells(t *testing.T) {
	s, ids := seeded(t)
	ctx := context.Background()

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.DecrementSeats(ctx, ids[0], 1) == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	l, err := s.GetLesson(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 5, ok)
	assert.Equal(t, 0, l.AvailableSeats)
}

func TestStore_UpdateLesson_MergesAndKeepsOtherFields(t *testing.T) {
	s, ids := seeded(t)
	ctx := context.Background()

	require.NoError(t, s.UpdateLesson(ctx, ids[0], map[string]any{"availableSeats": float64(10), "image": "yoga.png"}))

	l, err := s.GetLesson(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 10, l.AvailableSeats)
	assert.Equal(t, "Yoga", l.Title)
	assert.Equal(t, "yoga.png", l.Extra["image"])
}

func TestStore_UpdateLesson_StoresValuesAsGiven(t *testing.T) {
	s, ids := seeded(t)
	ctx := context.Background()

	require.NoError(t, s.UpdateLesson(ctx, ids[0], map[string]any{"title": nil, "price": "free", "availableSeats": 10.5}))

	l, err := s.GetLesson(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": nil, "price": "free", "availableSeats": 10.5}, l.Extra)
	assert.Zero(t, l.AvailableSeats)

	// seats that are not a whole number cannot be booked
	assert.ErrorIs(t, s.DecrementSeats(ctx, ids[0], 1), repository.ErrInsufficientSeats)
}

func TestStore_Orders(t *testing.T) {
	s := New()
	ctx := context.Background()

	o := &model.Order{FullName: "Ada", PhoneNumber: "555", Lessons: []model.LineItem{{LessonID: "x", Quantity: 1}}}
	require.NoError(t, s.CreateOrder(ctx, o))
	assert.NotEmpty(t, o.ID)

	list, err := s.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, o.ID, list[0].ID)
}

func TestStore_FindLessons_InvalidPattern(t *testing.T) {
	s, _ := seeded(t)
	_, err := s.FindLessons(context.Background(), repository.LessonQuery{Pattern: "(["})
	assert.ErrorIs(t, err, repository.ErrInvalidPattern)
}
