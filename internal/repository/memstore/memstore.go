// Package memstore implements the lesson and order stores in process memory.
// It backs STORE_DRIVER=memory and the service and handler tests.
package memstore

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/iliyamo/skillhub-booking/internal/model"
	"github.com/iliyamo/skillhub-booking/internal/repository"
)

// Store keeps lessons and orders in insertion order behind one mutex, so a
// conditional seat decrement is atomic with respect to other requests.
type Store struct {
	mu      sync.RWMutex
	lessons []model.Lesson
	orders  []model.Order
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *Store) indexOf(id string) int {
	for i := range s.lessons {
		if s.lessons[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneLesson(l model.Lesson) model.Lesson {
	if l.Extra != nil {
		extra := make(map[string]any, len(l.Extra))
		for k, v := range l.Extra {
			extra[k] = v
		}
		l.Extra = extra
	}
	return l
}

// FindLessons filters with the same semantics as the document store: the
// pattern is a case-insensitive regexp tried against the text fields and the
// decimal form of the numeric ones.
func (s *Store) FindLessons(ctx context.Context, q repository.LessonQuery) ([]model.Lesson, error) {
	var re *regexp.Regexp
	if q.Pattern != "" {
		var err error
		re, err = regexp.Compile("(?i)" + q.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", repository.ErrInvalidPattern, err)
		}
	}

	s.mu.RLock()
	out := make([]model.Lesson, 0, len(s.lessons))
	for _, l := range s.lessons {
		if re == nil || matches(re, l) {
			out = append(out, cloneLesson(l))
		}
	}
	s.mu.RUnlock()

	less := lessFor(q.SortBy)
	sort.SliceStable(out, func(i, j int) bool {
		if q.Descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out, nil
}

func matches(re *regexp.Regexp, l model.Lesson) bool {
	return re.MatchString(l.Title) ||
		re.MatchString(l.Location) ||
		re.MatchString(l.Description) ||
		re.MatchString(strconv.FormatFloat(l.Price, 'f', -1, 64)) ||
		re.MatchString(strconv.Itoa(l.AvailableSeats))
}

func lessFor(field string) func(a, b model.Lesson) bool {
	switch field {
	case model.FieldID:
		return func(a, b model.Lesson) bool { return a.ID < b.ID }
	case model.FieldLocation:
		return func(a, b model.Lesson) bool { return a.Location < b.Location }
	case model.FieldPrice:
		return func(a, b model.Lesson) bool { return a.Price < b.Price }
	case model.FieldAvailableSeats:
		return func(a, b model.Lesson) bool { return a.AvailableSeats < b.AvailableSeats }
	case model.FieldDescription:
		return func(a, b model.Lesson) bool { return a.Description < b.Description }
	default:
		return func(a, b model.Lesson) bool { return a.Title < b.Title }
	}
}

// GetLesson returns a copy of the lesson with the given id.
func (s *Store) GetLesson(ctx context.Context, id string) (*model.Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, repository.ErrLessonNotFound
	}
	l := cloneLesson(s.lessons[i])
	return &l, nil
}

// DecrementSeats removes n seats when at least n remain.
func (s *Store) DecrementSeats(ctx context.Context, id string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return repository.ErrLessonNotFound
	}
	if s.lessons[i].AvailableSeats < n {
		return repository.ErrInsufficientSeats
	}
	s.lessons[i].AvailableSeats -= n
	return nil
}

// IncrementSeats adds n seats back.
func (s *Store) IncrementSeats(ctx context.Context, id string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return repository.ErrLessonNotFound
	}
	s.lessons[i].AvailableSeats += n
	return nil
}

// UpdateLesson merges patch into the lesson.  Like the document store it
// keeps values of any type.
func (s *Store) UpdateLesson(ctx context.Context, id string, patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return repository.ErrLessonNotFound
	}
	l := cloneLesson(s.lessons[i])
	repository.ApplyLessonPatch(&l, patch)
	s.lessons[i] = l
	return nil
}

// InsertLessons stores the lessons, assigning fresh ids.
func (s *Store) InsertLessons(ctx context.Context, lessons []model.Lesson) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(lessons))
	for _, l := range lessons {
		l = cloneLesson(l)
		l.ID = newID()
		s.lessons = append(s.lessons, l)
		ids = append(ids, l.ID)
	}
	return ids, nil
}

// CountLessons returns the number of stored lessons.
func (s *Store) CountLessons(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.lessons)), nil
}

// CreateOrder stores a copy of o and assigns its id.
func (s *Store) CreateOrder(ctx context.Context, o *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = newID()
	stored := *o
	stored.Lessons = append([]model.LineItem(nil), o.Lessons...)
	s.orders = append(s.orders, stored)
	return nil
}

// ListOrders returns all orders in creation order.
func (s *Store) ListOrders(ctx context.Context) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Order, 0, len(s.orders))
	for _, o := range s.orders {
		o.Lessons = append([]model.LineItem(nil), o.Lessons...)
		out = append(out, o)
	}
	return out, nil
}

var (
	_ repository.LessonStore = (*Store)(nil)
	_ repository.OrderStore  = (*Store)(nil)
)
