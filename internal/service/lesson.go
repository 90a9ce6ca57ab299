// Package service holds the lesson and order use cases.  Services depend on
// the repository interfaces only, so any store can back them.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/skillhub-booking/internal/model"
	"github.com/iliyamo/skillhub-booking/internal/repository"
)

const defaultSortField = model.FieldTitle

// LessonService lists, searches and patches lessons.
type LessonService struct {
	lessons repository.LessonStore
	strict  bool
}

// LessonOption configures a LessonService.
type LessonOption func(*LessonService)

// WithStrictUpdates limits updates to the mutable lesson fields and checks
// their types and ranges.
func WithStrictUpdates(strict bool) LessonOption {
	return func(s *LessonService) { s.strict = strict }
}

// NewLessonService constructs a LessonService over store.
func NewLessonService(store repository.LessonStore, opts ...LessonOption) *LessonService {
	if store == nil {
		panic("nil lesson store passed to NewLessonService")
	}
	s := &LessonService{lessons: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// buildQuery validates sortBy against the sortable fields.  order "desc"
// sorts descending; any other value sorts ascending.
func buildQuery(pattern, sortBy, order string) (repository.LessonQuery, error) {
	if sortBy == "" {
		sortBy = defaultSortField
	}
	valid := false
	for _, f := range model.SortableLessonFields {
		if f == sortBy {
			valid = true
			break
		}
	}
	if !valid {
		return repository.LessonQuery{}, validationf("Invalid sortBy field: %s", sortBy)
	}
	return repository.LessonQuery{
		Pattern:    pattern,
		SortBy:     sortBy,
		Descending: strings.EqualFold(order, "desc"),
	}, nil
}

// List returns every lesson ordered by sortBy.
func (s *LessonService) List(ctx context.Context, sortBy, order string) ([]model.Lesson, error) {
	q, err := buildQuery("", sortBy, order)
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessons.FindLessons(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// Search returns lessons where q matches any field, ordered like List.  q is
// a case-insensitive regular expression in the dialect of the store that
// evaluates it; numeric fields are matched against their decimal text, so
// "1" also finds a price of 21.
func (s *LessonService) Search(ctx context.Context, q, sortBy, order string) ([]model.Lesson, error) {
	query, err := buildQuery(q, sortBy, order)
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessons.FindLessons(ctx, query)
	if errors.Is(err, repository.ErrInvalidPattern) {
		return nil, validationf("Invalid search query: %s", q)
	}
	if err != nil {
		return nil, fmt.Errorf("search lessons: %w", err)
	}
	return lessons, nil
}

// Update merges patch into the lesson identified by id.  It returns
// repository.ErrLessonNotFound when no lesson matches.
func (s *LessonService) Update(ctx context.Context, id string, patch map[string]any) error {
	if strings.TrimSpace(id) == "" {
		return repository.ErrLessonNotFound
	}
	if s.strict {
		if err := checkStrictPatch(patch); err != nil {
			return err
		}
	}
	err := s.lessons.UpdateLesson(ctx, id, patch)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrLessonNotFound):
		return err
	case errors.Is(err, repository.ErrUnsupportedField), errors.Is(err, repository.ErrInvalidFieldValue):
		return &ValidationError{Message: err.Error()}
	}
	return fmt.Errorf("update lesson %s: %w", id, err)
}

func checkStrictPatch(patch map[string]any) error {
	for k, v := range patch {
		if k == model.FieldID {
			continue
		}
		mutable := false
		for _, f := range model.MutableLessonFields {
			if f == k {
				mutable = true
				break
			}
		}
		if !mutable {
			return validationf("Field %s cannot be updated", k)
		}
		cv, err := repository.CoerceLessonField(k, v)
		if err != nil {
			return &ValidationError{Message: err.Error()}
		}
		switch t := cv.(type) {
		case int:
			if t < 0 {
				return validationf("%s must not be negative", k)
			}
		case float64:
			if t < 0 {
				return validationf("%s must not be negative", k)
			}
		}
	}
	return nil
}
