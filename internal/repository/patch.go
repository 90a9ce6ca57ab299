package repository

import (
	"fmt"
	"math"

	"github.com/iliyamo/skillhub-booking/internal/model"
)

// CoerceLessonField converts a decoded JSON value for one of the typed
// lesson fields into its Go type: string for text fields, float64 for
// price and int for availableSeats.  Keys outside the fixed set are
// returned unchanged.  It is the type check of strict updates and of the
// SQL store, whose columns cannot hold anything else.
func CoerceLessonField(key string, v any) (any, error) {
	switch key {
	case model.FieldTitle, model.FieldLocation, model.FieldDescription:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidFieldValue, key)
		}
		return s, nil
	case model.FieldPrice:
		f, ok := model.Number(v)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a number", ErrInvalidFieldValue, key)
		}
		return f, nil
	case model.FieldAvailableSeats:
		f, ok := model.Number(v)
		if !ok || f != math.Trunc(f) {
			return nil, fmt.Errorf("%w: %s must be an integer", ErrInvalidFieldValue, key)
		}
		return int(f), nil
	}
	return v, nil
}

// ApplyLessonPatch merges patch into l in place with document-store
// semantics: no type checks, "_id" is never written.
func ApplyLessonPatch(l *model.Lesson, patch map[string]any) {
	for k, v := range patch {
		if k == model.FieldID {
			continue
		}
		l.Set(k, v)
	}
}
