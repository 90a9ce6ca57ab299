// Package seed loads the initial lesson catalogue.  Lessons are never created
// through the API, so an empty store is filled from a JSON file at startup.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/iliyamo/skillhub-booking/internal/model"
	"github.com/iliyamo/skillhub-booking/internal/repository"
)

// Decode reads a JSON array of lessons.  Ids in the input are ignored; the
// store assigns its own.
func Decode(r io.Reader) ([]model.Lesson, error) {
	var lessons []model.Lesson
	if err := json.NewDecoder(r).Decode(&lessons); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	for i := range lessons {
		lessons[i].ID = ""
		for k := range lessons[i].Extra {
			if model.IsFixedLessonField(k) {
				return nil, fmt.Errorf("seed lesson %d: %s has the wrong type", i+1, k)
			}
		}
		if lessons[i].AvailableSeats < 0 {
			return nil, fmt.Errorf("seed lesson %q has negative availableSeats", lessons[i].Title)
		}
	}
	return lessons, nil
}

// Lessons inserts lessons into store unless it already holds any.  It
// returns the number of lessons inserted.
func Lessons(ctx context.Context, store repository.LessonStore, lessons []model.Lesson) (int, error) {
	n, err := store.CountLessons(ctx)
	if err != nil {
		return 0, fmt.Errorf("count lessons: %w", err)
	}
	if n > 0 || len(lessons) == 0 {
		return 0, nil
	}
	ids, err := store.InsertLessons(ctx, lessons)
	if err != nil {
		return 0, fmt.Errorf("insert lessons: %w", err)
	}
	return len(ids), nil
}

// FromFile seeds store from the JSON file at path.  An empty path is a no-op.
func FromFile(ctx context.Context, store repository.LessonStore, path string, log *zap.Logger) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	lessons, err := Decode(f)
	if err != nil {
		return err
	}
	n, err := Lessons(ctx, store, lessons)
	if err != nil {
		return err
	}
	log.Info("lessons seeded", zap.String("file", path), zap.Int("inserted", n))
	return nil
}
