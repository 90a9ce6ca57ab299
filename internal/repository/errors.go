// Package repository defines the storage contracts for lessons and orders
// together with the MySQL implementation.  Sentinel errors declared here are
// shared by every store so that services and handlers can tell failure
// scenarios apart without knowing which backend is in use.
package repository

import "errors"

// ErrLessonNotFound is returned when no lesson matches the given id.  Ids
// that cannot be valid for the backend (e.g. malformed ObjectIDs) are
// reported the same way.  Handlers translate it into a 404.
var ErrLessonNotFound = errors.New("lesson not found")

// ErrInsufficientSeats is returned by a conditional decrement when the
// lesson exists but has fewer seats than requested.
var ErrInsufficientSeats = errors.New("insufficient seats")

// ErrUnsupportedField signals that a patch names a key the backend cannot
// store.
var ErrUnsupportedField = errors.New("unsupported field")

// ErrInvalidPattern is returned by FindLessons when the backend's regular
// expression engine rejects the search pattern.  Each backend has its own
// dialect, so the check happens where the pattern is evaluated.
var ErrInvalidPattern = errors.New("invalid search pattern")

// ErrInvalidFieldValue signals that a patch value has the wrong type for a
// typed lesson field.
var ErrInvalidFieldValue = errors.New("invalid field value")
