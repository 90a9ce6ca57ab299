package service

import "fmt"

// ValidationError reports missing or malformed input.  Its message is safe
// to return to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// unknownLessonLabel stands in for the title when the lesson does not exist.
const unknownLessonLabel = "the selected lesson"

// InventoryError rejects an order line whose lesson is missing or lacks
// enough seats.
type InventoryError struct {
	LessonID string
	Title    string
}

func (e *InventoryError) Error() string {
	label := e.Title
	if label == "" {
		label = unknownLessonLabel
	}
	return fmt.Sprintf("Not enough seats available in %s.", label)
}
