package model

import (
	"encoding/json"
	"math"
)

// Lesson is a bookable offering with a finite seat inventory.  The fixed
// fields mirror the document layout of the lessons collection; Extra carries
// any additional keys merged into the document by an open lesson update so
// they survive a round trip through the API.  A fixed key present in Extra
// holds a value of the wrong type (a string price, a null title) and takes
// precedence over the typed field.
//
// Fields:
//  ID             – opaque store identifier (_id).
//  Title          – lesson subject shown to customers.
//  Location       – where the lesson takes place.
//  Price          – price per seat.
//  AvailableSeats – remaining seats; never negative.
//  Description    – free text.
type Lesson struct {
	ID             string         `json:"_id"`
	Title          string         `json:"title"`
	Location       string         `json:"location"`
	Price          float64        `json:"price"`
	AvailableSeats int            `json:"availableSeats"`
	Description    string         `json:"description"`
	Extra          map[string]any `json:"-"`
}

// Lesson field names as they appear in documents and JSON bodies.
const (
	FieldID             = "_id"
	FieldTitle          = "title"
	FieldLocation       = "location"
	FieldPrice          = "price"
	FieldAvailableSeats = "availableSeats"
	FieldDescription    = "description"
)

// MutableLessonFields lists the lesson keys a strict update may touch.
var MutableLessonFields = []string{FieldTitle, FieldLocation, FieldPrice, FieldAvailableSeats, FieldDescription}

// SortableLessonFields lists the keys lessons may be ordered by.
var SortableLessonFields = []string{FieldID, FieldTitle, FieldLocation, FieldPrice, FieldAvailableSeats, FieldDescription}

// IsFixedLessonField reports whether key is one of the typed Lesson fields.
func IsFixedLessonField(key string) bool {
	switch key {
	case FieldID, FieldTitle, FieldLocation, FieldPrice, FieldAvailableSeats, FieldDescription:
		return true
	}
	return false
}

// Set assigns one field the way the document store would.  Values that fit
// the typed field are stored there; anything else is kept verbatim in Extra.
// _id is only taken from a string.
func (l *Lesson) Set(key string, v any) {
	if key == FieldID {
		if s, ok := v.(string); ok {
			l.ID = s
		}
		return
	}
	if IsFixedLessonField(key) {
		delete(l.Extra, key)
		if l.setTyped(key, v) {
			return
		}
	}
	if l.Extra == nil {
		l.Extra = make(map[string]any)
	}
	l.Extra[key] = v
}

func (l *Lesson) setTyped(key string, v any) bool {
	switch key {
	case FieldTitle:
		l.Title = ""
		return setString(&l.Title, v)
	case FieldLocation:
		l.Location = ""
		return setString(&l.Location, v)
	case FieldDescription:
		l.Description = ""
		return setString(&l.Description, v)
	case FieldPrice:
		f, ok := Number(v)
		l.Price = f
		return ok
	case FieldAvailableSeats:
		l.AvailableSeats = 0
		f, ok := Number(v)
		if !ok || f != math.Trunc(f) {
			return false
		}
		l.AvailableSeats = int(f)
		return true
	}
	return false
}

func setString(dst *string, v any) bool {
	s, ok := v.(string)
	if ok {
		*dst = s
	}
	return ok
}

// Number converts the numeric types produced by the JSON and BSON decoders.
func Number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

// MarshalJSON flattens Extra next to the fixed fields.  A fixed key held in
// Extra replaces the typed value; _id always comes from ID.
func (l Lesson) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		FieldTitle:          l.Title,
		FieldLocation:       l.Location,
		FieldPrice:          l.Price,
		FieldAvailableSeats: l.AvailableSeats,
		FieldDescription:    l.Description,
	}
	for k, v := range l.Extra {
		out[k] = v
	}
	out[FieldID] = l.ID
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON: every key goes through Set.
func (l *Lesson) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = Lesson{}
	for k, v := range raw {
		l.Set(k, v)
	}
	return nil
}
