package model

// LineItem references a lesson and the number of seats requested for it.
type LineItem struct {
	LessonID string `json:"_id"`
	Quantity int    `json:"quantity"`
}

// Order records a customer's purchase of one or more lesson line items.
// Orders are written once and never updated.
type Order struct {
	ID          string     `json:"_id"`
	FullName    string     `json:"fullName"`
	PhoneNumber string     `json:"phoneNumber"`
	Lessons     []LineItem `json:"lessons"`
}
