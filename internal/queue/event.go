// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the background consumer.
package queue

// OrderPlacedQueue is the durable queue order events are routed to.
const OrderPlacedQueue = "order.placed"

// OrderPlacedItem is one line of a placed order, enriched with the lesson
// title so consumers need not query the store.
type OrderPlacedItem struct {
	LessonID string `json:"lesson_id"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
}

// OrderPlacedEvent is published after an order has been persisted.
type OrderPlacedEvent struct {
	OrderID     string            `json:"order_id"`
	FullName    string            `json:"full_name"`
	PhoneNumber string            `json:"phone_number"`
	Items       []OrderPlacedItem `json:"items"`
	PlacedAt    string            `json:"placed_at"`
}
