package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/skillhub-booking/internal/model"
	"github.com/iliyamo/skillhub-booking/internal/queue"
	"github.com/iliyamo/skillhub-booking/internal/repository"
)

// EventPublisher delivers order events to downstream consumers.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, ev queue.OrderPlacedEvent) error
}

// PlaceOrderInput is the decoded body of an order request.
type PlaceOrderInput struct {
	FullName    string           `json:"fullName"`
	PhoneNumber string           `json:"phoneNumber"`
	Lessons     []model.LineItem `json:"lessons"`
}

// OrderService places and lists orders.
type OrderService struct {
	lessons   repository.LessonStore
	orders    repository.OrderStore
	publisher EventPublisher
	log       *zap.Logger
	now       func() time.Time
}

// NewOrderService wires the stores.  publisher may be nil when events are
// disabled.
func NewOrderService(lessons repository.LessonStore, orders repository.OrderStore, publisher EventPublisher, log *zap.Logger) *OrderService {
	if lessons == nil || orders == nil {
		panic("nil store passed to NewOrderService")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderService{lessons: lessons, orders: orders, publisher: publisher, log: log, now: time.Now}
}

// List returns all orders.
func (s *OrderService) List(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func validateOrder(in PlaceOrderInput) error {
	if strings.TrimSpace(in.FullName) == "" || strings.TrimSpace(in.PhoneNumber) == "" || len(in.Lessons) == 0 {
		return validationf("Full name, phone number, and lessons are required.")
	}
	for i, item := range in.Lessons {
		if strings.TrimSpace(item.LessonID) == "" {
			return validationf("Lesson %d is missing an id.", i+1)
		}
		if item.Quantity <= 0 {
			return validationf("Lesson %d must have a positive quantity.", i+1)
		}
	}
	return nil
}

// Place validates in, reserves seats for every line item and persists the
// order.
//
// All availability checks run before any seat is written, with quantities
// of repeated lessons summed.  The decrements themselves are conditional, so
// an order racing with this one cannot push a lesson below zero; if that
// race is lost midway, seats already taken by this request are handed back
// before the order is rejected.
func (s *OrderService) Place(ctx context.Context, in PlaceOrderInput) (*model.Order, error) {
	if err := validateOrder(in); err != nil {
		return nil, err
	}

	titles := make(map[string]string, len(in.Lessons))
	requested := make(map[string]int, len(in.Lessons))
	for _, item := range in.Lessons {
		lesson, err := s.lessons.GetLesson(ctx, item.LessonID)
		if errors.Is(err, repository.ErrLessonNotFound) {
			return nil, &InventoryError{LessonID: item.LessonID}
		}
		if err != nil {
			return nil, fmt.Errorf("load lesson %s: %w", item.LessonID, err)
		}
		titles[item.LessonID] = lesson.Title
		requested[item.LessonID] += item.Quantity
		if lesson.AvailableSeats < requested[item.LessonID] {
			return nil, &InventoryError{LessonID: item.LessonID, Title: lesson.Title}
		}
	}

	taken := make([]model.LineItem, 0, len(in.Lessons))
	for _, item := range in.Lessons {
		err := s.lessons.DecrementSeats(ctx, item.LessonID, item.Quantity)
		if err == nil {
			taken = append(taken, item)
			continue
		}
		s.release(ctx, taken)
		if errors.Is(err, repository.ErrInsufficientSeats) || errors.Is(err, repository.ErrLessonNotFound) {
			return nil, &InventoryError{LessonID: item.LessonID, Title: titles[item.LessonID]}
		}
		return nil, fmt.Errorf("reserve seats for %s: %w", item.LessonID, err)
	}

	order := &model.Order{
		FullName:    in.FullName,
		PhoneNumber: in.PhoneNumber,
		Lessons:     append([]model.LineItem(nil), in.Lessons...),
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		s.release(ctx, taken)
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.publish(ctx, order, titles)
	return order, nil
}

// release hands back seats reserved earlier in a failed request.  Failures
// are logged only; the request is already failing.
func (s *OrderService) release(ctx context.Context, items []model.LineItem) {
	for _, item := range items {
		if err := s.lessons.IncrementSeats(context.WithoutCancel(ctx), item.LessonID, item.Quantity); err != nil {
			s.log.Error("release seats failed",
				zap.String("lesson_id", item.LessonID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err),
			)
		}
	}
}

func (s *OrderService) publish(ctx context.Context, o *model.Order, titles map[string]string) {
	if s.publisher == nil {
		return
	}
	ev := queue.OrderPlacedEvent{
		OrderID:     o.ID,
		FullName:    o.FullName,
		PhoneNumber: o.PhoneNumber,
		Items:       make([]queue.OrderPlacedItem, 0, len(o.Lessons)),
		PlacedAt:    s.now().UTC().Format(time.RFC3339),
	}
	for _, item := range o.Lessons {
		ev.Items = append(ev.Items, queue.OrderPlacedItem{LessonID: item.LessonID, Title: titles[item.LessonID], Quantity: item.Quantity})
	}
	if err := s.publisher.PublishOrderPlaced(ctx, ev); err != nil {
		s.log.Warn("publish order.placed failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}
