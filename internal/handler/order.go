package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/skillhub-booking/internal/model"
	"github.com/iliyamo/skillhub-booking/internal/service"
)

// OrderService is the order use case consumed by OrderHandler.
type OrderService interface {
	List(ctx context.Context) ([]model.Order, error)
	Place(ctx context.Context, in service.PlaceOrderInput) (*model.Order, error)
}

// OrderHandler serves the order collection.
type OrderHandler struct {
	Orders OrderService
	Cache  CachePurger
	Log    *zap.Logger
}

// NewOrderHandler constructs an OrderHandler; cache may be nil.
func NewOrderHandler(orders OrderService, cache CachePurger, log *zap.Logger) *OrderHandler {
	if orders == nil {
		panic("nil order service passed to NewOrderHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderHandler{Orders: orders, Cache: cache, Log: log}
}

// List handles GET /collection/orders.
func (h *OrderHandler) List(c echo.Context) error {
	orders, err := h.Orders.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err, "Failed to fetch orders")
	}
	return c.JSON(http.StatusOK, orders)
}

// Place handles POST /collection/orders.  On success it answers 201 with the
// new order id; seat counts changed, so cached listings are purged.
func (h *OrderHandler) Place(c echo.Context) error {
	var in service.PlaceOrderInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	order, err := h.Orders.Place(c.Request().Context(), in)
	if err != nil {
		return respondError(c, h.Log, err, "Failed to place order")
	}
	purge(c, h.Cache, h.Log)
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Order placed successfully.",
		"orderId": order.ID,
	})
}
