package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"ecom/internal/models"
	"ecom/internal/repositories"
)

// Order event routing.
const (
	EventsExchange          = "ecom.events"
	RoutingOrderPlaced      = "order.placed"
	RoutingOrderStatusShift = "order.status_changed"
)

// EventPublisher sends domain events to a message broker.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// PlaceOrderRequest carries the payment gateway outcome of a checkout.
type PlaceOrderRequest struct {
	AddressID         string `json:"address_id" validate:"required"`
	PGName            string `json:"pg_name" validate:"max=100"`
	PGPaymentID       string `json:"pg_payment_id" validate:"max=255"`
	PGStatus          string `json:"pg_status" validate:"max=100"`
	PGResponseMessage string `json:"pg_response_message" validate:"max=500"`
}

// OrderEvent is the payload published for order lifecycle events.
type OrderEvent struct {
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Status     string    `json:"status"`
	Total      float64   `json:"total"`
	Items      int       `json:"items"`
	OccurredAt time.Time `json:"occurred_at"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
	carts     repositories.CartRepository
	addresses *AddressService
	cache     *CacheService
	events    EventPublisher
}

// NewOrderService creates a new OrderService. events may be nil, in which case no events are published.
func NewOrderService(orderRepo repositories.OrderRepository, carts repositories.CartRepository, addresses *AddressService, cache *CacheService, events EventPublisher) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		carts:     carts,
		addresses: addresses,
		cache:     cache,
		events:    events,
	}
}

// PlaceOrder turns the user's cart into an order paid with method.
func (s *OrderService) PlaceOrder(ctx context.Context, user *models.Principal, method string, req PlaceOrderRequest) (*models.Order, error) {
	cart, err := s.carts.GetByUserID(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, fmt.Errorf("cart is empty: %w", models.ErrValidation)
	}
	if _, err := s.addresses.Owned(ctx, user, req.AddressID); err != nil {
		return nil, err
	}

	var totalAmount float64
	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Discount:  item.Discount,
		})
		totalAmount += item.Price * float64(item.Quantity)
	}

	order := &models.Order{
		UserID:      user.UserID,
		Email:       user.Email,
		Items:       items,
		TotalAmount: totalAmount,
		Status:      models.OrderPending,
		AddressID:   req.AddressID,
		Payment: &models.Payment{
			Method:            method,
			PGName:            req.PGName,
			PGPaymentID:       req.PGPaymentID,
			PGStatus:          req.PGStatus,
			PGResponseMessage: req.PGResponseMessage,
		},
	}
	if err := s.orderRepo.Place(ctx, order, cart.ID); err != nil {
		return nil, err
	}

	s.cache.InvalidateKey(ctx, RegionCarts, user.Username)
	s.cache.Invalidate(ctx, append([]Region{RegionOrders}, productRegions...)...)
	s.publish(RoutingOrderPlaced, order)
	return order, nil
}

// GetUserOrders returns the orders placed by user, newest first.
func (s *OrderService) GetUserOrders(ctx context.Context, user *models.Principal) ([]models.Order, error) {
	return GetOrCompute(ctx, s.cache, RegionOrders, "user:"+user.UserID, func(ctx context.Context) ([]models.Order, error) {
		return s.orderRepo.ListByUser(ctx, user.UserID)
	})
}

// GetAllOrders returns one page of all orders.
func (s *OrderService) GetAllOrders(ctx context.Context, q models.PageQuery) (models.Page[models.Order], error) {
	return GetOrCompute(ctx, s.cache, RegionOrders, "all:"+q.CacheKey(), func(ctx context.Context) (models.Page[models.Order], error) {
		orders, total, err := s.orderRepo.List(ctx, q)
		if err != nil {
			return models.Page[models.Order]{}, err
		}
		return models.NewPage(orders, q, total), nil
	})
}

// UpdateOrderStatus updates the status of an existing order.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, status string) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("invalid order status %q: %w", status, models.ErrValidation)
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("failed to update order status for order %s: %w", id, err)
	}
	s.cache.Invalidate(ctx, RegionOrders)

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(RoutingOrderStatusShift, order)
	return order, nil
}

// publish emits an order event. Delivery failures are logged; the order itself is already committed.
func (s *OrderService) publish(routingKey string, order *models.Order) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(OrderEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		Email:      order.Email,
		Status:     order.Status,
		Total:      order.TotalAmount,
		Items:      len(order.Items),
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Error("failed to marshal order event", slog.String("order_id", order.ID), slog.String("error", err.Error()))
		return
	}
	if err := s.events.Publish(EventsExchange, routingKey, body); err != nil {
		slog.Warn("failed to publish order event",
			slog.String("order_id", order.ID),
			slog.String("routing_key", routingKey),
			slog.String("error", err.Error()))
		return
	}
	slog.Info("order event published", slog.String("order_id", order.ID), slog.String("routing_key", routingKey))
}

// HandleOrderEvent reacts to an order event published by any instance: the owner's cached order
// list is dropped so that instances with a process-local cache converge.
func (s *OrderService) HandleOrderEvent(ctx context.Context, routingKey string, body []byte) error {
	var event OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("malformed order event: %w", err)
	}
	if event.OrderID == "" || event.UserID == "" {
		return fmt.Errorf("order event without order or user: %w", models.ErrValidation)
	}
	slog.Info("order event received",
		slog.String("routing_key", routingKey),
		slog.String("order_id", event.OrderID),
		slog.String("status", event.Status),
	)
	s.cache.InvalidateKey(ctx, RegionOrders, "user:"+event.UserID)
	return nil
}
