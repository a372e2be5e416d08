package handlers

import (
	"ecom/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// StatusRequest is the body of order status updates.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/order/users/payments/:method", h.HandlePlaceOrder)
	router.Get("/orders/users", h.HandleGetUserOrders)
	router.Get("/admin/orders", h.HandleGetOrders)
	router.Put("/admin/orders/:id/status", h.HandleUpdateOrderStatus)
	router.Put("/seller/orders/:id/status", h.HandleUpdateOrderStatus)
}

// HandlePlaceOrder turns the caller's cart into an order.
func (h *OrderHandler) HandlePlaceOrder(c *fiber.Ctx) error {
	p, err := currentPrincipal(c)
	if p == nil {
		return err
	}
	var req services.PlaceOrderRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}
	order, err := h.service.PlaceOrder(c.UserContext(), p, c.Params("method"), req)
	if err != nil {
		return respondError(c, err, "Could not place order")
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetUserOrders returns the caller's orders.
func (h *OrderHandler) HandleGetUserOrders(c *fiber.Ctx) error {
	p, err := currentPrincipal(c)
	if p == nil {
		return err
	}
	orders, err := h.service.GetUserOrders(c.UserContext(), p)
	if err != nil {
		return respondError(c, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleGetOrders returns one page of all orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	page, err := h.service.GetAllOrders(c.UserContext(), pageQuery(c, "created_at"))
	if err != nil {
		return respondError(c, err, "Could not retrieve orders")
	}
	return c.JSON(page)
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req StatusRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}
	order, err := h.service.UpdateOrderStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, err, "Could not update order status")
	}
	return c.JSON(order)
}
