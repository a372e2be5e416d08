package handlers

import (
	"ecom/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for shopping carts.
type CartHandler struct {
	service *services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service: service,
	}
}

// RegisterRoutes registers the cart routes.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/carts/users/cart", h.HandleGetCart)
	router.Post("/carts/products/:id/quantity/:qty", h.HandleAddProduct)
	router.Put("/cart/products/:id/quantity/:op", h.HandleUpdateQuantity)
	router.Delete("/carts/product/:id", h.HandleRemoveProduct)
	router.Get("/admin/carts", h.HandleGetAllCarts)
}

// HandleGetCart returns the caller's cart.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	p, err := currentPrincipal(c)
	if p == nil {
		return err
	}
	cart, err := h.service.GetCart(c.UserContext(), p)
	if err != nil {
		return respondError(c, err, "Could not retrieve cart")
	}
	return c.JSON(cart)
}

// HandleAddProduct puts a product into the caller's cart.
func (h *CartHandler) HandleAddProduct(c *fiber.Ctx) error {
	p, err := currentPrincipal(c)
	if p == nil {
		return err
	}
	qty, err := paramInt(c, "qty")
	if err != nil {
		return respondError(c, err, "Invalid quantity")
	}
	cart, err := h.service.AddProduct(c.UserContext(), p, c.Params("id"), qty)
	if err != nil {
		return respondError(c, err, "Could not add product to cart")
	}
	return c.Status(fiber.StatusCreated).JSON(cart)
}

// HandleUpdateQuantity adds or removes one unit of a product in the caller's cart.
func (h *CartHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	p, err := currentPrincipal(c)
	if p == nil {
		return err
	}
	cart, err := h.service.UpdateQuantity(c.UserContext(), p, c.Params("id"), c.Params("op"))
	if err != nil {
		return respondError(c, err, "Could not update cart")
	}
	return c.JSON(cart)
}

// HandleRemoveProduct removes a product from the caller's cart.
func (h *CartHandler) HandleRemoveProduct(c *fiber.Ctx) error {
	p, err := currentPrincipal(c)
	if p == nil {
		return err
	}
	cart, err := h.service.RemoveProduct(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not remove product from cart")
	}
	return c.JSON(cart)
}

// HandleGetAllCarts returns every cart.
func (h *CartHandler) HandleGetAllCarts(c *fiber.Ctx) error {
	carts, err := h.service.GetAllCarts(c.UserContext())
	if err != nil {
		return respondError(c, err, "Could not retrieve carts")
	}
	return c.JSON(carts)
}
