package handlers

import (
	"ecom/internal/models"
	"ecom/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AddressHandler handles HTTP requests for shipping addresses.
type AddressHandler struct {
	service  *services.AddressService
	validate *validator.Validate
}

// NewAddressHandler creates a new AddressHandler.
func NewAddressHandler(service *services.AddressService) *AddressHandler {
	return &AddressHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the address routes.
func (h *AddressHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/users/addresses", h.HandleListAddresses)
	router.Post("/addresses", h.HandleCreateAddress)
	router.Get("/addresses/:id", h.HandleGetAddress)
	router.Put("/addresses/:id", h.HandleUpdateAddress)
	router.Delete("/addresses/:id", h.HandleDeleteAddress)
}

// HandleListAddresses returns the caller's addresses.
func (h *AddressHandler) HandleListAddresses(c *fiber.Ctx) error {
	p, err := currentPrincipal(c)
	if p == nil {
		return err
	}
	addresses, err := h.service.ListAddresses(c.UserContext(), p)
	if err != nil {
		return respondError(c, err, "Could not retrieve addresses")
	}
	return c.JSON(addresses)
}

// HandleGetAddress returns one of the caller's addresses.
func (h *AddressHandler) HandleGetAddress(c *fiber.Ctx) error {
	p, err := currentPrincipal(c)
	if p == nil {
		return err
	}
	address, err := h.service.Owned(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve address")
	}
	return c.JSON(address)
}

// HandleCreateAddress stores a new address for the caller.
func (h *AddressHandler) HandleCreateAddress(c *fiber.Ctx) error {
	p, err := currentPrincipal(c)
	if p == nil {
		return err
	}
	var in models.Address
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}
	address, err := h.service.CreateAddress(c.UserContext(), p, in)
	if err != nil {
		return respondError(c, err, "Could not create address")
	}
	return c.Status(fiber.StatusCreated).JSON(address)
}

// HandleUpdateAddress replaces one of the caller's addresses.
func (h *AddressHandler) HandleUpdateAddress(c *fiber.Ctx) error {
	p, err := currentPrincipal(c)
	if p == nil {
		return err
	}
	var in models.Address
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}
	address, err := h.service.UpdateAddress(c.UserContext(), p, c.Params("id"), in)
	if err != nil {
		return respondError(c, err, "Could not update address")
	}
	return c.JSON(address)
}

// HandleDeleteAddress removes one of the caller's addresses.
func (h *AddressHandler) HandleDeleteAddress(c *fiber.Ctx) error {
	p, err := currentPrincipal(c)
	if p == nil {
		return err
	}
	if err := h.service.DeleteAddress(c.UserContext(), p, c.Params("id")); err != nil {
		return respondError(c, err, "Could not delete address")
	}
	return c.JSON(fiber.Map{
		"message": "Address deleted successfully",
	})
}
