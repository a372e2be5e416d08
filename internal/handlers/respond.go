package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"ecom/internal/middleware"
	"ecom/internal/models"
	"ecom/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Listing defaults.
const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// statusFromError maps domain errors to HTTP status codes.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, services.ErrUnknownRegion):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInsufficientStock):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, models.ErrInvalidCredentials), errors.Is(err, models.ErrInvalidToken):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err with the status it maps to. Authentication and authorization
// failures share the security error body; server errors are logged. Neither exposes err.
func respondError(c *fiber.Ctx, err error, message string) error {
	status := statusFromError(err)
	switch status {
	case fiber.StatusUnauthorized, fiber.StatusForbidden:
		slog.Info(message,
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		return middleware.WriteError(c, status, message)
	case fiber.StatusInternalServerError:
		slog.Error(message,
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		return c.Status(status).JSON(fiber.Map{
			"message": message,
		})
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

// bind parses the request body into dst and validates it. When it reports false the 400
// response has already been written and the handler should return the error as is.
func bind(c *fiber.Ctx, validate *validator.Validate, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return false, respondError(c, err, "Validation failed")
		}
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return true, nil
}

// pageQuery reads pageNumber, pageSize, sortBy and sortOrder from the query string.
func pageQuery(c *fiber.Ctx, defaultSort string) models.PageQuery {
	q := models.PageQuery{
		Page:    c.QueryInt("pageNumber", 0),
		Size:    c.QueryInt("pageSize", defaultPageSize),
		SortBy:  c.Query("sortBy", defaultSort),
		SortDir: c.Query("sortOrder", "asc"),
	}
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Size <= 0 || q.Size > maxPageSize {
		q.Size = defaultPageSize
	}
	if q.SortDir != "desc" {
		q.SortDir = "asc"
	}
	return q
}

// currentPrincipal returns the authenticated principal. Routes reaching it are protected by the
// authorization policy; should the principal still be missing, a 401 is written and nil returned.
func currentPrincipal(c *fiber.Ctx) (*models.Principal, error) {
	p := middleware.PrincipalFromContext(c.UserContext())
	if p == nil {
		return nil, middleware.WriteError(c, fiber.StatusUnauthorized, "Full authentication is required to access this resource")
	}
	return p, nil
}

func paramInt(c *fiber.Ctx, name string) (int, error) {
	v, err := strconv.Atoi(c.Params(name))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, models.ErrValidation)
	}
	return v, nil
}
