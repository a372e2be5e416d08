package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// ErrorBody is the JSON shape of every security and unhandled error response.
type ErrorBody struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

// WriteError writes an ErrorBody with the given status.
func WriteError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorBody{
		Status:  status,
		Error:   utils.StatusMessage(status),
		Message: message,
		Path:    c.Path(),
	})
}

// ErrorHandler is the application's fiber.ErrorHandler. Internal details never reach the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return WriteError(c, fe.Code, fe.Message)
	}
	slog.Error("unhandled error",
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return WriteError(c, fiber.StatusInternalServerError, "An unexpected error occurred")
}
