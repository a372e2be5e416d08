package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ecom/internal/models"

	"github.com/gofiber/fiber/v2"
)

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	Validate(token string) bool
	SubjectOf(token string) (string, error)
}

// PrincipalLoader resolves a username to its principal.
type PrincipalLoader interface {
	LoadByUsername(ctx context.Context, username string) (*models.Principal, error)
}

// Authenticate resolves the request's token to a principal and attaches it to the user context.
// The cookie named cookieName is consulted first, then the Authorization header. Requests without
// a usable token continue anonymously; Authorize decides whether that is acceptable.
func Authenticate(tokens TokenValidator, users PrincipalLoader, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := tokenFromRequest(c, cookieName); token != "" {
			if p := resolve(c, tokens, users, token); p != nil {
				c.SetUserContext(WithPrincipal(c.UserContext(), p))
			}
		}
		return c.Next()
	}
}

// tokenFromRequest returns the first non-empty candidate token.
func tokenFromRequest(c *fiber.Ctx, cookieName string) string {
	if token := strings.TrimSpace(c.Cookies(cookieName)); token != "" {
		return token
	}
	authHeader := c.Get(fiber.HeaderAuthorization)
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func resolve(c *fiber.Ctx, tokens TokenValidator, users PrincipalLoader, token string) (p *models.Principal) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("cannot set user authentication",
				slog.String("path", c.Path()),
				slog.String("panic", fmt.Sprint(r)),
			)
			p = nil
		}
	}()

	if !tokens.Validate(token) {
		return nil
	}
	username, err := tokens.SubjectOf(token)
	if err != nil {
		return nil
	}
	p, err = users.LoadByUsername(c.UserContext(), username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			slog.Warn("token subject no longer exists", slog.String("username", username))
		} else {
			slog.Error("cannot set user authentication",
				slog.String("username", username),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
	return p
}
