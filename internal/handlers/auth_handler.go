package handlers

import (
	"log/slog"
	"time"

	"ecom/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CookieConfig describes the session cookie carrying the token.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService   *services.AuthService
	cookie        CookieConfig
	signinLimiter fiber.Handler
	validate      *validator.Validate
}

// NewAuthHandler creates a new AuthHandler. signinLimiter throttles sign-in attempts and may be nil.
func NewAuthHandler(authService *services.AuthService, cookie CookieConfig, signinLimiter fiber.Handler) *AuthHandler {
	if signinLimiter == nil {
		signinLimiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	return &AuthHandler{
		authService:   authService,
		cookie:        cookie,
		signinLimiter: signinLimiter,
		validate:      validator.New(),
	}
}

// RegisterRoutes registers the authentication and account administration routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/signup", h.HandleSignup)
	authRoutes.Post("/signin", h.signinLimiter, h.HandleSignin)
	authRoutes.Post("/signout", h.HandleSignout)
	authRoutes.Get("/user", h.HandleCurrentUser)
	authRoutes.Get("/username", h.HandleCurrentUsername)

	router.Get("/admin/users", h.HandleListUsers)
	router.Get("/admin/sellers", h.HandleListSellers)
}

// HandleSignup handles new user registration.
func (h *AuthHandler) HandleSignup(c *fiber.Ctx) error {
	var req services.SignupRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.authService.RegisterUser(c.UserContext(), req)
	if err != nil {
		slog.Info("registration rejected", slog.String("username", req.Username), slog.String("error", err.Error()))
		return respondError(c, err, "Registration failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleSignin authenticates a user, sets the token cookie and returns the token with the user's identity.
func (h *AuthHandler) HandleSignin(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	token, principal, err := h.authService.LoginUser(c.UserContext(), req.Username, req.Password)
	if err != nil {
		slog.Info("sign-in failed", slog.String("username", req.Username), slog.String("ip", c.IP()))
		return respondError(c, err, "Bad credentials")
	}

	c.Cookie(h.sessionCookie(token, h.cookie.MaxAge))
	return c.JSON(fiber.Map{
		"id":       principal.UserID,
		"username": principal.Username,
		"email":    principal.Email,
		"roles":    principal.Roles,
		"token":    token,
	})
}

// HandleSignout expires the token cookie. The token itself stays valid until it expires.
func (h *AuthHandler) HandleSignout(c *fiber.Ctx) error {
	c.Cookie(h.sessionCookie("", 0))
	return c.JSON(fiber.Map{
		"message": "You've been signed out!",
	})
}

func (h *AuthHandler) sessionCookie(value string, maxAge time.Duration) *fiber.Cookie {
	cookie := &fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/api",
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if maxAge > 0 {
		cookie.MaxAge = int(maxAge / time.Second)
		cookie.Expires = time.Now().Add(maxAge)
	} else {
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
	}
	return cookie
}

// HandleCurrentUser returns the authenticated principal.
func (h *AuthHandler) HandleCurrentUser(c *fiber.Ctx) error {
	p, err := currentPrincipal(c)
	if p == nil {
		return err
	}
	return c.JSON(p)
}

// HandleCurrentUsername returns the authenticated username as plain text.
func (h *AuthHandler) HandleCurrentUsername(c *fiber.Ctx) error {
	p, err := currentPrincipal(c)
	if p == nil {
		return err
	}
	return c.SendString(p.Username)
}

// HandleListUsers returns one page of all accounts.
func (h *AuthHandler) HandleListUsers(c *fiber.Ctx) error {
	page, err := h.authService.ListUsers(c.UserContext(), pageQuery(c, "username"))
	if err != nil {
		return respondError(c, err, "Could not retrieve users")
	}
	return c.JSON(page)
}

// HandleListSellers returns one page of the accounts holding the SELLER role.
func (h *AuthHandler) HandleListSellers(c *fiber.Ctx) error {
	page, err := h.authService.ListSellers(c.UserContext(), pageQuery(c, "username"))
	if err != nil {
		return respondError(c, err, "Could not retrieve sellers")
	}
	return c.JSON(page)
}
