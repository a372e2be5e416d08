package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ecom/internal/middleware"
	"ecom/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cookieName = "ecom_token"

// fakeTokens treats "valid-<username>" as a valid token for username.
type fakeTokens struct{}

func (fakeTokens) Validate(token string) bool {
	_, err := fakeTokens{}.SubjectOf(token)
	return err == nil
}

func (fakeTokens) SubjectOf(token string) (string, error) {
	var username string
	if _, err := fmt.Sscanf(token, "valid-%s", &username); err != nil {
		return "", models.ErrInvalidToken
	}
	return username, nil
}

type fakeUsers map[string]*models.Principal

func (f fakeUsers) LoadByUsername(_ context.Context, username string) (*models.Principal, error) {
	if username == "panic" {
		panic("boom")
	}
	if username == "broken" {
		return nil, errors.New("database unavailable")
	}
	p, ok := f[username]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", username, models.ErrNotFound)
	}
	return p, nil
}

var testUsers = fakeUsers{
	"alice":  {UserID: "1", Username: "alice", Roles: []string{models.RoleUser}},
	"seller": {UserID: "2", Username: "seller", Roles: []string{models.RoleUser, models.RoleSeller}},
	"root":   {UserID: "3", Username: "root", Roles: []string{models.RoleAdmin}},
}

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler, CaseSensitive: true})
	app.Use(middleware.Authenticate(fakeTokens{}, testUsers, cookieName))
	app.Use(middleware.Authorize(middleware.DefaultPolicy(), nil))
	whoami := func(c *fiber.Ctx) error {
		p := middleware.PrincipalFromContext(c.UserContext())
		if p == nil {
			return c.SendString("anonymous")
		}
		return c.SendString(p.Username)
	}
	app.All("/*", whoami)
	return app
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func withBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func withCookie(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	return req
}

func TestAuthenticate_TokenSources(t *testing.T) {
	app := newApp()

	tests := []struct {
		name string
		req  *http.Request
		want string
	}{
		{"no token", httptest.NewRequest("GET", "/api/public/products", nil), "anonymous"},
		{"bearer", withBearer(httptest.NewRequest("GET", "/api/public/products", nil), "valid-alice"), "alice"},
		{"cookie", withCookie(httptest.NewRequest("GET", "/api/public/products", nil), "valid-alice"), "alice"},
		{
			"cookie wins over header",
			withBearer(withCookie(httptest.NewRequest("GET", "/api/public/products", nil), "valid-seller"), "valid-alice"),
			"seller",
		},
		{"invalid token", withBearer(httptest.NewRequest("GET", "/api/public/products", nil), "forged"), "anonymous"},
		{"unknown user", withBearer(httptest.NewRequest("GET", "/api/public/products", nil), "valid-ghost"), "anonymous"},
		{"lookup failure", withBearer(httptest.NewRequest("GET", "/api/public/products", nil), "valid-broken"), "anonymous"},
		{"panic in lookup", withBearer(httptest.NewRequest("GET", "/api/public/products", nil), "valid-panic"), "anonymous"},
		{"non bearer scheme", func() *http.Request {
			r := httptest.NewRequest("GET", "/api/public/products", nil)
			r.Header.Set("Authorization", "Basic dmFsaWQtYWxpY2U=")
			return r
		}(), "anonymous"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, tt.req)
			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, tt.want, body)
		})
	}
}

func TestAuthorize_DefaultPolicy(t *testing.T) {
	app := newApp()

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"public catalog", "GET", "/api/public/products", "", 200},
		{"signin", "POST", "/api/auth/signin", "", 200},
		{"docs root", "GET", "/api/docs", "", 200},
		{"health", "GET", "/health", "", 200},
		{"preflight anywhere", "OPTIONS", "/api/admin/users", "", 200},
		{"current user anonymous", "GET", "/api/auth/user", "", 401},
		{"cart anonymous", "GET", "/api/carts/users/cart", "", 401},
		{"cart user", "GET", "/api/carts/users/cart", "valid-alice", 200},
		{"admin anonymous", "GET", "/api/admin/users", "", 401},
		{"admin as user", "GET", "/api/admin/users", "valid-alice", 403},
		{"admin as admin", "GET", "/api/admin/users", "valid-root", 200},
		{"cache as seller", "DELETE", "/api/cache/all", "valid-seller", 403},
		{"cache as admin", "DELETE", "/api/cache/all", "valid-root", 200},
		{"seller as user", "GET", "/api/seller/products", "valid-alice", 403},
		{"seller as seller", "GET", "/api/seller/products", "valid-seller", 200},
		{"seller as admin", "GET", "/api/seller/products", "valid-root", 200},
		{"similar prefix is not public", "GET", "/api/publicity", "", 401},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				withBearer(req, tt.token)
			}
			status, _ := do(t, app, req)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestAuthorize_ErrorBody(t *testing.T) {
	app := newApp()

	status, body := do(t, app, httptest.NewRequest("GET", "/api/orders/users", nil))
	require.Equal(t, http.StatusUnauthorized, status)

	var got middleware.ErrorBody
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, 401, got.Status)
	assert.Equal(t, "Unauthorized", got.Error)
	assert.Equal(t, "/api/orders/users", got.Path)
	assert.NotEmpty(t, got.Message)
}

func TestPolicy_Match(t *testing.T) {
	p := middleware.Policy{
		{Pattern: "/api/items/*/reviews", Access: middleware.Public},
		{Method: "GET", Pattern: "/api/items/**", Access: middleware.Public},
	}

	_, ok := p.Match("POST", "/api/items/42/reviews")
	assert.True(t, ok)
	_, ok = p.Match("POST", "/api/items/42/reviews/7")
	assert.False(t, ok)
	_, ok = p.Match("GET", "/api/items/42/reviews/7")
	assert.True(t, ok)
	_, ok = p.Match("GET", "/api/items")
	assert.True(t, ok)
	rule, ok := p.Match("DELETE", "/api/items/42")
	assert.False(t, ok)
	assert.Equal(t, middleware.Authenticated, rule.Access)
}

func TestErrorHandler_HidesInternals(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("pq: relation \"users\" does not exist") })
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })

	status, body := do(t, app, httptest.NewRequest("GET", "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, body, "relation")

	status, body = do(t, app, httptest.NewRequest("GET", "/teapot", nil))
	assert.Equal(t, http.StatusTeapot, status)
	assert.Contains(t, body, "short and stout")
}

func TestRateLimiter(t *testing.T) {
	rl := middleware.NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	app := fiber.New()
	app.Post("/signin", rl.Handler(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 2; i++ {
		status, _ := do(t, app, httptest.NewRequest("POST", "/signin", nil))
		assert.Equal(t, http.StatusOK, status)
	}
	resp, err := app.Test(httptest.NewRequest("POST", "/signin", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "30", resp.Header.Get("Retry-After"))
	assert.Equal(t, 1, rl.Len())
}

func TestCORS_Preflight(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.CORS("http://localhost:5173"))
	app.Get("/api/public/products", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest("OPTIONS", "/api/public/products", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest("OPTIONS", "/api/public/products", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
