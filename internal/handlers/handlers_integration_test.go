package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ecom/internal/config"
	"ecom/internal/database"
	"ecom/internal/models"
	"ecom/internal/server"
	"ecom/pkg/cache"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cookieName = "ecom_token"

type testEnv struct {
	t     *testing.T
	app   *fiber.App
	srv   *server.Server
	store *cache.MemoryStore
}

// setupApp assembles the application over an in-memory SQLite database and an in-process cache.
func setupApp(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { database.Close(db) })

	store := cache.NewMemoryStore()
	srv := server.New(server.Deps{
		Config: &config.Config{
			JWTSecret:           "test_jwt_secret",
			JWTExpiration:       time.Hour,
			JWTCookieName:       cookieName,
			FrontendURL:         "http://localhost:5173",
			SignInRatePerMinute: 1000,
		},
		DB:       db,
		Store:    store,
		Registry: prometheus.NewRegistry(),
	})
	t.Cleanup(func() { srv.Shutdown() })

	require.NoError(t, srv.Auth.EnsureAdmin(context.Background(), "root", "root@example.com", "rootpassword"))
	return &testEnv{t: t, app: srv.App, srv: srv, store: store}
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r response) json(t *testing.T) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

func (e *testEnv) do(method, path string, body interface{}, token string) response {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.send(req)
}

func (e *testEnv) send(req *http.Request) response {
	e.t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return response{status: resp.StatusCode, header: resp.Header, body: data}
}

func (e *testEnv) signup(username string, roles ...string) {
	e.t.Helper()
	resp := e.do(http.MethodPost, "/api/auth/signup", map[string]interface{}{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
		"roles":    roles,
	}, "")
	require.Equal(e.t, http.StatusCreated, resp.status, string(resp.body))
}

func (e *testEnv) signin(username, password string) string {
	e.t.Helper()
	resp := e.do(http.MethodPost, "/api/auth/signin", map[string]string{
		"username": username,
		"password": password,
	}, "")
	require.Equal(e.t, http.StatusOK, resp.status, string(resp.body))
	token, _ := resp.json(e.t)["token"].(string)
	require.NotEmpty(e.t, token)
	return token
}

func TestAuthSignupAndSignin(t *testing.T) {
	env := setupApp(t)

	env.signup("testuser")

	// Duplicate registration
	resp := env.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "testuser", "email": "other@example.com", "password": "password123",
	}, "")
	assert.Equal(t, http.StatusConflict, resp.status)

	// Invalid body
	resp = env.do(http.MethodPost, "/api/auth/signup", map[string]string{"username": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "Validation failed", resp.json(t)["message"])

	// Wrong password
	resp = env.do(http.MethodPost, "/api/auth/signin", map[string]string{
		"username": "testuser", "password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.status)
	assert.Equal(t, map[string]interface{}{
		"status":  float64(401),
		"error":   "Unauthorized",
		"message": "Bad credentials",
		"path":    "/api/auth/signin",
	}, resp.json(t))

	resp = env.do(http.MethodPost, "/api/auth/signin", map[string]string{
		"username": "testuser", "password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, resp.status)
	body := resp.json(t)
	assert.Equal(t, "testuser", body["username"])
	assert.Equal(t, []interface{}{"USER"}, body["roles"])

	cookie := resp.header.Get("Set-Cookie")
	assert.Contains(t, cookie, cookieName+"=")
	assert.Contains(t, strings.ToLower(cookie), "httponly")
	assert.Contains(t, strings.ToLower(cookie), "samesite=lax")

	token := body["token"].(string)
	resp = env.do(http.MethodGet, "/api/auth/username", nil, token)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "testuser", string(resp.body))

	resp = env.do(http.MethodPost, "/api/auth/signout", nil, "")
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Contains(t, resp.header.Get("Set-Cookie"), cookieName+"=;")
}

func TestSecurityBoundaries(t *testing.T) {
	env := setupApp(t)
	env.signup("alice")
	userToken := env.signin("alice", "password123")
	adminToken := env.signin("root", "rootpassword")

	// Public catalog needs no token.
	resp := env.do(http.MethodGet, "/api/public/products", nil, "")
	assert.Equal(t, http.StatusOK, resp.status)

	// Protected path without a token.
	resp = env.do(http.MethodGet, "/api/auth/user", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.status)
	errBody := resp.json(t)
	assert.Equal(t, float64(401), errBody["status"])
	assert.Equal(t, "/api/auth/user", errBody["path"])

	// Garbage token is treated as no token.
	resp = env.do(http.MethodGet, "/api/auth/user", nil, "not.a.token")
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	// Admin path with a USER token.
	resp = env.do(http.MethodGet, "/api/admin/users", nil, userToken)
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = env.do(http.MethodGet, "/api/admin/users", nil, adminToken)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, float64(2), resp.json(t)["total_elements"])

	// Seller path with a USER token.
	resp = env.do(http.MethodGet, "/api/seller/products", nil, userToken)
	assert.Equal(t, http.StatusForbidden, resp.status)

	// Cookie takes precedence over the Authorization header.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: adminToken})
	req.Header.Set("Authorization", "Bearer "+userToken)
	resp = env.send(req)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "root", resp.json(t)["username"])

	// Health and docs are public.
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health", nil, "").status)
	resp = env.do(http.MethodGet, "/api/docs", nil, "")
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Contains(t, string(resp.body), "/api/cache/:region/:key")
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/metrics", nil, "").status)
}

func TestShoppingFlow(t *testing.T) {
	env := setupApp(t)
	env.signup("seller1", "seller")
	env.signup("buyer")
	adminToken := env.signin("root", "rootpassword")
	sellerToken := env.signin("seller1", "password123")
	buyerToken := env.signin("buyer", "password123")

	resp := env.do(http.MethodPost, "/api/admin/categories", map[string]string{"name": "Electronics"}, adminToken)
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	categoryID := resp.json(t)["id"].(string)

	resp = env.do(http.MethodPost, "/api/seller/categories/"+categoryID+"/product", map[string]interface{}{
		"name": "Test Laptop", "description": "For testing purposes", "price": 1000.0, "discount": 10.0, "stock": 5,
	}, sellerToken)
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	product := resp.json(t)
	productID := product["id"].(string)
	assert.Equal(t, 900.0, product["special_price"])

	resp = env.do(http.MethodGet, "/api/public/products/keyword/laptop", nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, float64(1), resp.json(t)["total_elements"])

	resp = env.do(http.MethodGet, "/api/public/categories/"+categoryID+"/products", nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, float64(1), resp.json(t)["total_elements"])

	// Another seller may not touch the listing.
	env.signup("seller2", "seller")
	otherSeller := env.signin("seller2", "password123")
	resp = env.do(http.MethodDelete, "/api/seller/products/"+productID, nil, otherSeller)
	assert.Equal(t, http.StatusForbidden, resp.status)
	assert.Equal(t, map[string]interface{}{
		"status":  float64(403),
		"error":   "Forbidden",
		"message": "Could not delete product",
		"path":    "/api/seller/products/" + productID,
	}, resp.json(t))
	assert.NotContains(t, string(resp.body), "another seller")

	resp = env.do(http.MethodPost, "/api/carts/products/"+productID+"/quantity/2", nil, buyerToken)
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	assert.Equal(t, 1800.0, resp.json(t)["total_price"])

	resp = env.do(http.MethodPost, "/api/carts/products/"+productID+"/quantity/abc", nil, buyerToken)
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = env.do(http.MethodPut, "/api/cart/products/"+productID+"/quantity/add", nil, buyerToken)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, 2700.0, resp.json(t)["total_price"])

	resp = env.do(http.MethodGet, "/api/carts/users/cart", nil, buyerToken)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, 2700.0, resp.json(t)["total_price"])

	resp = env.do(http.MethodPost, "/api/addresses", map[string]string{
		"street": "1 Main Street", "building_name": "Tower", "city": "Springfield",
		"state": "IL", "country": "USA", "pincode": "62701",
	}, buyerToken)
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	addressID := resp.json(t)["id"].(string)

	resp = env.do(http.MethodPost, "/api/order/users/payments/card", map[string]string{
		"address_id": addressID, "pg_name": "stripe", "pg_payment_id": "pi_1", "pg_status": "succeeded",
	}, buyerToken)
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	order := resp.json(t)
	assert.Equal(t, 2700.0, order["total_amount"])
	orderID := order["id"].(string)

	resp = env.do(http.MethodGet, "/api/public/products/"+productID, nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, float64(2), resp.json(t)["stock"])

	resp = env.do(http.MethodGet, "/api/orders/users", nil, buyerToken)
	require.Equal(t, http.StatusOK, resp.status)
	var orders []models.Order
	require.NoError(t, json.Unmarshal(resp.body, &orders))
	require.Len(t, orders, 1)

	resp = env.do(http.MethodPut, "/api/seller/orders/"+orderID+"/status", map[string]string{"status": "shipped"}, sellerToken)
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	assert.Equal(t, "shipped", resp.json(t)["status"])

	resp = env.do(http.MethodPut, "/api/admin/orders/"+orderID+"/status", map[string]string{"status": "lost"}, adminToken)
	assert.Equal(t, http.StatusBadRequest, resp.status)
}

func TestCacheAdministration(t *testing.T) {
	env := setupApp(t)
	adminToken := env.signin("root", "rootpassword")

	resp := env.do(http.MethodGet, "/api/public/categories", nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	require.Positive(t, env.store.Len())

	resp = env.do(http.MethodDelete, "/api/cache/categories", nil, adminToken)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "Category caches cleared successfully", string(resp.body))

	resp = env.do(http.MethodDelete, "/api/cache/productsByKeyword", nil, adminToken)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "Cache 'productsByKeyword' cleared successfully", string(resp.body))

	resp = env.do(http.MethodDelete, "/api/cache/userDetails/root", nil, adminToken)
	assert.Equal(t, http.StatusOK, resp.status)

	resp = env.do(http.MethodDelete, "/api/cache/widgets", nil, adminToken)
	assert.Equal(t, http.StatusNotFound, resp.status)
	assert.Equal(t, float64(404), resp.json(t)["status"])

	// Evict-all leaves nothing behind, including the admin's own identity.
	resp = env.do(http.MethodDelete, "/api/cache/all", nil, adminToken)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "All caches cleared successfully", string(resp.body))
	assert.Equal(t, 0, env.store.Len())
}
