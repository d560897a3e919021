package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_shop/internal/app"
	"github.com/fjod/go_shop/internal/cart"
	"github.com/fjod/go_shop/internal/config"
	"github.com/fjod/go_shop/pkg/logger"
)

const salesID = 100

type testServer struct {
	t       *testing.T
	handler http.Handler
	svc     *app.Services
}

func newTestServer(t *testing.T) *testServer {
	ctx := context.Background()
	log := logger.Discard()

	db, err := app.OpenDatabase(ctx, config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "shop.db"),
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := app.NewServices(db, cart.NopCache{}, config.AuthConfig{
		JWTSecret:      "test-secret-test-secret-test-secret",
		JWTIssuer:      "go_shop",
		AccessTokenTTL: time.Hour,
	}, log)
	require.NoError(t, svc.Auth.EnsureSalesperson(ctx, salesID, "staffpass"))

	handler := NewRouter(Deps{
		Auth:      svc.Auth,
		Sessions:  svc.Auth,
		Tokens:    svc.Tokens,
		Catalog:   svc.Catalog,
		Inventory: svc.Inventory,
		Cart:      svc.Cart,
		Orders:    svc.Orders,
		Reports:   svc.Reports,
	}, config.ServerConfig{RequestTimeout: 5 * time.Second, MaxBodyBytes: 1 << 20}, log)

	return &testServer{t: t, handler: handler, svc: svc}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func (s *testServer) signupAndLogin(name, email string) string {
	s.t.Helper()

	rec := s.do(http.MethodPost, "/api/v1/auth/signup", "", SignupRequestDTO{Name: name, Email: email, Password: "secret"})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[map[string]int64](s.t, rec)["user_id"]

	return s.login(id, "secret")
}

func (s *testServer) login(id int64, password string) string {
	s.t.Helper()

	rec := s.do(http.MethodPost, "/api/v1/auth/login", "", LoginRequestDTO{UserID: id, Password: password})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[LoginResponseDTO](s.t, rec).Token
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuth_LoginFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/auth/signup", "", SignupRequestDTO{Name: "Ada", Email: "ada@example.com", Password: "secret"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[map[string]int64](t, rec)["user_id"]

	rec = s.do(http.MethodPost, "/api/v1/auth/signup", "", SignupRequestDTO{Name: "Ada", Email: "ADA@example.com", Password: "x"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_exists", decode[ErrorResponse](t, rec).Code)

	rec = s.do(http.MethodPost, "/api/v1/auth/login", "", LoginRequestDTO{UserID: id, Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/auth/login", "", LoginRequestDTO{UserID: id, Password: "secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[LoginResponseDTO](t, rec)
	assert.Equal(t, id, login.UserID)
	assert.Equal(t, int64(1), login.SessionNo)
	assert.NotEmpty(t, login.Token)
}

func TestAuth_LogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin("Ada", "ada@example.com")

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/cart", token, nil).Code)

	rec := s.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/cart", token, nil).Code)
}

func TestAuth_RejectsBadTokens(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/cart", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/cart", "garbage", nil).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProducts_ListAndSearch(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/products?page=3", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[struct {
		Items []struct {
			ID int64 `json:"id"`
		} `json:"items"`
		Page       int `json:"page"`
		TotalPages int `json:"total_pages"`
		TotalItems int `json:"total_items"`
	}](t, rec)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 15, page.TotalItems)
	require.Len(t, page.Items, 5)
	assert.Equal(t, int64(11), page.Items[0].ID)

	token := s.signupAndLogin("Ada", "ada@example.com")
	rec = s.do(http.MethodGet, "/api/v1/products?q=cream+sensitive", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_items":2`)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/products?page=zero", "", nil).Code)
}

func TestProducts_Get(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/products/10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ice Cream Maker")

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/products/999", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/products/abc", "", nil).Code)
}

func TestCart_AndCheckout(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin("Ada", "ada@example.com")

	rec := s.do(http.MethodPost, "/api/v1/cart/items", token, AddItemRequestDTO{ProductID: 10, Quantity: intPtr(2)})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(http.MethodPost, "/api/v1/cart/items", token, AddItemRequestDTO{ProductID: 1, Quantity: intPtr(1)})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":"165.97"`)

	rec = s.do(http.MethodPost, "/api/v1/cart/items", token, AddItemRequestDTO{ProductID: 1, Quantity: intPtr(0)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_quantity", decode[ErrorResponse](t, rec).Code)

	rec = s.do(http.MethodPut, "/api/v1/cart/items/10", token, UpdateQuantityRequestDTO{Quantity: 16})
	require.Equal(t, http.StatusConflict, rec.Code)
	errResp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "insufficient_stock", errResp.Code)
	assert.Equal(t, map[string]any{"product_id": 10.0, "requested": 16.0, "available": 15.0}, errResp.Details)

	rec = s.do(http.MethodPut, "/api/v1/cart/items/7", token, UpdateQuantityRequestDTO{Quantity: 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, "/api/v1/cart/items/1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":"159.98"`)

	rec = s.do(http.MethodPost, "/api/v1/checkout", token, CheckoutRequestDTO{ShippingAddress: " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/checkout", token, CheckoutRequestDTO{ShippingAddress: "12 Elm Street"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"order_id":1,"total":"159.98"}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/v1/checkout", token, CheckoutRequestDTO{ShippingAddress: "12 Elm Street"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "empty_cart", decode[ErrorResponse](t, rec).Code)

	rec = s.do(http.MethodGet, "/api/v1/orders", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_items":1`)

	rec = s.do(http.MethodGet, "/api/v1/orders/1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"product_name":"Ice Cream Maker"`)
}

func TestCart_AddItemDefaultsQuantity(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin("Ada", "ada@example.com")

	rec := s.do(http.MethodPost, "/api/v1/cart/items", token, map[string]any{"product_id": 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"quantity":1`)

	rec = s.do(http.MethodPost, "/api/v1/cart/items", token, map[string]any{"product_id": 2, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_quantity", decode[ErrorResponse](t, rec).Code)

	rec = s.do(http.MethodPost, "/api/v1/cart/items", token, map[string]any{"product_id": 2, "quantity": -3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func intPtr(n int) *int { return &n }

func TestOrders_HiddenFromOtherCustomers(t *testing.T) {
	s := newTestServer(t)
	ada := s.signupAndLogin("Ada", "ada@example.com")
	bob := s.signupAndLogin("Bob", "bob@example.com")

	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/cart/items", ada, AddItemRequestDTO{ProductID: 2, Quantity: intPtr(1)}).Code)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/checkout", ada, CheckoutRequestDTO{ShippingAddress: "x"}).Code)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/orders/1", bob, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/orders/2", ada, nil).Code)
}

func TestAdmin_RequiresSalesperson(t *testing.T) {
	s := newTestServer(t)
	customer := s.signupAndLogin("Ada", "ada@example.com")
	staff := s.login(salesID, "staffpass")

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/admin/reports/weekly", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/admin/reports/weekly", customer, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/cart", staff, nil).Code)

	rec := s.do(http.MethodGet, "/api/v1/admin/reports/weekly", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"orders":0`)

	rec = s.do(http.MethodGet, "/api/v1/admin/reports/top-products", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"by_orders":[],"by_views":[]}`, rec.Body.String())
}

func TestAdmin_UpdateProduct(t *testing.T) {
	s := newTestServer(t)
	staff := s.login(salesID, "staffpass")

	rec := s.do(http.MethodPut, "/api/v1/admin/products/3/price", staff, map[string]string{"price": "44.50"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"price":"44.5"`)

	rec = s.do(http.MethodPut, "/api/v1/admin/products/3/price", staff, map[string]string{"price": "-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/api/v1/admin/products/3/stock", staff, map[string]int{"stock_count": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stock_count":0`)

	rec = s.do(http.MethodPut, "/api/v1/admin/products/3/stock", staff, map[string]int{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/admin/products/99", staff, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestBodyLimit(t *testing.T) {
	s := newTestServer(t)
	big := map[string]string{"name": string(bytes.Repeat([]byte("a"), 2<<20))}
	rec := s.do(http.MethodPost, "/api/v1/auth/signup", "", big)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
