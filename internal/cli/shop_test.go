package cli

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_shop/internal/app"
	"github.com/fjod/go_shop/internal/cart"
	"github.com/fjod/go_shop/internal/config"
	"github.com/fjod/go_shop/pkg/logger"
)

func setupServices(t *testing.T) *app.Services {
	t.Helper()
	ctx := context.Background()

	db, err := app.OpenDatabase(ctx, config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "shop.db")}, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := app.NewServices(db, cart.NopCache{}, config.AuthConfig{
		JWTSecret:      "test-secret-test-secret-test-secret",
		JWTIssuer:      "test",
		AccessTokenTTL: time.Hour,
	}, logger.Discard())
	require.NoError(t, svc.Auth.EnsureSalesperson(ctx, 100, "staffpass"))
	return svc
}

func runShop(t *testing.T, svc *app.Services, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader(strings.Join(lines, "\n")+"\n"), &out)
	shop := NewShop(term, ShopDeps{
		Auth:      svc.Auth,
		Catalog:   svc.Catalog,
		Cart:      svc.Cart,
		Orders:    svc.Orders,
		Inventory: svc.Inventory,
		Reports:   svc.Reports,
	}, logger.Discard())

	require.NoError(t, shop.Run(context.Background()))
	return out.String()
}

func signup(t *testing.T, svc *app.Services) string {
	t.Helper()
	id, err := svc.Auth.Signup(context.Background(), "Ada", "ada@example.com", "secret")
	require.NoError(t, err)
	return fmt.Sprint(id)
}

func TestShop_CustomerCheckout(t *testing.T) {
	svc := setupServices(t)
	uid := signup(t, svc)

	out := runShop(t, svc,
		"1", uid, "secret",
		"1", "playing", "1", "y", "b",
		"2", "u", "1", "3", "c", "1 Main St", "y",
		"3", "1", "b",
		"4",
		"3",
	)

	assert.Contains(t, out, "Login successful! Session #1 started.")
	assert.Contains(t, out, "1. [6] Playing Cards Set - $8.99")
	assert.Contains(t, out, "Added Playing Cards Set to cart.")
	assert.Contains(t, out, "Quantity updated.")
	assert.Contains(t, out, "Total charged: $26.97")
	assert.Contains(t, out, "Playing Cards Set (Games) 3 x $8.99 = $26.97")
	assert.Contains(t, out, "Address: 1 Main St")
	assert.Contains(t, out, "Logged out.")
	assert.Contains(t, out, "Thank you for using our system. Goodbye!")

	orders, err := svc.Orders.ListOrders(context.Background(), 101)
	require.NoError(t, err)
	require.Len(t, orders, 1)
}

func TestShop_SearchPaging(t *testing.T) {
	svc := setupServices(t)
	uid := signup(t, svc)

	out := runShop(t, svc,
		"1", uid, "secret",
		"1", "cream", "n", "p", "99", "b",
		"4", "3",
	)

	assert.Contains(t, out, "Found 7 product(s).")
	assert.Contains(t, out, "--- Page 1 of 2 ---")
	assert.Contains(t, out, "--- Page 2 of 2 ---")
	assert.Contains(t, out, "6. [12] Sunscreen Cream - $16.99")
	assert.Contains(t, out, "Invalid selection.")
}

func TestShop_CartRejectsTooMuchStock(t *testing.T) {
	svc := setupServices(t)
	uid := signup(t, svc)

	out := runShop(t, svc,
		"1", uid, "secret",
		"1", "ice cream maker", "1", "y", "b",
		"2", "u", "1", "16", "r", "1",
		"4", "3",
	)

	assert.Contains(t, out, "Insufficient stock for product 10: requested 16, available 15.")
	assert.Contains(t, out, "Item removed.")
	assert.Contains(t, out, "Your cart is empty.")
}

func TestShop_Salesperson(t *testing.T) {
	svc := setupServices(t)

	out := runShop(t, svc,
		"1", "100", "staffpass",
		"1", "6", "p", "-1", "p", "9.49", "s", "-2", "s", "40", "b",
		"2",
		"3",
		"4", "3",
	)

	assert.Contains(t, out, "Login successful! Welcome, salesperson.")
	assert.Contains(t, out, "Price must be positive.")
	assert.Contains(t, out, "Stock count cannot be negative.")
	assert.Contains(t, out, "Price: $9.49")
	assert.Contains(t, out, "Stock: 40")
	assert.Contains(t, out, "=== WEEKLY SALES REPORT ===")
	assert.Contains(t, out, "Total sales: $0.00")
	assert.Contains(t, out, "No order data available.")
	assert.Contains(t, out, "No view data available.")

	p, err := svc.Inventory.Get(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, "9.49", p.Price.StringFixed(2))
	assert.Equal(t, 40, p.StockCount)
}

func TestShop_BadInput(t *testing.T) {
	svc := setupServices(t)

	out := runShop(t, svc,
		"x",
		"1", "abc",
		"1", "999", "wrong",
		"2", "Bo", "bo@example.com", "p1", "p2",
		"2", "Bo", "not-an-email", "p1", "p1",
	)

	assert.Contains(t, out, "Invalid choice. Please try again.")
	assert.Contains(t, out, "Invalid User ID. Must be a number.")
	assert.Contains(t, out, "Invalid user id or password.")
	assert.Contains(t, out, "Passwords do not match.")
	assert.Contains(t, out, "Invalid input:")
}

func TestShop_Signup(t *testing.T) {
	svc := setupServices(t)

	out := runShop(t, svc, "2", "Bo", "bo@example.com", "pw", "pw", "3")

	assert.Contains(t, out, "Registration successful! Your User ID is: 101")
}
