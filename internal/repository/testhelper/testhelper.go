// Package testhelper opens migrated throwaway databases for tests.
package testhelper

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fjod/go_shop/internal/config"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
)

// NewSQLite returns a migrated SQLite database in a temp dir, seeded with the
// default catalog. It is closed when the test ends.
func NewSQLite(t testing.TB) *repository.DB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver: repository.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "shop.db"),
	}

	db, err := repository.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.RunMigrations())
	return db
}

// Customer creates a customer user with an open session and returns the session.
func Customer(t testing.TB, db *repository.DB, id int64) domain.Session {
	t.Helper()
	ctx := context.Background()

	users := repository.NewUserRepository(db)
	require.NoError(t, users.CreateUser(ctx, &domain.User{ID: id, PasswordHash: "x", Role: domain.RoleCustomer}))
	require.NoError(t, users.CreateCustomer(ctx, &domain.Customer{
		ID:    id,
		Name:  "customer",
		Email: fmt.Sprintf("customer%d@example.com", id),
	}))

	return Session(t, db, id)
}

// Session opens another session for an existing customer.
func Session(t testing.TB, db *repository.DB, customerID int64) domain.Session {
	t.Helper()

	s, err := repository.NewSessionRepository(db).Start(context.Background(), customerID, time.Now())
	require.NoError(t, err)
	return *s
}

// Stock reads the current stock count of a product.
func Stock(t testing.TB, db *repository.DB, productID int64) int {
	t.Helper()

	p, err := repository.NewProductRepository(db).Get(context.Background(), productID)
	require.NoError(t, err)
	return p.StockCount
}
