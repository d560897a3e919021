package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/fjod/go_shop/internal/repository/testhelper"
	"github.com/fjod/go_shop/pkg/logger"
)

func newTestService(t *testing.T) (*Service, *repository.DB) {
	db := testhelper.NewSQLite(t)
	svc := NewService(repository.NewUserRepository(db), repository.NewSessionRepository(db),
		repository.NewTxManager(db), logger.Discard())
	svc.bcryptCost = bcrypt.MinCost
	return svc, db
}

func TestSignupAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Signup(ctx, "Ada", "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	second, err := svc.Signup(ctx, "Bob", "bob@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), second)

	u, sess, err := svc.Login(ctx, id, "secret")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, u.Role)
	require.NotNil(t, sess)
	assert.Equal(t, int64(1), sess.SessionNo)

	_, sess2, err := svc.Login(ctx, second, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), sess2.SessionNo, "session numbers are global")

	c, err := svc.Customer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", c.Name)
}

func TestSignup_DuplicateEmailIgnoresCase(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "Ada", "ada@example.com", "secret")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "Ada Again", "ADA@Example.com", "secret")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestSignup_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name, user, email, password string
	}{
		{name: "empty name", user: " ", email: "a@b.c", password: "p"},
		{name: "bad email", user: "a", email: "not-an-email", password: "p"},
		{name: "empty password", user: "a", email: "a@b.c", password: ""},
		{name: "password too long", user: "a", email: "a@b.c", password: strings.Repeat("x", 80)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.user, tt.email, tt.password)
			assert.ErrorIs(t, err, domain.ErrInvalidValue)
		})
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Signup(ctx, "Ada", "ada@example.com", "secret")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, id, "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, _, err = svc.Login(ctx, 999, "secret")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogout_KeepsCartAndEndsSession(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	id, err := svc.Signup(ctx, "Ada", "ada@example.com", "secret")
	require.NoError(t, err)
	_, sess, err := svc.Login(ctx, id, "secret")
	require.NoError(t, err)

	carts := repository.NewCartRepository(db)
	require.NoError(t, carts.Add(ctx, *sess, 1, 2))

	_, err = svc.ActiveSession(ctx, id, sess.SessionNo)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, *sess))

	_, err = svc.ActiveSession(ctx, id, sess.SessionNo)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	items, err := carts.Items(ctx, *sess)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = svc.ActiveSession(ctx, id, 999)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestEnsureSalesperson(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureSalesperson(ctx, 100, "sales123"))
	require.NoError(t, svc.EnsureSalesperson(ctx, 100, "changed"))

	u, sess, err := svc.Login(ctx, 100, "changed")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSalesperson, u.Role)
	assert.Nil(t, sess)

	id, err := svc.Signup(ctx, "Ada", "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(101), id)
	assert.ErrorIs(t, svc.EnsureSalesperson(ctx, id, "x"), domain.ErrAlreadyExists)

	require.NoError(t, svc.EnsureSalesperson(ctx, 200, ""), "empty password skips bootstrap")
}
