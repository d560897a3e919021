// Package auth registers customers, checks passwords and opens the sessions
// that scope carts and activity logs.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fjod/go_shop/internal/domain"
)

const maxIDAttempts = 3

type UserStore interface {
	NextID(ctx context.Context) (int64, error)
	CreateUser(ctx context.Context, u *domain.User) error
	CreateCustomer(ctx context.Context, c *domain.Customer) error
	EmailTaken(ctx context.Context, email string) (bool, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetCustomer(ctx context.Context, id int64) (*domain.Customer, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

type SessionStore interface {
	Start(ctx context.Context, customerID int64, at time.Time) (*domain.Session, error)
	Get(ctx context.Context, customerID, sessionNo int64) (*domain.Session, error)
	End(ctx context.Context, s domain.Session, at time.Time) error
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	users      UserStore
	sessions   SessionStore
	tx         TxRunner
	log        *slog.Logger
	bcryptCost int
	now        func() time.Time
}

func NewService(users UserStore, sessions SessionStore, tx TxRunner, log *slog.Logger) *Service {
	return &Service{
		users:      users,
		sessions:   sessions,
		tx:         tx,
		log:        log.With("service", "auth"),
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// Signup registers a customer and returns the new user id.
func (s *Service) Signup(ctx context.Context, name, email, password string) (int64, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || password == "" {
		return 0, fmt.Errorf("signup: name and password are required: %w", domain.ErrInvalidValue)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return 0, fmt.Errorf("signup: email %q: %w", email, domain.ErrInvalidValue)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return 0, fmt.Errorf("signup: %w: %v", domain.ErrInvalidValue, err)
	}
	if err != nil {
		return 0, fmt.Errorf("signup: hash password: %w", err)
	}

	var id int64
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
			taken, err := s.users.EmailTaken(ctx, email)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("email %s: %w", email, domain.ErrAlreadyExists)
			}

			id, err = s.users.NextID(ctx)
			if err != nil {
				return err
			}
			if err := s.users.CreateUser(ctx, &domain.User{ID: id, PasswordHash: string(hash), Role: domain.RoleCustomer}); err != nil {
				return err
			}
			return s.users.CreateCustomer(ctx, &domain.Customer{ID: id, Name: name, Email: email})
		})
		if !errors.Is(err, domain.ErrConflict) {
			break
		}
	}
	if err != nil {
		return 0, fmt.Errorf("signup: %w", err)
	}

	s.log.InfoContext(ctx, "customer registered", slog.Int64("user_id", id))
	return id, nil
}

// Login checks the password. Customers get a fresh session; salespersons get nil.
func (s *Service) Login(ctx context.Context, userID int64, password string) (*domain.User, *domain.Session, error) {
	u, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, fmt.Errorf("login: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.log.WarnContext(ctx, "login failed", slog.Int64("user_id", userID))
		return nil, nil, fmt.Errorf("login: %w", domain.ErrUnauthorized)
	}

	if u.Role != domain.RoleCustomer {
		s.log.InfoContext(ctx, "staff logged in", slog.Int64("user_id", userID))
		return u, nil, nil
	}

	var sess *domain.Session
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		sess, err = s.sessions.Start(ctx, userID, s.now())
		if !errors.Is(err, domain.ErrConflict) {
			break
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("login: start session: %w", err)
	}

	s.log.InfoContext(ctx, "customer logged in",
		slog.Int64("user_id", userID),
		slog.Int64("session_no", sess.SessionNo))
	return u, sess, nil
}

// Logout closes the session. Its cart lines stay in place.
func (s *Service) Logout(ctx context.Context, sess domain.Session) error {
	if err := s.sessions.End(ctx, sess, s.now()); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.InfoContext(ctx, "customer logged out",
		slog.Int64("user_id", sess.CustomerID),
		slog.Int64("session_no", sess.SessionNo))
	return nil
}

// ActiveSession returns the session when it exists and has not ended.
func (s *Service) ActiveSession(ctx context.Context, customerID, sessionNo int64) (*domain.Session, error) {
	sess, err := s.sessions.Get(ctx, customerID, sessionNo)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("active session: %w", err)
	}
	if sess.EndTime != nil {
		return nil, fmt.Errorf("session %d ended: %w", sessionNo, domain.ErrUnauthorized)
	}
	return sess, nil
}

func (s *Service) Customer(ctx context.Context, id int64) (*domain.Customer, error) {
	c, err := s.users.GetCustomer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// EnsureSalesperson creates the staff account, or resets its password when it
// already exists. An empty password disables the bootstrap.
func (s *Service) EnsureSalesperson(ctx context.Context, userID int64, password string) error {
	if password == "" {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("ensure salesperson: hash password: %w", err)
	}

	u, err := s.users.GetUser(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		err = s.users.CreateUser(ctx, &domain.User{ID: userID, PasswordHash: string(hash), Role: domain.RoleSalesperson})
	case err != nil:
	case u.Role != domain.RoleSalesperson:
		err = fmt.Errorf("user %d is a %s: %w", userID, u.Role, domain.ErrAlreadyExists)
	default:
		err = s.users.UpdatePassword(ctx, userID, string(hash))
	}
	if err != nil {
		return fmt.Errorf("ensure salesperson: %w", err)
	}

	s.log.InfoContext(ctx, "salesperson account ready", slog.Int64("user_id", userID))
	return nil
}
