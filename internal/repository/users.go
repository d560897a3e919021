package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/go_shop/internal/domain"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) NextID(ctx context.Context) (int64, error) {
	var id int64
	err := r.db.querier(ctx).QueryRowContext(ctx, `SELECT COALESCE(MAX(uid), 0) + 1 FROM users`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("allocate user id: %w", mapError(err))
	}
	return id, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := r.db.querier(ctx).ExecContext(ctx,
		`INSERT INTO users (uid, pwd_hash, role) VALUES ($1, $2, $3)`, u.ID, u.PasswordHash, string(u.Role))
	if err != nil {
		return fmt.Errorf("insert user %d: %w", u.ID, mapError(err))
	}
	return nil
}

func (r *UserRepository) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	_, err := r.db.querier(ctx).ExecContext(ctx,
		`INSERT INTO customers (cid, name, email) VALUES ($1, $2, $3)`, c.ID, c.Name, c.Email)
	if err != nil {
		return fmt.Errorf("insert customer %d: %w", c.ID, mapError(err))
	}
	return nil
}

// EmailTaken compares case-insensitively.
func (r *UserRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.db.querier(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM customers WHERE LOWER(email) = LOWER($1)`, email).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query customer email: %w", mapError(err))
	}
	return n > 0, nil
}

func (r *UserRepository) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	var role string
	err := r.db.querier(ctx).QueryRowContext(ctx,
		`SELECT uid, pwd_hash, role FROM users WHERE uid = $1`, id).Scan(&u.ID, &u.PasswordHash, &role)
	if err != nil {
		return nil, fmt.Errorf("query user %d: %w", id, mapError(err))
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	_, err := r.db.querier(ctx).ExecContext(ctx, `UPDATE users SET pwd_hash = $1 WHERE uid = $2`, hash, id)
	if err != nil {
		return fmt.Errorf("update password of user %d: %w", id, mapError(err))
	}
	return nil
}

func (r *UserRepository) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	err := r.db.querier(ctx).QueryRowContext(ctx,
		`SELECT cid, name, email FROM customers WHERE cid = $1`, id).Scan(&c.ID, &c.Name, &c.Email)
	if err != nil {
		return nil, fmt.Errorf("query customer %d: %w", id, mapError(err))
	}
	return &c, nil
}

type SessionRepository struct {
	db *DB
}

func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Start opens a session numbered max(session_no)+1 across all customers. A
// concurrent start yields ErrConflict and may be retried.
func (r *SessionRepository) Start(ctx context.Context, customerID int64, at time.Time) (*domain.Session, error) {
	q := r.db.querier(ctx)

	var no int64
	if err := q.QueryRowContext(ctx, `SELECT COALESCE(MAX(session_no), 0) + 1 FROM sessions`).Scan(&no); err != nil {
		return nil, fmt.Errorf("allocate session number: %w", mapError(err))
	}

	at = at.UTC()
	_, err := q.ExecContext(ctx,
		`INSERT INTO sessions (cid, session_no, start_time) VALUES ($1, $2, $3)`, customerID, no, at)
	if err != nil {
		return nil, fmt.Errorf("insert session %d: %w", no, mapError(err))
	}

	return &domain.Session{CustomerID: customerID, SessionNo: no, StartTime: at}, nil
}

func (r *SessionRepository) Get(ctx context.Context, customerID, sessionNo int64) (*domain.Session, error) {
	s := domain.Session{CustomerID: customerID, SessionNo: sessionNo}
	var end *time.Time
	err := r.db.querier(ctx).QueryRowContext(ctx,
		`SELECT start_time, end_time FROM sessions WHERE cid = $1 AND session_no = $2`, customerID, sessionNo).
		Scan(&s.StartTime, &end)
	if err != nil {
		return nil, fmt.Errorf("query session %d: %w", sessionNo, mapError(err))
	}
	s.StartTime = s.StartTime.UTC()
	if end != nil {
		e := end.UTC()
		s.EndTime = &e
	}
	return &s, nil
}

// End stamps end_time on an open session. Cart lines are kept.
func (r *SessionRepository) End(ctx context.Context, s domain.Session, at time.Time) error {
	_, err := r.db.querier(ctx).ExecContext(ctx,
		`UPDATE sessions SET end_time = $1 WHERE cid = $2 AND session_no = $3 AND end_time IS NULL`,
		at.UTC(), s.CustomerID, s.SessionNo)
	if err != nil {
		return fmt.Errorf("end session %d: %w", s.SessionNo, mapError(err))
	}
	return nil
}
