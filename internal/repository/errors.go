package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/fjod/go_shop/internal/domain"
)

const (
	pqUniqueViolation     = "23505"
	pqCheckViolation      = "23514"
	pqSerializationFailed = "40001"
)

// mapError translates driver errors into domain sentinels, keeping the driver
// error in the chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation, pqSerializationFailed:
			return fmt.Errorf("%w: %v", domain.ErrConflict, err)
		case pqCheckViolation:
			return fmt.Errorf("%w: %v", domain.ErrInvalidValue, err)
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_BUSY:
			return fmt.Errorf("%w: %v", domain.ErrConflict, err)
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return fmt.Errorf("%w: %v", domain.ErrInvalidValue, err)
		}
	}

	return err
}
