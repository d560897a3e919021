package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	"modernc.org/sqlite"

	"github.com/fjod/go_shop/internal/config"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// SQLite's own LOWER folds ASCII only. unicode_lower folds like
// strings.ToLower so search keywords and stored text agree.
func init() {
	sqlite.MustRegisterDeterministicScalarFunction("unicode_lower", 1, func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case string:
			return strings.ToLower(v), nil
		case []byte:
			return strings.ToLower(string(v)), nil
		default:
			return v, nil
		}
	})
}

// DB is the relational store shared by all repositories.
type DB struct {
	db     *sql.DB
	driver string
	dsn    string
}

// Open connects to the configured database and verifies the connection.
// SQLite runs with a single connection so writers are serialized.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	dsn := cfg.DSN
	if cfg.Driver == DriverSQLite {
		dsn = sqliteDSN(cfg.DSN)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	return &DB{db: db, driver: cfg.Driver, dsn: dsn}, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite&_txlock=immediate"
}

func (d *DB) Driver() string {
	return d.driver
}

// lower names the SQL function that lowercases text the way strings.ToLower does.
func (d *DB) lower() string {
	if d.driver == DriverSQLite {
		return "unicode_lower"
	}
	return "LOWER"
}

func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DB) Close() error {
	return d.db.Close()
}

// builder is a squirrel statement builder with $N placeholders, understood by both drivers.
func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}
