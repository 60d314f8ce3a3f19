// Package storage owns the SQLite data file: opening it, creating the schema
// and handing out scoped connections and transactions.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DriverName is the database/sql name registered by modernc.org/sqlite.
const DriverName = "sqlite"

// MemoryPath opens a private in-memory database (tests only).
const MemoryPath = ":memory:"

func init() {
	sqlx.BindDriver(DriverName, sqlx.QUESTION)
}

// Options controls how a database file is opened
type Options struct {
	// ReadOnly opens the file with mode=ro. A missing file is reported on first
	// use instead of being created.
	ReadOnly bool
	// BusyTimeoutMs is how long a statement waits on a locked database.
	BusyTimeoutMs int
}

// DB wraps the sqlx handle for one SQLite file
type DB struct {
	conn     *sqlx.DB
	logger   *slog.Logger
	path     string
	readOnly bool
}

// Open opens the SQLite file at path. Read-write handles are limited to a
// single connection since SQLite allows one writer at a time.
func Open(path string, logger *slog.Logger, opts Options) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is empty")
	}
	if opts.BusyTimeoutMs <= 0 {
		opts.BusyTimeoutMs = 5000
	}

	conn, err := sqlx.Open(DriverName, buildDSN(path, opts))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	switch {
	case path == MemoryPath:
		// every pooled connection would otherwise see its own empty database
		conn.SetMaxOpenConns(1)
		conn.SetConnMaxIdleTime(0)
		conn.SetConnMaxLifetime(0)
	case !opts.ReadOnly:
		conn.SetMaxOpenConns(1)
	}

	logger.Debug("Opened database", "path", path, "readOnly", opts.ReadOnly)

	return &DB{
		conn:     conn,
		logger:   logger,
		path:     path,
		readOnly: opts.ReadOnly,
	}, nil
}

// OpenReadOnly opens path for the serving path.
func OpenReadOnly(path string, logger *slog.Logger, busyTimeoutMs int) (*DB, error) {
	return Open(path, logger, Options{ReadOnly: true, BusyTimeoutMs: busyTimeoutMs})
}

// buildDSN renders a modernc file: URI. Pragmas are passed as _pragma
// parameters so that every pooled connection gets them, not just the first.
func buildDSN(path string, opts Options) string {
	params := []string{fmt.Sprintf("_pragma=busy_timeout(%d)", opts.BusyTimeoutMs)}
	if opts.ReadOnly {
		params = append(params, "mode=ro", "_pragma=query_only(1)")
	} else {
		params = append(params,
			"_pragma=synchronous(NORMAL)",
			"_pragma=temp_store(MEMORY)",
			"_pragma=cache_size(-64000)",
		)
	}

	return "file:" + path + "?" + strings.Join(params, "&")
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Conn returns the underlying sqlx handle
func (db *DB) Conn() *sqlx.DB {
	return db.conn
}

// Path returns the file path the handle was opened with
func (db *DB) Path() string {
	return db.path
}

// ReadOnly reports whether the handle was opened with mode=ro
func (db *DB) ReadOnly() bool {
	return db.readOnly
}

// WithConn acquires one dedicated connection, runs fn on it and releases it on
// every exit path, including panics.
func (db *DB) WithConn(ctx context.Context, fn func(*sqlx.Conn) error) error {
	conn, err := db.conn.Connx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			db.logger.Warn("failed to release connection", "error", cerr.Error())
		}
	}()
	return fn(conn)
}

// WithTx executes fn within a transaction. The transaction is rolled back if
// fn returns an error or panics, and committed otherwise.
func (db *DB) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("failed to rollback transaction",
				"error", err.Error(),
				"rollback_error", rbErr.Error(),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Check verifies the store is reachable: the file exists and answers a
// trivial query. It does not look at the schema.
func (db *DB) Check(ctx context.Context) error {
	if db.path != MemoryPath {
		if _, err := os.Stat(db.path); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("database file not found: %s", db.path)
			}
			return fmt.Errorf("stat database file: %w", err)
		}
	}

	return db.WithConn(ctx, func(conn *sqlx.Conn) error {
		var one int
		if err := conn.QueryRowxContext(ctx, "SELECT 1").Scan(&one); err != nil {
			return err
		}
		if one != 1 {
			return fmt.Errorf("unexpected probe result %d", one)
		}
		return nil
	})
}

// TableExists reports whether a table with the given name exists
func (db *DB) TableExists(ctx context.Context, name string) (bool, error) {
	var found string
	err := db.conn.GetContext(ctx, &found,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
