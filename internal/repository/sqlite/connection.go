// Package sqlite stores users and sessions in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/dtroode/ansv-auth/database"
	"github.com/dtroode/ansv-auth/internal/model"
)

// timeLayout is fixed width so that stored values sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Connection struct {
	*sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
// The pool is limited to one connection, which serialises writers.
func Open(ctx context.Context, path string) (*Connection, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach sqlite: %w", err)
	}

	if _, err := database.Migrate(ctx, database.DialectSQLite, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Connection{DB: db}, nil
}

func (c *Connection) Ping(ctx context.Context) error {
	return c.PingContext(ctx)
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored time %q: %w", s, err)
	}
	return t, nil
}

// uniqueViolation maps a UNIQUE constraint failure to the matching model
// error. SQLite reports the offending column only in the message text.
func uniqueViolation(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return nil
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "users.username"):
		return model.ErrUsernameTaken
	case strings.Contains(msg, "users.email"):
		return model.ErrEmailTaken
	default:
		return model.ErrAlreadyExists
	}
}
