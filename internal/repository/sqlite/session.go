package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/ansv-auth/internal/model"
)

var _ model.SessionStore = (*SessionRepository)(nil)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) ReplaceForUser(ctx context.Context, session model.Session) (model.Session, error) {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, session.UserID.String()); err != nil {
			return fmt.Errorf("failed to delete user sessions: %w", err)
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (id, user_id, token_hash, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`,
			session.ID, session.UserID.String(), session.TokenHash,
			formatTime(session.ExpiresAt), formatTime(session.CreatedAt),
		)
		if err != nil {
			if mapped := uniqueViolation(err); mapped != nil {
				return fmt.Errorf("failed to insert session: %w", mapped)
			}
			return fmt.Errorf("failed to insert session: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Session{}, err
	}

	session.ExpiresAt = session.ExpiresAt.UTC()
	session.CreatedAt = session.CreatedAt.UTC()
	return session, nil
}

func (r *SessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (model.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, expires_at, created_at FROM sessions WHERE token_hash = ?`, tokenHash,
	)
	s, err := scanSession(row)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to get session by token hash: %w", err)
	}
	return s, nil
}

// ConsumeByTokenHash deletes and returns the session in one statement.
// SQLite serialises writers, so a racing second caller sees no row.
func (r *SessionRepository) ConsumeByTokenHash(ctx context.Context, tokenHash string) (model.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`DELETE FROM sessions WHERE token_hash = ? RETURNING id, user_id, token_hash, expires_at, created_at`, tokenHash,
	)
	s, err := scanSession(row)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to consume session: %w", err)
	}
	return s, nil
}

// scanSession maps sql.ErrNoRows to model.ErrNotFound.
func scanSession(row *sql.Row) (model.Session, error) {
	var (
		s                    model.Session
		userID               string
		expiresAt, createdAt string
	)

	if err := row.Scan(&s.ID, &userID, &s.TokenHash, &expiresAt, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Session{}, model.ErrNotFound
		}
		return model.Session{}, err
	}

	var err error
	if s.UserID, err = uuid.Parse(userID); err != nil {
		return model.Session{}, fmt.Errorf("parse user id: %w", err)
	}
	if s.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return model.Session{}, err
	}
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Session{}, err
	}
	return s, nil
}

func (r *SessionRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID.String()); err != nil {
		return fmt.Errorf("failed to delete sessions by user: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, tokenHash); err != nil {
		return fmt.Errorf("failed to delete session by token hash: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted sessions: %w", err)
	}
	return n, nil
}
