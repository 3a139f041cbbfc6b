package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/ansv-auth/internal/model"
)

var _ model.SessionStore = (*SessionRepository)(nil)

type SessionRepository struct {
	db DB
}

func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// ReplaceForUser deletes the user's sessions and inserts the new one in a
// single transaction. The unique constraint on user_id turns a concurrent
// insert into an upsert instead of a second row.
func (r *SessionRepository) ReplaceForUser(ctx context.Context, session model.Session) (model.Session, error) {
	const deleteQuery = `DELETE FROM sessions WHERE user_id = $1`
	const insertQuery = `
        INSERT INTO sessions (id, user_id, token_hash, expires_at, created_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id) DO UPDATE
        SET id = EXCLUDED.id,
            token_hash = EXCLUDED.token_hash,
            expires_at = EXCLUDED.expires_at,
            created_at = EXCLUDED.created_at
        RETURNING id, user_id, token_hash, expires_at, created_at
    `

	var saved model.Session
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteQuery, session.UserID); err != nil {
			return fmt.Errorf("failed to delete user sessions: %w", err)
		}

		err := tx.QueryRow(ctx, insertQuery,
			session.ID, session.UserID, session.TokenHash, session.ExpiresAt, session.CreatedAt,
		).Scan(&saved.ID, &saved.UserID, &saved.TokenHash, &saved.ExpiresAt, &saved.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Session{}, err
	}

	return saved, nil
}

func (r *SessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (model.Session, error) {
	const query = `
        SELECT id, user_id, token_hash, expires_at, created_at
        FROM sessions WHERE token_hash = $1
    `
	var s model.Session
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(
		&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Session{}, model.ErrNotFound
		}
		return model.Session{}, fmt.Errorf("failed to get session by token hash: %w", err)
	}
	return s, nil
}

// ConsumeByTokenHash deletes and returns the session in one statement, so
// a second caller racing on the same hash finds no row.
func (r *SessionRepository) ConsumeByTokenHash(ctx context.Context, tokenHash string) (model.Session, error) {
	const query = `
        DELETE FROM sessions WHERE token_hash = $1
        RETURNING id, user_id, token_hash, expires_at, created_at
    `
	var s model.Session
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(
		&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Session{}, model.ErrNotFound
		}
		return model.Session{}, fmt.Errorf("failed to consume session: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete sessions by user: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash); err != nil {
		return fmt.Errorf("failed to delete session by token hash: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
