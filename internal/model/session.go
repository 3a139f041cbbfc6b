package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionStore persists the single active refresh session of each user.
type SessionStore interface {
	// ReplaceForUser deletes every session of session.UserID and stores session
	// in its place, atomically.
	ReplaceForUser(ctx context.Context, session Session) (Session, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (Session, error)
	DeleteByID(ctx context.Context, id string) error
	// ConsumeByTokenHash deletes the session bound to tokenHash and returns it.
	// Of several concurrent callers at most one gets the session; the rest
	// get ErrNotFound.
	ConsumeByTokenHash(ctx context.Context, tokenHash string) (Session, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	// DeleteExpired removes sessions that expired before now and reports how many.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Session binds a hashed refresh token to its owner.
type Session struct {
	ID        string
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
