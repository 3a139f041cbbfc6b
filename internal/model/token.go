package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenCodec signs and verifies access and refresh tokens.
type TokenCodec interface {
	SignAccess(claims AccessClaims, ttl time.Duration) (string, error)
	VerifyAccess(token string) (AccessClaims, error)
	SignRefresh(claims RefreshClaims, ttl time.Duration) (string, error)
	VerifyRefresh(token string) (RefreshClaims, error)
	HashToken(token string) string
}

// AccessClaims is the identity carried by an access token.
type AccessClaims struct {
	UserID    uuid.UUID `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	RoleID    int       `json:"roleId"`
	Plan      string    `json:"plan"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RefreshClaims is deliberately minimal: role and plan are reloaded from the
// user record on every refresh.
type RefreshClaims struct {
	UserID    uuid.UUID
	SessionID string
	ExpiresAt time.Time
}

// IssueOptions tunes token issuance.
type IssueOptions struct {
	Remember bool
}

// IssuedTokens is a freshly minted token pair.
type IssuedTokens struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
	RefreshExpiresAt time.Time
	User             PublicUser
}

// PasswordHasher derives and checks stored password hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, storedHash string) bool
}
