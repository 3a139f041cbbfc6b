package token

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/ansv-auth/internal/model"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"

	// DefaultIssuer is the "iss" claim used when none is configured.
	DefaultIssuer = "ansv"
)

var _ model.TokenCodec = (*JWT)(nil)

// Keys holds the HMAC secrets for both token kinds.
type Keys struct {
	AccessSecret  []byte
	RefreshSecret []byte
}

// AccessClaims represents JWT claims of an access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Username  string `json:"username"`
	Email     string `json:"email"`
	RoleID    int    `json:"role_id"`
	Plan      string `json:"plan"`
	TokenType string `json:"typ"`
}

// RefreshClaims represents JWT claims of a refresh token.
type RefreshClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
	TokenType string `json:"typ"`
}

// JWT implements model.TokenCodec backed by symmetric HMAC.
type JWT struct {
	keys   Keys
	issuer string
	now    func() time.Time
}

// Option configures a JWT codec.
type Option func(*JWT)

// WithIssuer overrides the "iss" claim.
func WithIssuer(issuer string) Option {
	return func(j *JWT) {
		j.issuer = issuer
	}
}

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(j *JWT) {
		j.now = now
	}
}

// NewJWT creates a new JWT codec with the provided keys.
func NewJWT(keys Keys, opts ...Option) *JWT {
	j := &JWT{keys: keys, issuer: DefaultIssuer, now: time.Now}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// SignAccess creates a short-lived access token.
func (j *JWT) SignAccess(claims model.AccessClaims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("access token ttl must be positive, got %s", ttl)
	}
	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: j.registered(claims.UserID, now, ttl),
		Username:         claims.Username,
		Email:            claims.Email,
		RoleID:           claims.RoleID,
		Plan:             claims.Plan,
		TokenType:        typeAccess,
	})

	tokenString, err := token.SignedString(j.keys.AccessSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// SignRefresh creates a refresh token bound to a session.
func (j *JWT) SignRefresh(claims model.RefreshClaims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("refresh token ttl must be positive, got %s", ttl)
	}
	if claims.SessionID == "" {
		return "", errors.New("refresh token requires a session id")
	}
	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		RegisteredClaims: j.registered(claims.UserID, now, ttl),
		SessionID:        claims.SessionID,
		TokenType:        typeRefresh,
	})

	tokenString, err := token.SignedString(j.keys.RefreshSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return tokenString, nil
}

// VerifyAccess validates an access token and returns its claims.
func (j *JWT) VerifyAccess(tokenString string) (model.AccessClaims, error) {
	claims := &AccessClaims{}
	if err := j.parse(tokenString, claims, j.keys.AccessSecret); err != nil {
		return model.AccessClaims{}, fmt.Errorf("failed to parse access token: %w", err)
	}
	if claims.TokenType != typeAccess {
		return model.AccessClaims{}, fmt.Errorf("%w: token type mismatch: %s", model.ErrTokenInvalid, claims.TokenType)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.AccessClaims{}, fmt.Errorf("%w: bad subject: %w", model.ErrTokenInvalid, err)
	}

	return model.AccessClaims{
		UserID:    userID,
		Username:  claims.Username,
		Email:     claims.Email,
		RoleID:    claims.RoleID,
		Plan:      claims.Plan,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// VerifyRefresh validates a refresh token and returns its claims.
func (j *JWT) VerifyRefresh(tokenString string) (model.RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := j.parse(tokenString, claims, j.keys.RefreshSecret); err != nil {
		return model.RefreshClaims{}, fmt.Errorf("failed to parse refresh token: %w", err)
	}
	if claims.TokenType != typeRefresh {
		return model.RefreshClaims{}, fmt.Errorf("%w: token type mismatch: %s", model.ErrTokenInvalid, claims.TokenType)
	}
	if claims.SessionID == "" {
		return model.RefreshClaims{}, fmt.Errorf("%w: missing session id", model.ErrTokenInvalid)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.RefreshClaims{}, fmt.Errorf("%w: bad subject: %w", model.ErrTokenInvalid, err)
	}

	return model.RefreshClaims{
		UserID:    userID,
		SessionID: claims.SessionID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// HashToken returns the hex SHA-256 of token. It is the session lookup key.
func (j *JWT) HashToken(token string) string {
	return HashToken(token)
}

// HashToken returns the hex SHA-256 of token.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

func (j *JWT) registered(userID uuid.UUID, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    j.issuer,
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (j *JWT) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(j.issuer),
		jwt.WithTimeFunc(j.now),
	)

	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if errors.Is(err, jwt.ErrTokenExpired) {
		return fmt.Errorf("%w: %w", model.ErrTokenInvalid, model.ErrTokenExpired)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrTokenInvalid, err)
	}
	if !token.Valid {
		return model.ErrTokenInvalid
	}
	return nil
}
