package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dtroode/ansv-auth/internal/apierror"
	"github.com/dtroode/ansv-auth/internal/logger"
	"github.com/dtroode/ansv-auth/internal/model"
)

// TokenTTLs are the lifetimes granted at issuance. RefreshShort applies
// unless the caller asks to be remembered.
type TokenTTLs struct {
	Access       time.Duration
	Refresh      time.Duration
	RefreshShort time.Duration
}

// TokenService issues, rotates and revokes token pairs. Each pair is bound
// to the single session row its user may hold.
type TokenService struct {
	codec     model.TokenCodec
	sessions  model.SessionStore
	users     model.UserStore
	ttl       TokenTTLs
	logger    *logger.Logger
	now       func() time.Time
	sessionID func() string
}

type TokenServiceOption func(*TokenService)

// WithNow overrides the clock used for session expiry.
func WithNow(now func() time.Time) TokenServiceOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// WithSessionIDs overrides session id generation.
func WithSessionIDs(gen func() string) TokenServiceOption {
	return func(s *TokenService) {
		s.sessionID = gen
	}
}

func NewTokenService(
	codec model.TokenCodec,
	sessions model.SessionStore,
	users model.UserStore,
	ttl TokenTTLs,
	logger *logger.Logger,
	opts ...TokenServiceOption,
) *TokenService {
	s := &TokenService{
		codec:    codec,
		sessions: sessions,
		users:    users,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		sessionID: func() string {
			return ulid.Make().String()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueTokens mints a new pair for user and replaces any session the user
// already had.
func (s *TokenService) IssueTokens(ctx context.Context, user model.User, opts model.IssueOptions) (model.IssuedTokens, error) {
	refreshTTL := s.ttl.RefreshShort
	if opts.Remember {
		refreshTTL = s.ttl.Refresh
	}

	now := s.now()
	accessToken, err := s.codec.SignAccess(model.AccessClaims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		RoleID:   user.RoleID,
		Plan:     user.Plan,
	}, s.ttl.Access)
	if err != nil {
		return model.IssuedTokens{}, fmt.Errorf("issue access: %w", err)
	}

	sessionID := s.sessionID()
	refreshToken, err := s.codec.SignRefresh(model.RefreshClaims{
		UserID:    user.ID,
		SessionID: sessionID,
	}, refreshTTL)
	if err != nil {
		return model.IssuedTokens{}, fmt.Errorf("issue refresh: %w", err)
	}

	session, err := s.sessions.ReplaceForUser(ctx, model.Session{
		ID:        sessionID,
		UserID:    user.ID,
		TokenHash: s.codec.HashToken(refreshToken),
		ExpiresAt: now.Add(refreshTTL),
		CreatedAt: now,
	})
	if err != nil {
		s.logger.Error("Token service: failed to persist session",
			"user_id", user.ID,
			"error", err.Error())
		return model.IssuedTokens{}, fmt.Errorf("persist session: %w", err)
	}

	s.logger.Debug("Token service: issued token pair",
		"user_id", user.ID,
		"session_id", session.ID,
		"remember", opts.Remember)

	return model.IssuedTokens{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresIn:  s.ttl.Access,
		RefreshExpiresIn: refreshTTL,
		RefreshExpiresAt: session.ExpiresAt,
		User:             user.Public(),
	}, nil
}

// RotateRefreshToken consumes refreshToken and issues a new pair with the
// default refresh lifetime. Every rejection is the same Unauthorized error.
func (s *TokenService) RotateRefreshToken(ctx context.Context, refreshToken string) (model.IssuedTokens, error) {
	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		s.logger.Info("Token service: refresh token rejected",
			"reason", err.Error())
		return model.IssuedTokens{}, apierror.NewErrInvalidRefreshToken()
	}

	// Consuming first makes rotation single-use: a concurrent replay of the
	// same token loses the delete and sees no session.
	session, err := s.sessions.ConsumeByTokenHash(ctx, s.codec.HashToken(refreshToken))
	if errors.Is(err, model.ErrNotFound) {
		// A validly signed token without a session was rotated or revoked
		// already. Replays of stolen tokens look exactly like this.
		s.logger.Warn("Token service: refresh token has no session",
			"user_id", claims.UserID,
			"session_id", claims.SessionID)
		return model.IssuedTokens{}, apierror.NewErrInvalidRefreshToken()
	}
	if err != nil {
		s.logger.Error("Token service: failed to consume session",
			"session_id", claims.SessionID,
			"error", err.Error())
		return model.IssuedTokens{}, fmt.Errorf("consume session: %w", err)
	}

	if session.Expired(s.now()) {
		s.logger.Info("Token service: refresh rejected",
			"user_id", session.UserID,
			"session_id", session.ID,
			"reason", model.ErrSessionExpired.Error())
		return model.IssuedTokens{}, apierror.NewErrInvalidRefreshToken()
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if errors.Is(err, model.ErrNotFound) {
		s.logger.Warn("Token service: session owner no longer exists",
			"user_id", session.UserID,
			"session_id", session.ID)
		return model.IssuedTokens{}, apierror.NewErrInvalidRefreshToken()
	}
	if err != nil {
		return model.IssuedTokens{}, fmt.Errorf("get session owner: %w", err)
	}

	// TODO: carry the remember choice across rotation once product decides
	// whether a rotated session keeps its original lifetime class.
	return s.IssueTokens(ctx, user, model.IssueOptions{})
}

// RevokeRefreshToken deletes the session bound to refreshToken, if any.
// The token itself is not verified.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	if err := s.sessions.DeleteByTokenHash(ctx, s.codec.HashToken(refreshToken)); err != nil {
		s.logger.Error("Token service: failed to revoke session",
			"error", err.Error())
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// VerifyAccess checks an access token without touching storage.
func (s *TokenService) VerifyAccess(_ context.Context, accessToken string) (model.AccessClaims, error) {
	claims, err := s.codec.VerifyAccess(accessToken)
	if err != nil {
		return model.AccessClaims{}, apierror.NewErrInvalidAuthorizationToken()
	}
	return claims, nil
}

// PruneExpired removes sessions whose expiry has passed.
func (s *TokenService) PruneExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}

	s.logger.Info("Token service: pruned expired sessions",
		"count", n)
	return n, nil
}
