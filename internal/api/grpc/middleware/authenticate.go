package middleware

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dtroode/ansv-auth/internal/apierror"
	"github.com/dtroode/ansv-auth/internal/logger"
	"github.com/dtroode/ansv-auth/internal/model"
)

// TokenService verifies access tokens.
type TokenService interface {
	VerifyAccess(ctx context.Context, accessToken string) (model.AccessClaims, error)
}

// Authenticate validates bearer tokens from call metadata.
type Authenticate struct {
	tokenService   TokenService
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewAuthenticate(tokenService TokenService, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokenService: tokenService, contextManager: contextManager, logger: logger}
}

// AuthFunc is an auth.AuthFunc that stores verified claims in the context.
func (m *Authenticate) AuthFunc(ctx context.Context) (context.Context, error) {
	var tokenString string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("authorization"); len(values) > 0 {
			scheme, rest, found := strings.Cut(values[0], " ")
			if found && strings.EqualFold(scheme, "Bearer") {
				tokenString = strings.TrimSpace(rest)
			}
		}
	}

	if tokenString == "" {
		return nil, status.Error(codes.Unauthenticated, apierror.NewErrMissingAuthorizationToken().Message)
	}

	claims, err := m.tokenService.VerifyAccess(ctx, tokenString)
	if err != nil {
		m.logger.Debug("Authenticate interceptor: access token rejected",
			"error", err.Error())
		return nil, status.Error(codes.Unauthenticated, apierror.NewErrInvalidAuthorizationToken().Message)
	}

	return m.contextManager.SetClaimsToContext(ctx, claims), nil
}
