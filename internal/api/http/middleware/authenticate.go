package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dtroode/ansv-auth/internal/apierror"
	"github.com/dtroode/ansv-auth/internal/logger"
	"github.com/dtroode/ansv-auth/internal/model"
)

// TokenService verifies access tokens.
type TokenService interface {
	VerifyAccess(ctx context.Context, accessToken string) (model.AccessClaims, error)
}

// Authenticate validates bearer tokens and injects the claims into the
// request context.
type Authenticate struct {
	tokenService   TokenService
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewAuthenticate(tokenService TokenService, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokenService: tokenService, contextManager: contextManager, logger: logger}
}

func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeUnauthorized(w, apierror.NewErrMissingAuthorizationToken())
			return
		}

		claims, err := m.tokenService.VerifyAccess(r.Context(), tokenString)
		if err != nil {
			m.logger.Debug("Authenticate middleware: access token rejected",
				"path", r.URL.Path,
				"error", err.Error())
			writeUnauthorized(w, apierror.NewErrInvalidAuthorizationToken())
			return
		}

		ctx := m.contextManager.SetClaimsToContext(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter, apiErr *apierror.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="ansv"`)
	w.WriteHeader(apiErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  apiErr.HTTPStatus,
		"code":    apiErr.Code,
		"message": apiErr.Message,
	})
}
