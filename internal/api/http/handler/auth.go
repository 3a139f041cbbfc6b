package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dtroode/ansv-auth/internal/api/http/cookie"
	"github.com/dtroode/ansv-auth/internal/apierror"
	"github.com/dtroode/ansv-auth/internal/logger"
	"github.com/dtroode/ansv-auth/internal/metrics"
	"github.com/dtroode/ansv-auth/internal/model"
)

// AuthService defines user registration and credential checks.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (model.User, error)
	Authenticate(ctx context.Context, identifier, password string) (model.User, error)
}

// TokenService defines token issuance, rotation and revocation.
type TokenService interface {
	IssueTokens(ctx context.Context, user model.User, opts model.IssueOptions) (model.IssuedTokens, error)
	RotateRefreshToken(ctx context.Context, refreshToken string) (model.IssuedTokens, error)
	RevokeRefreshToken(ctx context.Context, refreshToken string) error
}

// EventRecorder counts auth outcomes.
type EventRecorder interface {
	RecordAuthEvent(operation, outcome string)
}

// Operation labels.
const (
	opRegister = "register"
	opLogin    = "login"
	opRefresh  = "refresh"
	opLogout   = "logout"
)

// Auth handles the /auth endpoints.
type Auth struct {
	authService    AuthService
	tokenService   TokenService
	cookies        *cookie.Binder
	contextManager model.ContextManager
	events         EventRecorder
	logger         *logger.Logger
}

func NewAuth(
	authService AuthService,
	tokenService TokenService,
	cookies *cookie.Binder,
	contextManager model.ContextManager,
	events EventRecorder,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		authService:    authService,
		tokenService:   tokenService,
		cookies:        cookies,
		contextManager: contextManager,
		events:         events,
		logger:         logger,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Remember   bool   `json:"remember"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse is returned by register, login and refresh. The refresh
// token itself only travels in the cookie.
type TokenResponse struct {
	AccessToken string           `json:"accessToken"`
	TokenType   string           `json:"tokenType"`
	ExpiresIn   int64            `json:"expiresIn"`
	User        model.PublicUser `json:"user"`
}

type logoutResponse struct {
	Success bool `json:"success"`
}

// Register creates an account and logs it in.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, opRegister, requireBody(err))
		return
	}
	if err := validateRegister(req); err != nil {
		h.fail(w, opRegister, err)
		return
	}

	h.logger.Debug("Auth handler: processing registration request",
		"username", req.Username,
		"email", req.Email)

	user, err := h.authService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.fail(w, opRegister, err)
		return
	}

	issued, err := h.tokenService.IssueTokens(r.Context(), user, model.IssueOptions{Remember: req.Remember})
	if err != nil {
		h.fail(w, opRegister, err)
		return
	}

	h.respondTokens(w, http.StatusCreated, opRegister, issued)
}

// Login checks credentials and issues a token pair.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, opLogin, requireBody(err))
		return
	}

	identifier := firstNonEmpty(req.Identifier, req.Username, req.Email)
	if identifier == "" {
		h.fail(w, opLogin, apierror.NewErrBadRequest("identifier is required"))
		return
	}
	if req.Password == "" {
		h.fail(w, opLogin, apierror.NewErrBadRequest("password is required"))
		return
	}

	user, err := h.authService.Authenticate(r.Context(), identifier, req.Password)
	if err != nil {
		h.fail(w, opLogin, err)
		return
	}

	issued, err := h.tokenService.IssueTokens(r.Context(), user, model.IssueOptions{Remember: req.Remember})
	if err != nil {
		h.fail(w, opLogin, err)
		return
	}

	h.respondTokens(w, http.StatusOK, opLogin, issued)
}

// Refresh rotates the refresh token taken from the cookie or, failing
// that, from the body.
func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken, err := h.presentedRefreshToken(r)
	if err != nil {
		h.fail(w, opRefresh, err)
		return
	}
	if refreshToken == "" {
		h.fail(w, opRefresh, apierror.NewErrMissingRefreshToken())
		return
	}

	issued, err := h.tokenService.RotateRefreshToken(r.Context(), refreshToken)
	if err != nil {
		if apierror.IsKind(err, apierror.KindUnauthorized) {
			h.cookies.ClearRefreshCookie(w)
		}
		h.fail(w, opRefresh, err)
		return
	}

	h.respondTokens(w, http.StatusOK, opRefresh, issued)
}

// Logout revokes the presented refresh token and clears the cookie.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	refreshToken, err := h.presentedRefreshToken(r)
	if err != nil {
		h.fail(w, opLogout, err)
		return
	}
	if refreshToken == "" {
		h.fail(w, opLogout, apierror.NewErrBadRequest("refresh token is required"))
		return
	}

	if err := h.tokenService.RevokeRefreshToken(r.Context(), refreshToken); err != nil {
		h.fail(w, opLogout, err)
		return
	}

	h.cookies.ClearRefreshCookie(w)
	h.events.RecordAuthEvent(opLogout, metrics.OutcomeSuccess)
	writeJSON(w, http.StatusOK, logoutResponse{Success: true})
}

// Me echoes the claims of the bearer token.
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.contextManager.GetClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.NewErrMissingAuthorizationToken())
		return
	}
	writeJSON(w, http.StatusOK, claims)
}

func (h *Auth) presentedRefreshToken(r *http.Request) (string, error) {
	if token := h.cookies.RefreshToken(r); token != "" {
		return token, nil
	}

	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return req.RefreshToken, nil
}

func (h *Auth) respondTokens(w http.ResponseWriter, status int, op string, issued model.IssuedTokens) {
	h.cookies.SetRefreshCookie(w, issued.RefreshToken, issued.RefreshExpiresIn)
	h.events.RecordAuthEvent(op, metrics.OutcomeSuccess)

	writeJSON(w, status, TokenResponse{
		AccessToken: issued.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(issued.AccessExpiresIn / time.Second),
		User:        issued.User,
	})
}

func (h *Auth) fail(w http.ResponseWriter, op string, err error) {
	apiErr := apierror.From(err)
	if apiErr.Kind == apierror.KindInternal {
		h.logger.Error("Auth handler: request failed",
			"operation", op,
			"error", err.Error())
	}
	h.events.RecordAuthEvent(op, apiErr.Code)
	writeError(w, apiErr)
}

func validateRegister(req registerRequest) error {
	if err := validateUsername(req.Username); err != nil {
		return err
	}
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	return validatePassword(req.Password)
}

// requireBody turns an empty body into a bad request.
func requireBody(err error) error {
	if errors.Is(err, io.EOF) {
		return apierror.NewErrBadRequest("request body is required")
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
