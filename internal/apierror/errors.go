// Package apierror defines errors that are safe to show to API clients.
package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// Kind classifies an APIError.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindConflict
)

// Machine-readable error codes.
const (
	CodeBadRequest   = "bad_request"
	CodeUnauthorized = "unauthorized"
	CodeConflict     = "conflict"
	CodeInternal     = "internal_error"
)

// APIError is an error with a client-facing message. The wrapped cause is
// for logs only and is never serialized.
type APIError struct {
	Kind       Kind
	Code       string
	Message    string
	HTTPStatus int
	GRPCCode   codes.Code
	cause      error
}

func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

func newError(kind Kind, message string, cause error) *APIError {
	e := &APIError{Kind: kind, Message: message, cause: cause}
	switch kind {
	case KindBadRequest:
		e.Code, e.HTTPStatus, e.GRPCCode = CodeBadRequest, http.StatusBadRequest, codes.InvalidArgument
	case KindUnauthorized:
		e.Code, e.HTTPStatus, e.GRPCCode = CodeUnauthorized, http.StatusUnauthorized, codes.Unauthenticated
	case KindConflict:
		e.Code, e.HTTPStatus, e.GRPCCode = CodeConflict, http.StatusConflict, codes.AlreadyExists
	default:
		e.Code, e.HTTPStatus, e.GRPCCode = CodeInternal, http.StatusInternalServerError, codes.Internal
	}
	return e
}

// From extracts an APIError from err, wrapping anything else as internal.
func From(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewErrInternalServerError(err)
}

// IsKind reports whether err is an APIError of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

func NewErrBadRequest(message string) *APIError {
	return newError(KindBadRequest, message, nil)
}

func NewErrInvalidCredentials() *APIError {
	return newError(KindUnauthorized, "invalid credentials", nil)
}

// NewErrInvalidRefreshToken is used for every refresh failure so that clients
// cannot tell which check rejected the token.
func NewErrInvalidRefreshToken() *APIError {
	return newError(KindUnauthorized, "invalid or expired refresh token", nil)
}

func NewErrMissingRefreshToken() *APIError {
	return newError(KindUnauthorized, "refresh token is required", nil)
}

func NewErrMissingAuthorizationToken() *APIError {
	return newError(KindUnauthorized, "authorization token is required", nil)
}

func NewErrInvalidAuthorizationToken() *APIError {
	return newError(KindUnauthorized, "invalid or expired authorization token", nil)
}

func NewErrUsernameTaken(username string) *APIError {
	return newError(KindConflict, fmt.Sprintf("username %q is already taken", username), nil)
}

func NewErrEmailTaken(email string) *APIError {
	return newError(KindConflict, fmt.Sprintf("email %q is already taken", email), nil)
}

func NewErrInternalServerError(err error) *APIError {
	return newError(KindInternal, "internal server error", err)
}
