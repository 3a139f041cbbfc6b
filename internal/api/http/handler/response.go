package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dtroode/ansv-auth/internal/apierror"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError serializes only the client-facing part of apiErr.
func writeError(w http.ResponseWriter, apiErr *apierror.APIError) {
	writeJSON(w, apiErr.HTTPStatus, ErrorResponse{
		Status:  apiErr.HTTPStatus,
		Code:    apiErr.Code,
		Message: apiErr.Message,
	})
}

// decodeJSON reads a single JSON object from the body. An empty body is
// reported as io.EOF so callers with optional bodies can ignore it.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return io.EOF
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return apierror.NewErrBadRequest(fmt.Sprintf("request body exceeds %d bytes", maxBytesErr.Limit))
		}
		return apierror.NewErrBadRequest("invalid request body")
	}
	if dec.More() {
		return apierror.NewErrBadRequest("invalid request body")
	}
	return nil
}
