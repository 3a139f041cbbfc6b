package handler

import (
	"net/mail"
	"regexp"
	"unicode/utf8"

	"github.com/dtroode/ansv-auth/internal/apierror"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 8
	maxPasswordLen = 128
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func validateUsername(username string) error {
	if n := len(username); n < minUsernameLen || n > maxUsernameLen {
		return apierror.NewErrBadRequest("username must be between 3 and 32 characters")
	}
	if !usernamePattern.MatchString(username) {
		return apierror.NewErrBadRequest("username may contain only letters, digits, '_', '.' and '-'")
	}
	return nil
}

// validateEmail accepts a bare RFC 5322 address without a display name.
func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return apierror.NewErrBadRequest("email is invalid")
	}
	return nil
}

func validatePassword(password string) error {
	if n := utf8.RuneCountInString(password); n < minPasswordLen || n > maxPasswordLen {
		return apierror.NewErrBadRequest("password must be between 8 and 128 characters")
	}
	return nil
}
