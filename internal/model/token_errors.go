package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by stores when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned by stores on unique constraint violations.
	ErrAlreadyExists = errors.New("already exists")

	ErrUsernameTaken = fmt.Errorf("username %w", ErrAlreadyExists)
	ErrEmailTaken    = fmt.Errorf("email %w", ErrAlreadyExists)

	// ErrTokenInvalid covers malformed tokens, bad signatures and wrong token types.
	ErrTokenInvalid   = errors.New("token invalid")
	ErrTokenExpired   = errors.New("token expired")
	ErrSessionExpired = errors.New("session expired")
)
