// Package password derives and verifies salted scrypt password hashes.
//
// Stored hashes have the form "<salt hex>:<derived key hex>". The salt is fed
// to scrypt in its hex form, so hashes stay compatible with other
// implementations that treat the salt as text.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"

	"github.com/dtroode/ansv-auth/internal/model"
)

const separator = ":"

var _ model.PasswordHasher = (*Scrypt)(nil)

// ErrInvalidParams is returned by NewScrypt for parameters scrypt cannot use.
var ErrInvalidParams = errors.New("invalid scrypt parameters")

// Params are the scrypt cost parameters.
type Params struct {
	N       int
	R       int
	P       int
	KeyLen  int
	SaltLen int
}

// DefaultParams returns N=2^14, r=8, p=1 with a 64-byte key and 16-byte salt.
func DefaultParams() Params {
	return Params{N: 16384, R: 8, P: 1, KeyLen: 64, SaltLen: 16}
}

// Validate checks the parameters without running scrypt.
func (p Params) Validate() error {
	if p.N <= 1 || p.N&(p.N-1) != 0 {
		return fmt.Errorf("%w: N must be a power of two greater than 1", ErrInvalidParams)
	}
	if p.R <= 0 || p.P <= 0 {
		return fmt.Errorf("%w: r and p must be positive", ErrInvalidParams)
	}
	if p.KeyLen < 32 {
		return fmt.Errorf("%w: key length must be at least 32 bytes", ErrInvalidParams)
	}
	if p.SaltLen < 16 {
		return fmt.Errorf("%w: salt length must be at least 16 bytes", ErrInvalidParams)
	}
	return nil
}

// Scrypt implements model.PasswordHasher.
type Scrypt struct {
	params Params
}

// NewScrypt creates a hasher with the given parameters.
func NewScrypt(params Params) (*Scrypt, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Scrypt{params: params}, nil
}

// Hash returns "<salt>:<key>" for password using a fresh random salt.
func (s *Scrypt) Hash(password string) (string, error) {
	salt := make([]byte, s.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	saltHex := hex.EncodeToString(salt)

	key, err := s.derive(password, saltHex)
	if err != nil {
		return "", err
	}

	return saltHex + separator + hex.EncodeToString(key), nil
}

// Verify reports whether password matches storedHash. Malformed hashes never
// match.
func (s *Scrypt) Verify(password, storedHash string) bool {
	saltHex, keyHex, ok := strings.Cut(storedHash, separator)
	if !ok || saltHex == "" || keyHex == "" {
		return false
	}

	expected, err := hex.DecodeString(keyHex)
	if err != nil || len(expected) != s.params.KeyLen {
		return false
	}

	actual, err := s.derive(password, saltHex)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(actual, expected) == 1
}

func (s *Scrypt) derive(password, salt string) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), []byte(salt), s.params.N, s.params.R, s.params.P, s.params.KeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}
