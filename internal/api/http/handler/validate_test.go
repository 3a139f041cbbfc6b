package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	valid := []string{"abc", "alice", "a.b-c_d", strings.Repeat("x", 32)}
	invalid := []string{"", "ab", strings.Repeat("x", 33), "has space", "ünï", "semi;colon"}

	for _, u := range valid {
		assert.NoError(t, validateUsername(u), u)
	}
	for _, u := range invalid {
		assert.Error(t, validateUsername(u), u)
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, validateEmail("alice@example.com"))
	assert.NoError(t, validateEmail("a.b+tag@sub.example.org"))

	for _, e := range []string{"", "alice", "alice@", "Alice <alice@example.com>", " alice@example.com"} {
		assert.Error(t, validateEmail(e), e)
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, validatePassword("Secret123"))
	assert.NoError(t, validatePassword(strings.Repeat("p", 128)))
	assert.Error(t, validatePassword("short"))
	assert.Error(t, validatePassword(strings.Repeat("p", 129)))
}
