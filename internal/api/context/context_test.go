package context

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dtroode/ansv-auth/internal/model"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager()
	claims := model.AccessClaims{UserID: uuid.New(), Username: "alice", RoleID: 1, Plan: "free"}

	ctx := m.SetClaimsToContext(context.Background(), claims)

	got, ok := m.GetClaimsFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, claims, got)
}

func TestManager_Missing(t *testing.T) {
	m := NewManager()

	_, ok := m.GetClaimsFromContext(context.Background())
	assert.False(t, ok)

	ctx := context.WithValue(context.Background(), struct{}{}, "noise")
	_, ok = m.GetClaimsFromContext(ctx)
	assert.False(t, ok)
}
