package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultRoleID is assigned to every newly registered user.
const DefaultRoleID = 1

// DefaultPlan is the subscription plan of a newly registered user.
const DefaultPlan = "free"

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	// GetByIdentifier matches identifier against both username and email.
	GetByIdentifier(ctx context.Context, identifier string) (User, error)
	Create(ctx context.Context, user User) (User, error)
}

// User represents a stored user with authentication material.
type User struct {
	ID              uuid.UUID
	Username        string
	Email           string
	PasswordHash    string
	RoleID          int
	Plan            string
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PublicUser is the part of User that may leave the server.
type PublicUser struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	RoleID        int       `json:"roleId"`
	Plan          string    `json:"plan"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Public strips authentication material from the user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		RoleID:        u.RoleID,
		Plan:          u.Plan,
		EmailVerified: u.EmailVerifiedAt != nil,
		CreatedAt:     u.CreatedAt,
	}
}
