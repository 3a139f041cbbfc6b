package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/ansv-auth/internal/apierror"
	"github.com/dtroode/ansv-auth/internal/logger"
	"github.com/dtroode/ansv-auth/internal/model"
)

// timingPassword is hashed once and verified against when a login names an
// unknown user, so both failure paths cost one KDF run.
const timingPassword = "ansv-timing-equaliser"

// Auth registers users and checks their credentials.
type Auth struct {
	userStore model.UserStore
	hasher    model.PasswordHasher
	logger    *logger.Logger
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuth(userStore model.UserStore, hasher model.PasswordHasher, logger *logger.Logger) *Auth {
	return &Auth{
		userStore: userStore,
		hasher:    hasher,
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates a user. It does not issue tokens.
func (a *Auth) Register(ctx context.Context, username, email, password string) (model.User, error) {
	a.logger.Debug("Auth service: starting user registration",
		"username", username,
		"email", email)

	if err := a.ensureAvailable(ctx, username, email); err != nil {
		return model.User{}, err
	}

	passwordHash, err := a.hasher.Hash(password)
	if err != nil {
		a.logger.Error("Auth service: failed to hash password",
			"username", username,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := a.now().UTC()
	user := model.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		RoleID:       model.DefaultRoleID,
		Plan:         model.DefaultPlan,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	savedUser, err := a.userStore.Create(ctx, user)
	switch {
	case errors.Is(err, model.ErrUsernameTaken):
		return model.User{}, apierror.NewErrUsernameTaken(username)
	case errors.Is(err, model.ErrEmailTaken):
		return model.User{}, apierror.NewErrEmailTaken(email)
	case err != nil:
		a.logger.Error("Auth service: failed to create user",
			"username", username,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	a.logger.Info("Auth service: user registration completed successfully",
		"user_id", savedUser.ID,
		"username", username)

	return savedUser, nil
}

func (a *Auth) ensureAvailable(ctx context.Context, username, email string) error {
	_, err := a.userStore.GetByUsername(ctx, username)
	if err == nil {
		a.logger.Info("Auth service: username already exists",
			"username", username)
		return apierror.NewErrUsernameTaken(username)
	}
	if !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to get user by username",
			"username", username,
			"error", err.Error())
		return fmt.Errorf("failed to get user by username: %w", err)
	}

	_, err = a.userStore.GetByEmail(ctx, email)
	if err == nil {
		a.logger.Info("Auth service: email already exists",
			"email", email)
		return apierror.NewErrEmailTaken(email)
	}
	if !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return fmt.Errorf("failed to get user by email: %w", err)
	}

	return nil
}

// Authenticate resolves identifier as a username or an email and checks the
// password. Unknown users and wrong passwords yield the same error.
func (a *Auth) Authenticate(ctx context.Context, identifier, password string) (model.User, error) {
	a.logger.Debug("Auth service: starting user login",
		"identifier", identifier)

	user, err := a.userStore.GetByIdentifier(ctx, identifier)
	if errors.Is(err, model.ErrNotFound) {
		a.burnVerify(password)
		a.logger.Info("Auth service: login rejected",
			"identifier", identifier)
		return model.User{}, apierror.NewErrInvalidCredentials()
	}
	if err != nil {
		a.logger.Error("Auth service: failed to get user by identifier",
			"identifier", identifier,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to get user by identifier: %w", err)
	}

	if !a.hasher.Verify(password, user.PasswordHash) {
		a.logger.Info("Auth service: login rejected",
			"identifier", identifier)
		return model.User{}, apierror.NewErrInvalidCredentials()
	}

	a.logger.Info("Auth service: login completed successfully",
		"user_id", user.ID)

	return user, nil
}

func (a *Auth) burnVerify(password string) {
	a.dummyOnce.Do(func() {
		hash, err := a.hasher.Hash(timingPassword)
		if err != nil {
			a.logger.Warn("Auth service: failed to prepare timing hash",
				"error", err.Error())
			return
		}
		a.dummyHash = hash
	})
	if a.dummyHash != "" {
		_ = a.hasher.Verify(password, a.dummyHash)
	}
}
