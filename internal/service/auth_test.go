package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/ansv-auth/internal/apierror"
	servermocks "github.com/dtroode/ansv-auth/internal/mocks"
	"github.com/dtroode/ansv-auth/internal/model"
	"github.com/dtroode/ansv-auth/internal/testutil"
)

func TestAuth_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		userStore := servermocks.NewUserStore(t)
		hasher := servermocks.NewPasswordHasher(t)

		userStore.On("GetByUsername", ctx, "alice").Return(model.User{}, model.ErrNotFound).Once()
		userStore.On("GetByEmail", ctx, "alice@example.com").Return(model.User{}, model.ErrNotFound).Once()
		hasher.On("Hash", "Secret123").Return("salt:key", nil).Once()
		userStore.On("Create", ctx, mock.MatchedBy(func(u model.User) bool {
			return u.Username == "alice" &&
				u.Email == "alice@example.com" &&
				u.PasswordHash == "salt:key" &&
				u.RoleID == model.DefaultRoleID &&
				u.Plan == model.DefaultPlan &&
				u.ID != uuid.Nil &&
				u.EmailVerifiedAt == nil
		})).Return(func(_ context.Context, u model.User) (model.User, error) {
			return u, nil
		}).Once()

		svc := NewAuth(userStore, hasher, testutil.MakeNoopLogger())

		user, err := svc.Register(ctx, "alice", "alice@example.com", "Secret123")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.False(t, user.CreatedAt.IsZero())
	})

	t.Run("username taken", func(t *testing.T) {
		userStore := servermocks.NewUserStore(t)
		hasher := servermocks.NewPasswordHasher(t)

		userStore.On("GetByUsername", ctx, "alice").Return(model.User{ID: uuid.New()}, nil).Once()

		svc := NewAuth(userStore, hasher, testutil.MakeNoopLogger())

		_, err := svc.Register(ctx, "alice", "alice@example.com", "Secret123")
		require.Error(t, err)
		assert.True(t, apierror.IsKind(err, apierror.KindConflict))
		hasher.AssertNotCalled(t, "Hash", mock.Anything)
	})

	t.Run("email taken", func(t *testing.T) {
		userStore := servermocks.NewUserStore(t)
		hasher := servermocks.NewPasswordHasher(t)

		userStore.On("GetByUsername", ctx, "alice").Return(model.User{}, model.ErrNotFound).Once()
		userStore.On("GetByEmail", ctx, "alice@example.com").Return(model.User{ID: uuid.New()}, nil).Once()

		svc := NewAuth(userStore, hasher, testutil.MakeNoopLogger())

		_, err := svc.Register(ctx, "alice", "alice@example.com", "Secret123")
		require.Error(t, err)
		assert.True(t, apierror.IsKind(err, apierror.KindConflict))
	})

	t.Run("lost race on insert", func(t *testing.T) {
		userStore := servermocks.NewUserStore(t)
		hasher := servermocks.NewPasswordHasher(t)

		userStore.On("GetByUsername", ctx, "alice").Return(model.User{}, model.ErrNotFound).Once()
		userStore.On("GetByEmail", ctx, "alice@example.com").Return(model.User{}, model.ErrNotFound).Once()
		hasher.On("Hash", "Secret123").Return("salt:key", nil).Once()
		userStore.On("Create", ctx, mock.Anything).Return(model.User{}, model.ErrEmailTaken).Once()

		svc := NewAuth(userStore, hasher, testutil.MakeNoopLogger())

		_, err := svc.Register(ctx, "alice", "alice@example.com", "Secret123")
		require.Error(t, err)
		assert.True(t, apierror.IsKind(err, apierror.KindConflict))
	})

	t.Run("store failure is not a conflict", func(t *testing.T) {
		userStore := servermocks.NewUserStore(t)
		hasher := servermocks.NewPasswordHasher(t)

		userStore.On("GetByUsername", ctx, "alice").Return(model.User{}, errors.New("connection refused")).Once()

		svc := NewAuth(userStore, hasher, testutil.MakeNoopLogger())

		_, err := svc.Register(ctx, "alice", "alice@example.com", "Secret123")
		require.Error(t, err)
		assert.Equal(t, apierror.KindInternal, apierror.From(err).Kind)
	})

	t.Run("hash failure", func(t *testing.T) {
		userStore := servermocks.NewUserStore(t)
		hasher := servermocks.NewPasswordHasher(t)

		userStore.On("GetByUsername", ctx, "alice").Return(model.User{}, model.ErrNotFound).Once()
		userStore.On("GetByEmail", ctx, "alice@example.com").Return(model.User{}, model.ErrNotFound).Once()
		hasher.On("Hash", "Secret123").Return("", assert.AnError).Once()

		svc := NewAuth(userStore, hasher, testutil.MakeNoopLogger())

		_, err := svc.Register(ctx, "alice", "alice@example.com", "Secret123")
		require.ErrorIs(t, err, assert.AnError)
	})
}

func TestAuth_Authenticate(t *testing.T) {
	ctx := context.Background()
	stored := model.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com", PasswordHash: "salt:key"}

	t.Run("success by username", func(t *testing.T) {
		userStore := servermocks.NewUserStore(t)
		hasher := servermocks.NewPasswordHasher(t)

		userStore.On("GetByIdentifier", ctx, "alice").Return(stored, nil).Once()
		hasher.On("Verify", "Secret123", "salt:key").Return(true).Once()

		svc := NewAuth(userStore, hasher, testutil.MakeNoopLogger())

		user, err := svc.Authenticate(ctx, "alice", "Secret123")
		require.NoError(t, err)
		assert.Equal(t, stored.ID, user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		userStore := servermocks.NewUserStore(t)
		hasher := servermocks.NewPasswordHasher(t)

		userStore.On("GetByIdentifier", ctx, "alice@example.com").Return(stored, nil).Once()
		hasher.On("Verify", "nope", "salt:key").Return(false).Once()

		svc := NewAuth(userStore, hasher, testutil.MakeNoopLogger())

		_, err := svc.Authenticate(ctx, "alice@example.com", "nope")
		require.Error(t, err)
		assert.True(t, apierror.IsKind(err, apierror.KindUnauthorized))
	})

	t.Run("unknown user looks like wrong password", func(t *testing.T) {
		userStore := servermocks.NewUserStore(t)
		hasher := servermocks.NewPasswordHasher(t)

		userStore.On("GetByIdentifier", ctx, "ghost").Return(model.User{}, model.ErrNotFound).Twice()
		hasher.On("Hash", timingPassword).Return("dummy:hash", nil).Once()
		hasher.On("Verify", "whatever", "dummy:hash").Return(false).Twice()

		svc := NewAuth(userStore, hasher, testutil.MakeNoopLogger())

		_, errUnknown := svc.Authenticate(ctx, "ghost", "whatever")
		require.Error(t, errUnknown)
		_, errAgain := svc.Authenticate(ctx, "ghost", "whatever")
		require.Error(t, errAgain)

		wrongPassword := apierror.NewErrInvalidCredentials()
		assert.Equal(t, wrongPassword.Message, apierror.From(errUnknown).Message)
		assert.Equal(t, wrongPassword.Code, apierror.From(errUnknown).Code)
	})

	t.Run("store failure", func(t *testing.T) {
		userStore := servermocks.NewUserStore(t)
		hasher := servermocks.NewPasswordHasher(t)

		userStore.On("GetByIdentifier", ctx, "alice").Return(model.User{}, errors.New("timeout")).Once()

		svc := NewAuth(userStore, hasher, testutil.MakeNoopLogger())

		_, err := svc.Authenticate(ctx, "alice", "Secret123")
		require.Error(t, err)
		assert.False(t, apierror.IsKind(err, apierror.KindUnauthorized))
	})
}
