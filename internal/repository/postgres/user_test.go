package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/ansv-auth/internal/model"
)

var userColumnNames = []string{
	"id", "username", "email", "password_hash", "role_id", "plan",
	"email_verified_at", "created_at", "updated_at",
}

func testUser() model.User {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return model.User{
		ID:           uuid.MustParse("0a4f5bb4-3f0e-4f3e-9a55-0a57d1e0b7a1"),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "73616c74:6b6579",
		RoleID:       model.DefaultRoleID,
		Plan:         model.DefaultPlan,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func userRow(u model.User) *pgxmock.Rows {
	return pgxmock.NewRows(userColumnNames).AddRow(
		u.ID, u.Username, u.Email, u.PasswordHash, u.RoleID, u.Plan,
		u.EmailVerifiedAt, u.CreatedAt, u.UpdatedAt,
	)
}

func TestNewUserRepository(t *testing.T) {
	db := &Connection{}
	repo := NewUserRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestUserRepository_Create(t *testing.T) {
	user := testUser()
	insertArgs := []any{
		user.ID, user.Username, user.Email, user.PasswordHash, user.RoleID, user.Plan,
		user.EmailVerifiedAt, user.CreatedAt, user.UpdatedAt,
	}

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		errMsg    string
	}{
		{
			name: "success",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs(insertArgs...).
					WillReturnRows(userRow(user))
			},
		},
		{
			name: "username taken",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs(insertArgs...).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_username_key"})
			},
			wantErr: model.ErrUsernameTaken,
		},
		{
			name: "email taken",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs(insertArgs...).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})
			},
			wantErr: model.ErrEmailTaken,
		},
		{
			name: "unknown unique constraint",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs(insertArgs...).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_pkey"})
			},
			wantErr: model.ErrAlreadyExists,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs(insertArgs...).
					WillReturnError(errors.New("connection refused"))
			},
			errMsg: "failed to create user: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewUserRepository(mock)
			got, err := repo.Create(context.Background(), user)

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, model.ErrAlreadyExists)
			case tt.errMsg != "":
				require.EqualError(t, err, tt.errMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, user, got)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_Lookups(t *testing.T) {
	user := testUser()
	verified := user.CreatedAt.Add(time.Hour)
	user.EmailVerifiedAt = &verified

	lookups := []struct {
		name  string
		arg   any
		query string
		call  func(r *UserRepository) (model.User, error)
	}{
		{
			name:  "by id",
			arg:   user.ID,
			query: `WHERE id = \$1`,
			call: func(r *UserRepository) (model.User, error) {
				return r.GetByID(context.Background(), user.ID)
			},
		},
		{
			name:  "by username",
			arg:   user.Username,
			query: `WHERE username = \$1`,
			call: func(r *UserRepository) (model.User, error) {
				return r.GetByUsername(context.Background(), user.Username)
			},
		},
		{
			name:  "by email",
			arg:   user.Email,
			query: `WHERE email = \$1`,
			call: func(r *UserRepository) (model.User, error) {
				return r.GetByEmail(context.Background(), user.Email)
			},
		},
		{
			name:  "by identifier",
			arg:   user.Email,
			query: `WHERE username = \$1 OR email = \$1`,
			call: func(r *UserRepository) (model.User, error) {
				return r.GetByIdentifier(context.Background(), user.Email)
			},
		},
	}

	for _, l := range lookups {
		t.Run(l.name+"/found", func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectQuery(l.query).WithArgs(l.arg).WillReturnRows(userRow(user))

			got, err := l.call(NewUserRepository(mock))
			require.NoError(t, err)
			assert.Equal(t, user, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run(l.name+"/not found", func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectQuery(l.query).WithArgs(l.arg).WillReturnError(pgx.ErrNoRows)

			_, err = l.call(NewUserRepository(mock))
			require.ErrorIs(t, err, model.ErrNotFound)
			assert.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run(l.name+"/database error", func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectQuery(l.query).WithArgs(l.arg).WillReturnError(errors.New("timeout"))

			_, err = l.call(NewUserRepository(mock))
			require.Error(t, err)
			assert.NotErrorIs(t, err, model.ErrNotFound)
			assert.Contains(t, err.Error(), "timeout")
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
