package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/ansv-auth/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

const userColumns = `id, username, email, password_hash, role_id, plan, email_verified_at, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return r.getOne(ctx, "id", `SELECT `+userColumns+` FROM users WHERE id = ?`, id.String())
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.getOne(ctx, "username", `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, "email", `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *UserRepository) GetByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE username = ?1 OR email = ?1
		 ORDER BY (username = ?1) DESC
		 LIMIT 1`
	return r.getOne(ctx, "identifier", query, identifier)
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	var verifiedAt sql.NullString
	if user.EmailVerifiedAt != nil {
		verifiedAt = sql.NullString{String: formatTime(*user.EmailVerifiedAt), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID.String(), user.Username, user.Email, user.PasswordHash, user.RoleID, user.Plan,
		verifiedAt, formatTime(user.CreatedAt), formatTime(user.UpdatedAt),
	)
	if err != nil {
		if mapped := uniqueViolation(err); mapped != nil {
			return model.User{}, mapped
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return r.GetByID(ctx, user.ID)
}

func (r *UserRepository) getOne(ctx context.Context, by, query string, arg any) (model.User, error) {
	var (
		user                 model.User
		id                   string
		verifiedAt           sql.NullString
		createdAt, updatedAt string
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&id, &user.Username, &user.Email, &user.PasswordHash, &user.RoleID, &user.Plan,
		&verifiedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by %s: %w", by, err)
	}

	if user.ID, err = uuid.Parse(id); err != nil {
		return model.User{}, fmt.Errorf("failed to parse user id: %w", err)
	}
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.User{}, err
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.User{}, err
	}
	if verifiedAt.Valid {
		t, err := parseTime(verifiedAt.String)
		if err != nil {
			return model.User{}, err
		}
		user.EmailVerifiedAt = &t
	}

	return user, nil
}
