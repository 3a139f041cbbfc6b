//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dtroode/ansv-auth/internal/model"
	repo "github.com/dtroode/ansv-auth/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "ansv_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/ansv_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newUser(name string) model.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return model.User{
		ID:           uuid.New(),
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "00:00",
		RoleID:       model.DefaultRoleID,
		Plan:         model.DefaultPlan,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestRepositories_CRUD(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn, 5)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.Ping(ctx))

	ur := repo.NewUserRepository(conn)
	sr := repo.NewSessionRepository(conn)

	u := newUser("crud_user")

	t.Run("user_repository", func(t *testing.T) {
		saved, err := ur.Create(ctx, u)
		require.NoError(t, err)
		require.Equal(t, u.ID, saved.ID)

		byEmail, err := ur.GetByEmail(ctx, u.Email)
		require.NoError(t, err)
		require.Equal(t, u.ID, byEmail.ID)

		byIdentifier, err := ur.GetByIdentifier(ctx, u.Username)
		require.NoError(t, err)
		require.Equal(t, u.ID, byIdentifier.ID)

		dup := newUser("crud_user")
		_, err = ur.Create(ctx, dup)
		require.ErrorIs(t, err, model.ErrUsernameTaken)

		dup = newUser("other_user")
		dup.Email = u.Email
		_, err = ur.Create(ctx, dup)
		require.ErrorIs(t, err, model.ErrEmailTaken)

		_, err = ur.GetByID(ctx, uuid.New())
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("session_repository", func(t *testing.T) {
		now := time.Now().UTC()
		first, err := sr.ReplaceForUser(ctx, model.Session{
			ID: "s1", UserID: u.ID, TokenHash: "h1", ExpiresAt: now.Add(time.Hour), CreatedAt: now,
		})
		require.NoError(t, err)

		_, err = sr.ReplaceForUser(ctx, model.Session{
			ID: "s2", UserID: u.ID, TokenHash: "h2", ExpiresAt: now.Add(time.Hour), CreatedAt: now,
		})
		require.NoError(t, err)

		_, err = sr.FindByTokenHash(ctx, first.TokenHash)
		require.ErrorIs(t, err, model.ErrNotFound)

		got, err := sr.FindByTokenHash(ctx, "h2")
		require.NoError(t, err)
		require.Equal(t, "s2", got.ID)

		consumed, err := sr.ConsumeByTokenHash(ctx, "h2")
		require.NoError(t, err)
		require.Equal(t, "s2", consumed.ID)
		_, err = sr.ConsumeByTokenHash(ctx, "h2")
		require.ErrorIs(t, err, model.ErrNotFound)

		require.NoError(t, sr.DeleteByTokenHash(ctx, "h2"))
		require.NoError(t, sr.DeleteByTokenHash(ctx, "h2"))

		_, err = sr.ReplaceForUser(ctx, model.Session{
			ID: "s3", UserID: u.ID, TokenHash: "h3", ExpiresAt: now.Add(-time.Minute), CreatedAt: now,
		})
		require.NoError(t, err)
		n, err := sr.DeleteExpired(ctx, now)
		require.NoError(t, err)
		require.Equal(t, int64(1), n)
	})
}

func TestSessionRepository_ConcurrentReplaceKeepsOneSession(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn, 5)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	u := newUser("racer")
	_, err = repo.NewUserRepository(conn).Create(ctx, u)
	require.NoError(t, err)

	sr := repo.NewSessionRepository(conn)
	now := time.Now().UTC()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = sr.ReplaceForUser(ctx, model.Session{
				ID:        fmt.Sprintf("race-%d", i),
				UserID:    u.ID,
				TokenHash: fmt.Sprintf("race-hash-%d", i),
				ExpiresAt: now.Add(time.Hour),
				CreatedAt: now,
			})
		}()
	}
	wg.Wait()

	var count int
	err = conn.QueryRow(ctx, `SELECT count(*) FROM sessions WHERE user_id = $1`, u.ID).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
