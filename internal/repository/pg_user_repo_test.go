package repository_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricirt/consent-sync/internal/db"
	"github.com/ricirt/consent-sync/internal/domain"
	"github.com/ricirt/consent-sync/internal/repository"
)

// newTestPool connects to DATABASE_URL and applies the migrations. Tests
// using it are skipped when no database is configured.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	require.NoError(t, db.Migrate(url, "file://../../migrations"))

	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

// insertUser adds a user and, unless meta is nil, its flag row.
func insertUser(t *testing.T, pool *pgxpool.Pool, email string, meta *string) int64 {
	t.Helper()
	ctx := context.Background()

	var id int64
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO users (email) VALUES ($1) RETURNING id`, email).Scan(&id))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, id)
	})

	if meta != nil {
		_, err := pool.Exec(ctx,
			`INSERT INTO usermeta (user_id, meta_key, meta_value) VALUES ($1, $2, $3)`,
			id, domain.SubscribedMetaKey, *meta)
		require.NoError(t, err)
	}
	return id
}

func ptr(s string) *string { return &s }

func TestPgUserRepository_FindEligible(t *testing.T) {
	pool := newTestPool(t)
	repo := repository.NewPgUserRepository(pool)
	ctx := context.Background()

	// Only rows created by this test are past the baseline cursor.
	var baseline int64
	require.NoError(t, pool.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM users`).Scan(&baseline))

	missing := insertUser(t, pool, "missing@example.com", nil)
	empty := insertUser(t, pool, "empty@example.com", ptr(""))
	zero := insertUser(t, pool, "zero@example.com", ptr("0"))
	insertUser(t, pool, "one@example.com", ptr("1"))
	insertUser(t, pool, "optout@example.com", ptr("unsubscribed"))
	insertUser(t, pool, "", nil)

	ids, err := repo.FindEligible(ctx, baseline, 100)
	require.NoError(t, err)
	assert.Equal(t, []int64{missing, empty, zero}, ids)

	ids, err = repo.FindEligible(ctx, baseline, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{missing, empty}, ids)

	ids, err = repo.FindEligible(ctx, empty, 100)
	require.NoError(t, err)
	assert.Equal(t, []int64{zero}, ids)
}

func TestPgUserRepository_Flags(t *testing.T) {
	pool := newTestPool(t)
	repo := repository.NewPgUserRepository(pool)
	ctx := context.Background()

	id := insertUser(t, pool, "flag@example.com", nil)

	flag, err := repo.GetFlag(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.FlagUnset, flag)

	require.NoError(t, repo.SetFlag(ctx, id, domain.FlagNo))
	require.NoError(t, repo.SetFlag(ctx, id, domain.FlagSubscribed))
	flag, err = repo.GetFlag(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.FlagSubscribed, flag)

	user, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "flag@example.com", user.Email)

	_, err = repo.GetByID(ctx, -1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
