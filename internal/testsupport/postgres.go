//go:build integration

// Package testsupport starts throwaway PostgreSQL containers for integration tests.
package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

const image = "postgres:16-alpine"

// StartPostgres runs a container with db/schema.sql applied and returns its
// connection string. The container is terminated on test cleanup.
func StartPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()

	pg, err := postgrescontainer.Run(ctx, image,
		postgrescontainer.WithDatabase("gym"),
		postgrescontainer.WithUsername("gym"),
		postgrescontainer.WithPassword("gym"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))

	applySchema(t, ctx, connStr)
	return connStr
}

// NewPool opens a pool closed on test cleanup.
func NewPool(t *testing.T, ctx context.Context, connStr string) *pgxpool.Pool {
	t.Helper()
	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

// Truncate empties both tables.
func Truncate(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(ctx, `TRUNCATE members, workout_sessions`)
	require.NoError(t, err)
}

func applySchema(t *testing.T, ctx context.Context, connStr string) {
	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	contents, err := os.ReadFile(resolvePath(t, "../../db/schema.sql"))
	require.NoError(t, err)

	_, err = pool.Exec(ctx, string(contents))
	require.NoError(t, err)
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
