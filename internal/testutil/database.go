package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/swift-nav/flow/internal/adapters/config"
)

// MigrationSQL builds the Object Store's table, a flat
// (uid_prefix, key) -> bytes map per spec.md section 4.7, and the
// event_log audit table keyed by (workflow_uid, event_id).
const MigrationSQL = `
CREATE TABLE objects (
	uid_prefix TEXT NOT NULL,
	key        TEXT NOT NULL,
	bytes      BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (uid_prefix, key)
);

CREATE INDEX idx_objects_uid_prefix ON objects(uid_prefix);

CREATE TABLE event_log (
	workflow_uid TEXT NOT NULL,
	event_id     BIGINT NOT NULL,
	event_type   TEXT NOT NULL,
	payload      JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (workflow_uid, event_id)
);
`

// SetupTestDatabase spins up a disposable Postgres container credentialed
// from config.DatabaseConfig's defaults, so the container's user/password
// track whatever the rest of the module's adapters would connect with,
// rather than a second hardcoded test/test pair.
func SetupTestDatabase(t *testing.T, ctx context.Context) (testcontainers.Container, *pgxpool.Pool) {
	cfg := config.LoadDatabaseConfig()

	pgContainer, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15"),
		postgres.WithDatabase(cfg.DBName+"_test"),
		postgres.WithUsername(cfg.User),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, MigrationSQL)
	require.NoError(t, err)

	return pgContainer, pool
}

func CleanupTestDatabase(t *testing.T, ctx context.Context, container testcontainers.Container, pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
	if container != nil {
		err := container.Terminate(ctx)
		require.NoError(t, err)
	}
}

func TruncateTables(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	_, err := pool.Exec(ctx, "TRUNCATE TABLE objects, event_log")
	require.NoError(t, err)
}
