// Package objectstore implements the Object Store half of the Service
// Client Contract (spec.md section 4.7) against Postgres: a flat
// uid-prefixed key->bytes map backed by a single table.
package objectstore

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"github.com/swift-nav/flow/internal/adapters/config"
)

// NewPostgresConnection opens a database/sql handle for the health
// server's readiness check, which needs a single lightweight Ping
// rather than a full pool.
func NewPostgresConnection() (*sql.DB, error) {
	cfg := config.LoadDatabaseConfig()

	db, err := sql.Open("postgres", cfg.SQLDataSourceName())
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func NewPostgresPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg := config.LoadDatabaseConfig()

	pool, err := pgxpool.New(ctx, cfg.PgxConnString())
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return pool, nil
}
