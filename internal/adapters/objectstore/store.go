package objectstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swift-nav/flow/internal/domain"
	"github.com/swift-nav/flow/internal/ports"
)

// PostgresObjectStore implements ports.ObjectStore as a flat
// (uid_prefix, key) -> bytes table, per spec.md section 4.7.
type PostgresObjectStore struct {
	pool *pgxpool.Pool
}

func NewPostgresObjectStore(pool *pgxpool.Pool) ports.ObjectStore {
	return &PostgresObjectStore{pool: pool}
}

func (s *PostgresObjectStore) ListKeys(ctx context.Context, uidPrefix domain.Uid) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT key FROM objects WHERE uid_prefix = $1 ORDER BY key`, string(uidPrefix))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *PostgresObjectStore) Get(ctx context.Context, uidPrefix domain.Uid, key string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT bytes FROM objects WHERE uid_prefix = $1 AND key = $2`,
		string(uidPrefix), key,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewProtocolError("no object at %s/%s", uidPrefix, key)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *PostgresObjectStore) Put(ctx context.Context, uidPrefix domain.Uid, key string, data []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO objects (uid_prefix, key, bytes) VALUES ($1, $2, $3)
		 ON CONFLICT (uid_prefix, key) DO UPDATE SET bytes = EXCLUDED.bytes`,
		string(uidPrefix), key, data,
	)
	return err
}
