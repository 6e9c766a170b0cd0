// Package history implements a durable append-only audit log of
// HistoryEvents against Postgres, mirroring the teacher's
// job_runs/workflow_runs audit tables: the live Workflow Service
// transport (Redis) is the system of record for replay, this is a
// side channel for local development and debugging.
package history

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swift-nav/flow/internal/domain"
	"github.com/swift-nav/flow/internal/ports"
)

// PostgresEventLog appends every HistoryEvent it sees to a flat table
// keyed by (workflow_uid, event_id).
type PostgresEventLog struct {
	pool *pgxpool.Pool
}

func NewPostgresEventLog(pool *pgxpool.Pool) ports.EventLog {
	return &PostgresEventLog{pool: pool}
}

func (l *PostgresEventLog) Append(ctx context.Context, uid domain.Uid, event domain.HistoryEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = l.pool.Exec(ctx,
		`INSERT INTO event_log (workflow_uid, event_id, event_type, payload)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (workflow_uid, event_id) DO NOTHING`,
		string(uid), int64(event.ID), string(event.Type), payload,
	)
	return err
}
