package ports

import (
	"context"

	"github.com/swift-nav/flow/internal/domain"
)

// EventLog is a durable, append-only audit sink for HistoryEvents. It
// exists alongside the Workflow Service's own live history (which may
// live entirely in a fast, non-durable store) purely for local
// development and post-hoc inspection; nothing in the CORE reads it
// back, so a nil EventLog is a valid no-audit configuration.
type EventLog interface {
	Append(ctx context.Context, uid domain.Uid, event domain.HistoryEvent) error
}
