package ports

import "github.com/swift-nav/flow/internal/domain"

// UidGenerator mints fresh Uids for scheduled activities, timers, and
// child workflows. Spec.md calls this out explicitly as an injected
// effect: the Decision Engine is otherwise pure with respect to
// (Plan, events), and tests supply a deterministic fake here instead of
// stubbing time or randomness throughout the engine.
type UidGenerator interface {
	New() domain.Uid
}
