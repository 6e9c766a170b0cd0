package ports

import (
	"context"

	"github.com/swift-nav/flow/internal/domain"
)

// ActivityTask is what PollActivity hands the Actor Loop: an opaque
// respond token, the activity's Uid, and its input Metadata.
type ActivityTask struct {
	Token domain.Uid
	Uid   domain.Uid
	Input domain.Metadata
}

// DecisionTask is what PollDecision hands the Decider: an opaque
// respond token and the full event history for the workflow execution.
type DecisionTask struct {
	Token  domain.Uid
	Events []domain.HistoryEvent
}

// WorkflowService is the narrow set of Workflow Service operations the
// core requires, per spec.md section 4.7. It is spec-defined and
// implementation-free from the CORE's perspective: the Decision Engine
// and Actor Loop depend only on this interface.
type WorkflowService interface {
	RegisterDomain(ctx context.Context) error
	RegisterWorkflowType(ctx context.Context, name, version string) error
	RegisterActivityType(ctx context.Context, name, version string) error

	StartWorkflow(ctx context.Context, uid domain.Uid, name, version, queue string, input domain.Metadata) error

	// PollActivity long-polls queue. A nil task means no work was
	// available before the poll's own deadline; the caller re-polls.
	PollActivity(ctx context.Context, queue string) (*ActivityTask, error)

	// PollDecision long-polls queue and returns the full event history
	// for the workflow execution at the head of the queue. A nil task
	// means no work was available.
	PollDecision(ctx context.Context, queue string) (*DecisionTask, error)

	RespondActivityCompleted(ctx context.Context, token domain.Uid, result domain.Metadata) error
	RespondActivityFailed(ctx context.Context, token domain.Uid) error
	RespondActivityCanceled(ctx context.Context, token domain.Uid) error

	RespondDecisionCompleted(ctx context.Context, token domain.Uid, decisions []domain.Decision) error
}

// ObjectStore is the flat key->bytes contract the core requires from
// the Object Store, namespaced per activity Uid.
type ObjectStore interface {
	ListKeys(ctx context.Context, uidPrefix domain.Uid) ([]string, error)
	Get(ctx context.Context, uidPrefix domain.Uid, key string) ([]byte, error)
	Put(ctx context.Context, uidPrefix domain.Uid, key string, data []byte) error
}
