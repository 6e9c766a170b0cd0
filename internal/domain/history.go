package domain

// EventID is the totally-ordered identifier the Workflow Service assigns
// to each HistoryEvent. Deciders never mint these; they only read them.
type EventID int64

// Metadata is optional opaque text carried as activity/workflow
// input or output. The empty string means "absent", matching the
// Workflow Service's own convention of an unset payload.
type Metadata string

// EventType names the kind of a HistoryEvent. Only a subset are
// "actionable" for the Decision Engine (see ActionableEventTypes);
// the rest (ActivityTaskScheduled, TimerStarted, ...) exist purely to
// be looked up by id from an actionable event's parent reference.
type EventType string

const (
	EventWorkflowExecutionStarted              EventType = "WorkflowExecutionStarted"
	EventActivityTaskScheduled                 EventType = "ActivityTaskScheduled"
	EventActivityTaskCompleted                 EventType = "ActivityTaskCompleted"
	EventActivityTaskFailed                    EventType = "ActivityTaskFailed"
	EventActivityTaskCanceled                  EventType = "ActivityTaskCanceled"
	EventTimerStarted                          EventType = "TimerStarted"
	EventTimerFired                            EventType = "TimerFired"
	EventStartChildWorkflowExecutionInitiated  EventType = "StartChildWorkflowExecutionInitiated"
)

// ActionableEventTypes are scanned most-recent-first by the Decision
// Engine to find the event that drives the next tick.
var ActionableEventTypes = map[EventType]bool{
	EventWorkflowExecutionStarted:             true,
	EventActivityTaskCompleted:                true,
	EventActivityTaskFailed:                   true,
	EventActivityTaskCanceled:                 true,
	EventTimerFired:                           true,
	EventStartChildWorkflowExecutionInitiated: true,
}

// WorkflowExecutionStartedAttributes carries the workflow's original
// input.
type WorkflowExecutionStartedAttributes struct {
	Input Metadata
}

// ActivityTaskScheduledAttributes records the activity name/version/queue
// an activity was scheduled with, looked up by ActivityTaskCompleted's
// ScheduledEventID.
type ActivityTaskScheduledAttributes struct {
	ActivityName    string
	ActivityVersion string
	Queue           string
	Input           Metadata
}

// ActivityTaskCompletedAttributes references the ActivityTaskScheduled
// event it completes, plus the activity's result.
type ActivityTaskCompletedAttributes struct {
	ScheduledEventID EventID
	Result           Metadata
}

// ActivityTaskFailedAttributes references the ActivityTaskScheduled
// event it fails, plus a reason/details pair.
type ActivityTaskFailedAttributes struct {
	ScheduledEventID EventID
	Reason           string
	Details          Metadata
}

// ActivityTaskCanceledAttributes references the ActivityTaskScheduled
// event it cancels.
type ActivityTaskCanceledAttributes struct {
	ScheduledEventID EventID
}

// TimerStartedAttributes carries the timer's control payload — by
// convention the name of the Sleep Spec that scheduled it — so
// TimerFired can recover which Spec fired without a name-based search.
type TimerStartedAttributes struct {
	Control        string
	TimeoutSeconds int
}

// TimerFiredAttributes references the TimerStarted event it fires.
type TimerFiredAttributes struct {
	StartedEventID EventID
}

// StartChildWorkflowExecutionInitiatedAttributes carries the input the
// continuing execution was started with.
type StartChildWorkflowExecutionInitiatedAttributes struct {
	Input Metadata
}

// HistoryEvent is one immutable entry in the event log the Workflow
// Service returns for a decision tick. Exactly one attributes field is
// populated, selected by Type.
type HistoryEvent struct {
	ID   EventID
	Type EventType

	WorkflowExecutionStarted             *WorkflowExecutionStartedAttributes
	ActivityTaskScheduled                *ActivityTaskScheduledAttributes
	ActivityTaskCompleted                *ActivityTaskCompletedAttributes
	ActivityTaskFailed                   *ActivityTaskFailedAttributes
	ActivityTaskCanceled                 *ActivityTaskCanceledAttributes
	TimerStarted                         *TimerStartedAttributes
	TimerFired                           *TimerFiredAttributes
	StartChildWorkflowExecutionInitiated *StartChildWorkflowExecutionInitiatedAttributes
}

// Index builds the event-id -> HistoryEvent lookup the Decision Engine
// uses for parent-id references. Per the Data Model invariant the
// mapping is a bijection over events; a duplicate id is a caller bug and
// simply overwrites, since the Workflow Service is the sole source of
// well-formed history in production.
func Index(events []HistoryEvent) map[EventID]HistoryEvent {
	idx := make(map[EventID]HistoryEvent, len(events))
	for _, e := range events {
		idx[e.ID] = e
	}
	return idx
}
