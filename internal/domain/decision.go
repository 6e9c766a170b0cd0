package domain

// DecisionContext bundles the read-only inputs a single decision tick
// dispatches against — the Plan, the full event history, and its
// event-id index — so the Decision Engine threads one value through
// its dispatch table instead of the individual pieces separately,
// mirroring how ports/services.go keeps interfaces separate from the
// data they operate on.
type DecisionContext struct {
	Plan   Plan
	Events []HistoryEvent
	Index  map[EventID]HistoryEvent
}

// NewDecisionContext builds a DecisionContext for one decision tick,
// indexing events by id.
func NewDecisionContext(plan Plan, events []HistoryEvent) DecisionContext {
	return DecisionContext{Plan: plan, Events: events, Index: Index(events)}
}

// DecisionKind discriminates the six shapes a Decision can take.
type DecisionKind string

const (
	DecisionScheduleActivity   DecisionKind = "ScheduleActivity"
	DecisionStartTimer         DecisionKind = "StartTimer"
	DecisionCompleteWorkflow   DecisionKind = "CompleteWorkflow"
	DecisionFailWorkflow       DecisionKind = "FailWorkflow"
	DecisionCancelWorkflow     DecisionKind = "CancelWorkflow"
	DecisionStartChildWorkflow DecisionKind = "StartChildWorkflow"
)

// Decision is one action the Decider replies with for a decision tick.
// Only the fields relevant to Kind are populated; the rest are zero.
type Decision struct {
	Kind DecisionKind

	// ScheduleActivity / StartChildWorkflow
	Uid     Uid
	Name    string
	Version string
	Queue   string
	Input   Metadata

	// StartTimer
	TimerName      string
	TimeoutSeconds int

	// FailWorkflow / CancelWorkflow
	Reason  string
	Details Metadata
}

// ScheduleActivity builds the decision that schedules a Work Spec.
func ScheduleActivity(uid Uid, name, version, queue string, input Metadata) Decision {
	return Decision{Kind: DecisionScheduleActivity, Uid: uid, Name: name, Version: version, Queue: queue, Input: input}
}

// StartTimer builds the decision that schedules a Sleep Spec. The
// timer's name is carried in the Uid-adjacent TimerName field and is
// also, per the wire contract, echoed back as the timer's control
// payload so TimerFired can recover it without a name search.
func StartTimer(uid Uid, timerName string, timeoutSeconds int) Decision {
	return Decision{Kind: DecisionStartTimer, Uid: uid, TimerName: timerName, TimeoutSeconds: timeoutSeconds}
}

// CompleteWorkflow builds the terminal success decision.
func CompleteWorkflow(input Metadata) Decision {
	return Decision{Kind: DecisionCompleteWorkflow, Input: input}
}

// FailWorkflow builds the terminal failure decision.
func FailWorkflow(reason string, details Metadata) Decision {
	return Decision{Kind: DecisionFailWorkflow, Reason: reason, Details: details}
}

// CancelWorkflow builds the terminal cancellation decision.
func CancelWorkflow() Decision {
	return Decision{Kind: DecisionCancelWorkflow}
}

// StartChildWorkflow builds the continue-as-new decision.
func StartChildWorkflow(uid Uid, name, version, queue string, input Metadata) Decision {
	return Decision{Kind: DecisionStartChildWorkflow, Uid: uid, Name: name, Version: version, Queue: queue, Input: input}
}
