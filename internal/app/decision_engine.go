package app

import (
	"github.com/swift-nav/flow/internal/domain"
	"github.com/swift-nav/flow/internal/ports"
)

// DecisionEngine is the centerpiece of the Decider: given a Plan and an
// event history it selects the next decision(s), purely as a function
// of its inputs except for Uid generation, which is injected for
// testability per spec.md's design notes.
type DecisionEngine struct {
	Uids ports.UidGenerator
}

// NewDecisionEngine constructs a DecisionEngine backed by the given
// Uid generator.
func NewDecisionEngine(uids ports.UidGenerator) *DecisionEngine {
	return &DecisionEngine{Uids: uids}
}

// Decide implements spec.md section 4.6: locate the most-recent
// actionable event (scanned by descending event-id, per the open
// question resolved in DESIGN.md) and dispatch on its type. plan and
// events are bundled into a DecisionContext once, up front, and that
// single value is threaded through the dispatch table instead of its
// pieces separately.
func (e *DecisionEngine) Decide(plan domain.Plan, events []domain.HistoryEvent) ([]domain.Decision, error) {
	ctx := domain.NewDecisionContext(plan, events)

	latest, ok := findLatestActionable(ctx.Events)
	if !ok {
		return nil, domain.NewProtocolError("no actionable event in history")
	}

	switch latest.Type {
	case domain.EventWorkflowExecutionStarted:
		return e.onWorkflowStarted(ctx, latest)
	case domain.EventActivityTaskCompleted:
		return e.onActivityCompleted(ctx, latest)
	case domain.EventActivityTaskFailed:
		return e.onActivityFailed(latest)
	case domain.EventActivityTaskCanceled:
		return e.onActivityCanceled(latest)
	case domain.EventTimerFired:
		return e.onTimerFired(ctx, latest)
	case domain.EventStartChildWorkflowExecutionInitiated:
		return e.onChildInitiated(latest)
	default:
		return nil, domain.NewProtocolError("unknown actionable event type %q", latest.Type)
	}
}

func (e *DecisionEngine) onWorkflowStarted(ctx domain.DecisionContext, latest domain.HistoryEvent) ([]domain.Decision, error) {
	att := latest.WorkflowExecutionStarted
	if att == nil {
		return nil, domain.NewProtocolError("No WorkflowExecutionStarted Information")
	}
	if len(ctx.Plan.Specs) == 0 {
		d, err := e.end(ctx, att.Input)
		if err != nil {
			return nil, err
		}
		return []domain.Decision{d}, nil
	}
	return []domain.Decision{e.schedule(ctx.Plan.Specs[0], att.Input)}, nil
}

func (e *DecisionEngine) onActivityCompleted(ctx domain.DecisionContext, latest domain.HistoryEvent) ([]domain.Decision, error) {
	att := latest.ActivityTaskCompleted
	if att == nil {
		return nil, domain.NewProtocolError("No ActivityTaskCompleted Information")
	}
	scheduled, ok := ctx.Index[att.ScheduledEventID]
	if !ok || scheduled.Type != domain.EventActivityTaskScheduled || scheduled.ActivityTaskScheduled == nil {
		return nil, domain.NewProtocolError("No ActivityTaskScheduled Information")
	}
	name := scheduled.ActivityTaskScheduled.ActivityName

	next, ok := domain.NextSpec(ctx.Plan.Specs, domain.SpecWork, name)
	if !ok {
		d, err := e.end(ctx, att.Result)
		if err != nil {
			return nil, err
		}
		return []domain.Decision{d}, nil
	}
	return []domain.Decision{e.schedule(next, att.Result)}, nil
}

func (e *DecisionEngine) onActivityFailed(latest domain.HistoryEvent) ([]domain.Decision, error) {
	att := latest.ActivityTaskFailed
	if att == nil {
		return nil, domain.NewProtocolError("No ActivityTaskFailed Information")
	}
	// Preserved unconditionally per spec.md's open question: any activity
	// failure fails the whole workflow, no per-step retry policy.
	return []domain.Decision{domain.FailWorkflow(att.Reason, att.Details)}, nil
}

func (e *DecisionEngine) onActivityCanceled(latest domain.HistoryEvent) ([]domain.Decision, error) {
	if latest.ActivityTaskCanceled == nil {
		return nil, domain.NewProtocolError("No ActivityTaskCanceled Information")
	}
	return []domain.Decision{domain.CancelWorkflow()}, nil
}

func (e *DecisionEngine) onChildInitiated(latest domain.HistoryEvent) ([]domain.Decision, error) {
	att := latest.StartChildWorkflowExecutionInitiated
	if att == nil {
		return nil, domain.NewProtocolError("No StartChildWorkflowExecutionInitiated Information")
	}
	return []domain.Decision{domain.CompleteWorkflow(att.Input)}, nil
}

func (e *DecisionEngine) onTimerFired(ctx domain.DecisionContext, latest domain.HistoryEvent) ([]domain.Decision, error) {
	att := latest.TimerFired
	if att == nil {
		return nil, domain.NewProtocolError("No TimerFired Information")
	}
	started, ok := ctx.Index[att.StartedEventID]
	if !ok || started.Type != domain.EventTimerStarted || started.TimerStarted == nil {
		return nil, domain.NewProtocolError("No TimerStarted Information")
	}
	name := started.TimerStarted.Control

	input, err := findPriorPayload(ctx.Events, latest.ID)
	if err != nil {
		return nil, err
	}

	next, ok := domain.NextSpec(ctx.Plan.Specs, domain.SpecSleep, name)
	if !ok {
		d, err := e.end(ctx, input)
		if err != nil {
			return nil, err
		}
		return []domain.Decision{d}, nil
	}
	return []domain.Decision{e.schedule(next, input)}, nil
}

// schedule implements the "Scheduling a Spec" rule of spec.md 4.6.
func (e *DecisionEngine) schedule(spec domain.Spec, input domain.Metadata) domain.Decision {
	uid := e.Uids.New()
	switch spec.Kind {
	case domain.SpecWork:
		return domain.ScheduleActivity(uid, spec.Task.Name, spec.Task.Version, spec.Task.Queue, input)
	case domain.SpecSleep:
		return domain.StartTimer(uid, spec.Timer.Name, spec.Timer.TimeoutSeconds)
	}
	return domain.Decision{}
}

// end implements the End policy of spec.md 4.6.
func (e *DecisionEngine) end(ctx domain.DecisionContext, fallbackInput domain.Metadata) (domain.Decision, error) {
	if ctx.Plan.End != domain.EndContinue {
		return domain.CompleteWorkflow(fallbackInput), nil
	}
	original, err := findWorkflowStartedInput(ctx.Events)
	if err != nil {
		return domain.Decision{}, err
	}
	uid := e.Uids.New()
	return domain.StartChildWorkflow(uid, ctx.Plan.Start.Name, ctx.Plan.Start.Version, ctx.Plan.Start.Queue, original), nil
}

// findLatestActionable scans events for the actionable event with the
// largest event-id.
func findLatestActionable(events []domain.HistoryEvent) (domain.HistoryEvent, bool) {
	var best domain.HistoryEvent
	found := false
	for _, e := range events {
		if !domain.ActionableEventTypes[e.Type] {
			continue
		}
		if !found || e.ID > best.ID {
			best = e
			found = true
		}
	}
	return best, found
}

// findPriorPayload implements the TimerFired "look one level deeper"
// rule: scan events strictly before beforeID for the most recent
// WorkflowExecutionStarted or ActivityTaskCompleted event and return
// its payload.
func findPriorPayload(events []domain.HistoryEvent, beforeID domain.EventID) (domain.Metadata, error) {
	var best domain.HistoryEvent
	found := false
	for _, e := range events {
		if e.ID >= beforeID {
			continue
		}
		if e.Type != domain.EventWorkflowExecutionStarted && e.Type != domain.EventActivityTaskCompleted {
			continue
		}
		if !found || e.ID > best.ID {
			best = e
			found = true
		}
	}
	if !found {
		return "", domain.NewProtocolError("no prior payload before event %d", beforeID)
	}
	switch best.Type {
	case domain.EventWorkflowExecutionStarted:
		if best.WorkflowExecutionStarted == nil {
			return "", domain.NewProtocolError("No WorkflowExecutionStarted Information")
		}
		return best.WorkflowExecutionStarted.Input, nil
	default:
		if best.ActivityTaskCompleted == nil {
			return "", domain.NewProtocolError("No ActivityTaskCompleted Information")
		}
		return best.ActivityTaskCompleted.Result, nil
	}
}

// findWorkflowStartedInput locates the workflow's original input for
// the Continue end policy.
func findWorkflowStartedInput(events []domain.HistoryEvent) (domain.Metadata, error) {
	for _, e := range events {
		if e.Type == domain.EventWorkflowExecutionStarted {
			if e.WorkflowExecutionStarted == nil {
				return "", domain.NewProtocolError("No WorkflowExecutionStarted Information")
			}
			return e.WorkflowExecutionStarted.Input, nil
		}
	}
	return "", domain.NewProtocolError("No WorkflowExecutionStarted Information")
}
