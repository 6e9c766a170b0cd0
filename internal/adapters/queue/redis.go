// Package queue implements the Service Client Contract of spec.md
// section 4.7 against a Redis deployment: activity/decision queues are
// Redis lists consumed with blocking pops, and each workflow's event
// history is a Redis list of JSON-encoded HistoryEvents.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/swift-nav/flow/internal/domain"
	"github.com/swift-nav/flow/internal/ports"
)

const (
	domainRegisteredKey = "flow:domain:registered"
	workflowTypesKey    = "flow:workflow-types"
	activityTypesKey    = "flow:activity-types"

	tokenTTL = 24 * time.Hour
)

// RedisWorkflowService is the Redis-backed ports.WorkflowService.
type RedisWorkflowService struct {
	client      *redis.Client
	pollTimeout time.Duration
	// auditLog, when non-nil, receives a durable copy of every event
	// this service appends. It never gates a response: an audit
	// failure is logged, not surfaced, since Redis remains the system
	// of record for replay.
	auditLog ports.EventLog
}

// NewRedisWorkflowService dials Redis using REDIS_ADDR/REDIS_PASSWORD
// (defaulting to a local instance) and returns a ports.WorkflowService.
// auditLog may be nil to disable the durable audit trail.
func NewRedisWorkflowService(auditLog ports.EventLog) ports.WorkflowService {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	password := getEnv("REDIS_PASSWORD", "")

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	return &RedisWorkflowService{client: rdb, pollTimeout: 10 * time.Second, auditLog: auditLog}
}

func (s *RedisWorkflowService) audit(ctx context.Context, uid domain.Uid, event domain.HistoryEvent) {
	if s.auditLog == nil {
		return
	}
	if err := s.auditLog.Append(ctx, uid, event); err != nil {
		log.Printf("event log audit append failed for workflow %s event %d: %v", uid, event.ID, err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func historyKey(uid domain.Uid) string         { return "flow:history:" + string(uid) }
func historySeqKey(uid domain.Uid) string      { return "flow:history-seq:" + string(uid) }
func decisionQueueOfKey(uid domain.Uid) string { return "flow:decision-queue-of:" + string(uid) }
func activityQueueKey(queue string) string     { return "flow:queue:activity:" + queue }
func decisionQueueKey(queue string) string     { return "flow:queue:decision:" + queue }
func tokenKey(token string) string             { return "flow:token:" + token }
func terminalKey(uid domain.Uid) string        { return "flow:terminal:" + string(uid) }

// activityTokenState is what a respond-activity-* call needs to append
// the right event to the right workflow's history.
type activityTokenState struct {
	WorkflowUid      domain.Uid     `json:"workflowUid"`
	ScheduledEventID domain.EventID `json:"scheduledEventId"`
}

// decisionTokenState is what RespondDecisionCompleted needs: which
// workflow this decision tick was for.
type decisionTokenState struct {
	WorkflowUid domain.Uid `json:"workflowUid"`
}

// activityQueueEntry is the payload pushed onto an activity queue.
type activityQueueEntry struct {
	Token domain.Uid      `json:"token"`
	Uid   domain.Uid      `json:"uid"`
	Input domain.Metadata `json:"input"`
}

// decisionQueueEntry is the payload pushed onto a decision queue: a
// pointer to the workflow whose history changed.
type decisionQueueEntry struct {
	WorkflowUid domain.Uid `json:"workflowUid"`
}

func (s *RedisWorkflowService) RegisterDomain(ctx context.Context) error {
	set, err := s.client.SetNX(ctx, domainRegisteredKey, "1", 0).Result()
	if err != nil {
		return domain.NewTransientError(domain.Throttling, err)
	}
	if !set {
		return domain.NewAlreadyExistsError("domain")
	}
	return nil
}

func (s *RedisWorkflowService) RegisterWorkflowType(ctx context.Context, name, version string) error {
	return s.registerType(ctx, workflowTypesKey, name, version, "workflow type")
}

func (s *RedisWorkflowService) RegisterActivityType(ctx context.Context, name, version string) error {
	return s.registerType(ctx, activityTypesKey, name, version, "activity type")
}

func (s *RedisWorkflowService) registerType(ctx context.Context, setKey, name, version, label string) error {
	member := name + "@" + version
	added, err := s.client.SAdd(ctx, setKey, member).Result()
	if err != nil {
		return domain.NewTransientError(domain.Throttling, err)
	}
	if added == 0 {
		return domain.NewAlreadyExistsError(fmt.Sprintf("%s %s", label, member))
	}
	return nil
}

func (s *RedisWorkflowService) StartWorkflow(ctx context.Context, uid domain.Uid, name, version, queue string, input domain.Metadata) error {
	event := domain.HistoryEvent{
		ID:                        1,
		Type:                      domain.EventWorkflowExecutionStarted,
		WorkflowExecutionStarted: &domain.WorkflowExecutionStartedAttributes{Input: input},
	}
	return s.seedExecution(ctx, uid, queue, event)
}

// seedExecution initializes a fresh event history for uid with its
// first event and enqueues the first decision tick. Used both by
// StartWorkflow and by RespondDecisionCompleted's continue-as-new
// handling.
func (s *RedisWorkflowService) seedExecution(ctx context.Context, uid domain.Uid, decisionQueue string, first domain.HistoryEvent) error {
	raw, err := json.Marshal(first)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, historyKey(uid), raw)
	pipe.Set(ctx, historySeqKey(uid), 1, 0)
	pipe.Set(ctx, decisionQueueOfKey(uid), decisionQueue, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.NewTransientError(domain.Throttling, err)
	}
	s.audit(ctx, uid, first)

	return s.enqueueDecisionTick(ctx, decisionQueue, uid)
}

func (s *RedisWorkflowService) enqueueDecisionTick(ctx context.Context, queue string, uid domain.Uid) error {
	entry, err := json.Marshal(decisionQueueEntry{WorkflowUid: uid})
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, decisionQueueKey(queue), entry).Err(); err != nil {
		return domain.NewTransientError(domain.Throttling, err)
	}
	return nil
}

func (s *RedisWorkflowService) PollActivity(ctx context.Context, queue string) (*ports.ActivityTask, error) {
	result, err := s.client.BLPop(ctx, s.pollTimeout, activityQueueKey(queue)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewTransientError(domain.Throttling, err)
	}

	var entry activityQueueEntry
	if err := json.Unmarshal([]byte(result[1]), &entry); err != nil {
		return nil, err
	}

	return &ports.ActivityTask{Token: entry.Token, Uid: entry.Uid, Input: entry.Input}, nil
}

func (s *RedisWorkflowService) PollDecision(ctx context.Context, queue string) (*ports.DecisionTask, error) {
	result, err := s.client.BLPop(ctx, s.pollTimeout, decisionQueueKey(queue)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewTransientError(domain.Throttling, err)
	}

	var entry decisionQueueEntry
	if err := json.Unmarshal([]byte(result[1]), &entry); err != nil {
		return nil, err
	}

	events, err := s.loadHistory(ctx, entry.WorkflowUid)
	if err != nil {
		return nil, err
	}

	token := uuid.NewString()
	state, err := json.Marshal(decisionTokenState{WorkflowUid: entry.WorkflowUid})
	if err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, tokenKey(token), state, tokenTTL).Err(); err != nil {
		return nil, domain.NewTransientError(domain.Throttling, err)
	}

	return &ports.DecisionTask{Token: domain.Uid(token), Events: events}, nil
}

func (s *RedisWorkflowService) loadHistory(ctx context.Context, uid domain.Uid) ([]domain.HistoryEvent, error) {
	raw, err := s.client.LRange(ctx, historyKey(uid), 0, -1).Result()
	if err != nil {
		return nil, domain.NewTransientError(domain.Throttling, err)
	}

	events := make([]domain.HistoryEvent, 0, len(raw))
	for _, r := range raw {
		var e domain.HistoryEvent
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

func (s *RedisWorkflowService) RespondActivityCompleted(ctx context.Context, token domain.Uid, result domain.Metadata) error {
	state, err := s.loadActivityToken(ctx, token)
	if err != nil {
		return err
	}
	event := domain.HistoryEvent{
		Type: domain.EventActivityTaskCompleted,
		ActivityTaskCompleted: &domain.ActivityTaskCompletedAttributes{
			ScheduledEventID: state.ScheduledEventID,
			Result:           result,
		},
	}
	return s.appendAndNotify(ctx, state.WorkflowUid, event)
}

func (s *RedisWorkflowService) RespondActivityFailed(ctx context.Context, token domain.Uid) error {
	state, err := s.loadActivityToken(ctx, token)
	if err != nil {
		return err
	}
	event := domain.HistoryEvent{
		Type: domain.EventActivityTaskFailed,
		ActivityTaskFailed: &domain.ActivityTaskFailedAttributes{
			ScheduledEventID: state.ScheduledEventID,
			Reason:           "activity failed",
		},
	}
	return s.appendAndNotify(ctx, state.WorkflowUid, event)
}

func (s *RedisWorkflowService) RespondActivityCanceled(ctx context.Context, token domain.Uid) error {
	state, err := s.loadActivityToken(ctx, token)
	if err != nil {
		return err
	}
	event := domain.HistoryEvent{
		Type:                  domain.EventActivityTaskCanceled,
		ActivityTaskCanceled: &domain.ActivityTaskCanceledAttributes{ScheduledEventID: state.ScheduledEventID},
	}
	return s.appendAndNotify(ctx, state.WorkflowUid, event)
}

func (s *RedisWorkflowService) loadActivityToken(ctx context.Context, token domain.Uid) (activityTokenState, error) {
	raw, err := s.client.Get(ctx, tokenKey(string(token))).Result()
	if errors.Is(err, redis.Nil) {
		return activityTokenState{}, domain.NewTransientError(domain.UnknownResource, fmt.Errorf("unknown activity token %q", token))
	}
	if err != nil {
		return activityTokenState{}, domain.NewTransientError(domain.Throttling, err)
	}

	var state activityTokenState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return activityTokenState{}, err
	}
	return state, nil
}

// appendAndNotify appends event to uid's history with the next
// sequence id and re-enqueues a decision tick on the workflow's
// decision queue, per the append-only event log model of spec.md
// section 4.6.
func (s *RedisWorkflowService) appendAndNotify(ctx context.Context, uid domain.Uid, event domain.HistoryEvent) error {
	nextID, err := s.client.Incr(ctx, historySeqKey(uid)).Result()
	if err != nil {
		return domain.NewTransientError(domain.Throttling, err)
	}
	event.ID = domain.EventID(nextID)

	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, historyKey(uid), raw).Err(); err != nil {
		return domain.NewTransientError(domain.Throttling, err)
	}
	s.audit(ctx, uid, event)

	queue, err := s.client.Get(ctx, decisionQueueOfKey(uid)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.NewTransientError(domain.UnknownResource, fmt.Errorf("unknown workflow %q", uid))
	}
	if err != nil {
		return domain.NewTransientError(domain.Throttling, err)
	}

	return s.enqueueDecisionTick(ctx, queue, uid)
}

func (s *RedisWorkflowService) RespondDecisionCompleted(ctx context.Context, token domain.Uid, decisions []domain.Decision) error {
	raw, err := s.client.Get(ctx, tokenKey(string(token))).Result()
	if errors.Is(err, redis.Nil) {
		return domain.NewTransientError(domain.UnknownResource, fmt.Errorf("unknown decision token %q", token))
	}
	if err != nil {
		return domain.NewTransientError(domain.Throttling, err)
	}

	var state decisionTokenState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return err
	}

	for _, decision := range decisions {
		if err := s.applyDecision(ctx, state.WorkflowUid, decision); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisWorkflowService) applyDecision(ctx context.Context, uid domain.Uid, decision domain.Decision) error {
	switch decision.Kind {
	case domain.DecisionScheduleActivity:
		return s.scheduleActivity(ctx, uid, decision)
	case domain.DecisionStartTimer:
		return s.startTimer(ctx, uid, decision)
	case domain.DecisionCompleteWorkflow, domain.DecisionFailWorkflow, domain.DecisionCancelWorkflow:
		return s.client.Set(ctx, terminalKey(uid), string(decision.Kind), 0).Err()
	case domain.DecisionStartChildWorkflow:
		if err := s.client.Set(ctx, terminalKey(uid), string(domain.DecisionCompleteWorkflow), 0).Err(); err != nil {
			return domain.NewTransientError(domain.Throttling, err)
		}
		queue, err := s.client.Get(ctx, decisionQueueOfKey(uid)).Result()
		if err != nil {
			queue = decision.Queue
		}
		child := domain.HistoryEvent{
			ID:                        1,
			Type:                      domain.EventWorkflowExecutionStarted,
			WorkflowExecutionStarted: &domain.WorkflowExecutionStartedAttributes{Input: decision.Input},
		}
		return s.seedExecution(ctx, decision.Uid, queue, child)
	default:
		return domain.NewProtocolError("unknown decision kind %q", decision.Kind)
	}
}

func (s *RedisWorkflowService) scheduleActivity(ctx context.Context, uid domain.Uid, decision domain.Decision) error {
	nextID, err := s.client.Incr(ctx, historySeqKey(uid)).Result()
	if err != nil {
		return domain.NewTransientError(domain.Throttling, err)
	}
	eventID := domain.EventID(nextID)

	scheduled := domain.HistoryEvent{
		ID:   eventID,
		Type: domain.EventActivityTaskScheduled,
		ActivityTaskScheduled: &domain.ActivityTaskScheduledAttributes{
			ActivityName:    decision.Name,
			ActivityVersion: decision.Version,
			Queue:           decision.Queue,
			Input:           decision.Input,
		},
	}
	raw, err := json.Marshal(scheduled)
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, historyKey(uid), raw).Err(); err != nil {
		return domain.NewTransientError(domain.Throttling, err)
	}
	s.audit(ctx, uid, scheduled)

	token := uuid.NewString()
	state, err := json.Marshal(activityTokenState{WorkflowUid: uid, ScheduledEventID: eventID})
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, tokenKey(token), state, tokenTTL).Err(); err != nil {
		return domain.NewTransientError(domain.Throttling, err)
	}

	entry, err := json.Marshal(activityQueueEntry{Token: domain.Uid(token), Uid: decision.Uid, Input: decision.Input})
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, activityQueueKey(decision.Queue), entry).Err(); err != nil {
		return domain.NewTransientError(domain.Throttling, err)
	}
	return nil
}

func (s *RedisWorkflowService) startTimer(ctx context.Context, uid domain.Uid, decision domain.Decision) error {
	nextID, err := s.client.Incr(ctx, historySeqKey(uid)).Result()
	if err != nil {
		return domain.NewTransientError(domain.Throttling, err)
	}
	startedID := domain.EventID(nextID)

	started := domain.HistoryEvent{
		ID:   startedID,
		Type: domain.EventTimerStarted,
		TimerStarted: &domain.TimerStartedAttributes{
			Control:        decision.TimerName,
			TimeoutSeconds: decision.TimeoutSeconds,
		},
	}
	raw, err := json.Marshal(started)
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, historyKey(uid), raw).Err(); err != nil {
		return domain.NewTransientError(domain.Throttling, err)
	}
	s.audit(ctx, uid, started)

	// The Workflow Service owns timer delivery; this deployment fires
	// timers in-process rather than through a separate timer daemon.
	time.AfterFunc(time.Duration(decision.TimeoutSeconds)*time.Second, func() {
		fired := domain.HistoryEvent{
			Type:       domain.EventTimerFired,
			TimerFired: &domain.TimerFiredAttributes{StartedEventID: startedID},
		}
		if err := s.appendAndNotify(context.Background(), uid, fired); err != nil {
			log.Printf("timer fire for workflow %s failed to append: %v", uid, err)
		}
	})
	return nil
}
