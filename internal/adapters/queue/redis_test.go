package queue

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/swift-nav/flow/internal/domain"
)

func setupRedisContainer(t *testing.T) (testcontainers.Container, *redis.Client) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)

	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
		DB:   0,
	})

	require.NoError(t, client.Ping(ctx).Err())

	return redisContainer, client
}

func TestRedisWorkflowService_RegisterIsIdempotentTolerant(t *testing.T) {
	container, client := setupRedisContainer(t)
	defer container.Terminate(context.Background())

	svc := &RedisWorkflowService{client: client, pollTimeout: time.Second}
	ctx := context.Background()

	require.NoError(t, svc.RegisterDomain(ctx))

	err := svc.RegisterDomain(ctx)
	var already *domain.AlreadyExistsError
	require.ErrorAs(t, err, &already)

	require.NoError(t, svc.RegisterWorkflowType(ctx, "orderFlow", "1.0"))
	err = svc.RegisterWorkflowType(ctx, "orderFlow", "1.0")
	require.ErrorAs(t, err, &already)
}

func TestRedisWorkflowService_StartWorkflowThenPollDecision(t *testing.T) {
	container, client := setupRedisContainer(t)
	defer container.Terminate(context.Background())

	svc := &RedisWorkflowService{client: client, pollTimeout: 2 * time.Second}
	ctx := context.Background()

	uid := domain.Uid("wf-1")
	require.NoError(t, svc.StartWorkflow(ctx, uid, "orderFlow", "1.0", "decisions", "input-x"))

	task, err := svc.PollDecision(ctx, "decisions")
	require.NoError(t, err)
	require.NotNil(t, task)
	require.Len(t, task.Events, 1)
	assert.Equal(t, domain.EventWorkflowExecutionStarted, task.Events[0].Type)
	assert.Equal(t, domain.Metadata("input-x"), task.Events[0].WorkflowExecutionStarted.Input)
}

func TestRedisWorkflowService_PollDecisionTimeout(t *testing.T) {
	container, client := setupRedisContainer(t)
	defer container.Terminate(context.Background())

	svc := &RedisWorkflowService{client: client, pollTimeout: 100 * time.Millisecond}
	ctx := context.Background()

	start := time.Now()
	task, err := svc.PollDecision(ctx, "empty-queue")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Nil(t, task)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
}

func TestRedisWorkflowService_ScheduleActivityRoundTrip(t *testing.T) {
	container, client := setupRedisContainer(t)
	defer container.Terminate(context.Background())

	svc := &RedisWorkflowService{client: client, pollTimeout: 2 * time.Second}
	ctx := context.Background()

	uid := domain.Uid("wf-2")
	require.NoError(t, svc.StartWorkflow(ctx, uid, "orderFlow", "1.0", "decisions", "input-x"))

	decisionTask, err := svc.PollDecision(ctx, "decisions")
	require.NoError(t, err)
	require.NotNil(t, decisionTask)

	decision := domain.ScheduleActivity("act-1", "charge", "1.0", "activities", "input-x")
	require.NoError(t, svc.RespondDecisionCompleted(ctx, decisionTask.Token, []domain.Decision{decision}))

	activityTask, err := svc.PollActivity(ctx, "activities")
	require.NoError(t, err)
	require.NotNil(t, activityTask)
	assert.Equal(t, domain.Uid("act-1"), activityTask.Uid)
	assert.Equal(t, domain.Metadata("input-x"), activityTask.Input)

	require.NoError(t, svc.RespondActivityCompleted(ctx, activityTask.Token, "result-y"))

	nextDecisionTask, err := svc.PollDecision(ctx, "decisions")
	require.NoError(t, err)
	require.NotNil(t, nextDecisionTask)
	last := nextDecisionTask.Events[len(nextDecisionTask.Events)-1]
	assert.Equal(t, domain.EventActivityTaskCompleted, last.Type)
	assert.Equal(t, domain.Metadata("result-y"), last.ActivityTaskCompleted.Result)
}

func TestRedisWorkflowService_UnknownTokenIsTransientUnknownResource(t *testing.T) {
	container, client := setupRedisContainer(t)
	defer container.Terminate(context.Background())

	svc := &RedisWorkflowService{client: client, pollTimeout: time.Second}
	ctx := context.Background()

	err := svc.RespondActivityCompleted(ctx, "not-a-real-token", "x")
	var transient *domain.TransientError
	require.ErrorAs(t, err, &transient)
	assert.Equal(t, domain.UnknownResource, transient.Class)
}

type recordingEventLog struct {
	events []domain.HistoryEvent
}

func (r *recordingEventLog) Append(_ context.Context, _ domain.Uid, event domain.HistoryEvent) error {
	r.events = append(r.events, event)
	return nil
}

func TestRedisWorkflowService_AuditsEveryAppendedEvent(t *testing.T) {
	container, client := setupRedisContainer(t)
	defer container.Terminate(context.Background())

	audit := &recordingEventLog{}
	svc := &RedisWorkflowService{client: client, pollTimeout: 2 * time.Second, auditLog: audit}
	ctx := context.Background()

	uid := domain.Uid("wf-audit")
	require.NoError(t, svc.StartWorkflow(ctx, uid, "orderFlow", "1.0", "decisions", "input-x"))

	decisionTask, err := svc.PollDecision(ctx, "decisions")
	require.NoError(t, err)

	decision := domain.ScheduleActivity("act-audit", "charge", "1.0", "activities", "input-x")
	require.NoError(t, svc.RespondDecisionCompleted(ctx, decisionTask.Token, []domain.Decision{decision}))

	require.Len(t, audit.events, 2)
	assert.Equal(t, domain.EventWorkflowExecutionStarted, audit.events[0].Type)
	assert.Equal(t, domain.EventActivityTaskScheduled, audit.events[1].Type)
}

func TestNewRedisWorkflowService(t *testing.T) {
	os.Setenv("REDIS_ADDR", "localhost:6379")
	os.Setenv("REDIS_PASSWORD", "testpass")
	defer os.Unsetenv("REDIS_ADDR")
	defer os.Unsetenv("REDIS_PASSWORD")

	svc := NewRedisWorkflowService(nil)
	require.NotNil(t, svc)

	redisClient := svc.(*RedisWorkflowService).client
	assert.Equal(t, "localhost:6379", redisClient.Options().Addr)
	assert.Equal(t, "testpass", redisClient.Options().Password)
}
