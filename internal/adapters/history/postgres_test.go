package history

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"

	"github.com/swift-nav/flow/internal/domain"
	"github.com/swift-nav/flow/internal/ports"
	"github.com/swift-nav/flow/internal/testutil"
)

type EventLogIntegrationTestSuite struct {
	suite.Suite
	container testcontainers.Container
	pool      *pgxpool.Pool
	log       ports.EventLog
	ctx       context.Context
}

func (s *EventLogIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()
	s.container, s.pool = testutil.SetupTestDatabase(s.T(), s.ctx)
	s.log = NewPostgresEventLog(s.pool)
}

func (s *EventLogIntegrationTestSuite) TearDownSuite() {
	testutil.CleanupTestDatabase(s.T(), s.ctx, s.container, s.pool)
}

func (s *EventLogIntegrationTestSuite) SetupTest() {
	testutil.TruncateTables(s.T(), s.ctx, s.pool)
}

func (s *EventLogIntegrationTestSuite) TestAppendIsRecorded() {
	uid := domain.Uid("wf-1")
	event := domain.HistoryEvent{
		ID:                        1,
		Type:                      domain.EventWorkflowExecutionStarted,
		WorkflowExecutionStarted: &domain.WorkflowExecutionStartedAttributes{Input: "x"},
	}
	require.NoError(s.T(), s.log.Append(s.ctx, uid, event))

	var count int
	err := s.pool.QueryRow(s.ctx, "SELECT COUNT(*) FROM event_log WHERE workflow_uid = $1", string(uid)).Scan(&count)
	require.NoError(s.T(), err)
	s.Equal(1, count)
}

func (s *EventLogIntegrationTestSuite) TestAppendIsIdempotentPerEventID() {
	uid := domain.Uid("wf-2")
	event := domain.HistoryEvent{ID: 1, Type: domain.EventActivityTaskFailed, ActivityTaskFailed: &domain.ActivityTaskFailedAttributes{ScheduledEventID: 0, Reason: "boom"}}

	require.NoError(s.T(), s.log.Append(s.ctx, uid, event))
	require.NoError(s.T(), s.log.Append(s.ctx, uid, event))

	var count int
	err := s.pool.QueryRow(s.ctx, "SELECT COUNT(*) FROM event_log WHERE workflow_uid = $1", string(uid)).Scan(&count)
	require.NoError(s.T(), err)
	s.Equal(1, count)
}

func TestEventLogIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(EventLogIntegrationTestSuite))
}
