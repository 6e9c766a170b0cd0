// Package httpstatus exposes liveness/readiness and counters for the
// Actor and Decider processes over gin, per spec.md's "logging/metrics
// transport" out-of-scope note: the core never depends on this package,
// but a production deployment needs it wired at the cmd/ layer.
package httpstatus

import (
	"database/sql"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// Metrics is a small set of process counters. There is no metrics
// client library anywhere in this stack, so counters are plain
// atomics rendered in Prometheus text exposition format by hand.
type Metrics struct {
	ActivitiesCompleted atomic.Int64
	ActivitiesFailed    atomic.Int64
	ActivitiesCanceled  atomic.Int64
	DecisionsCompleted  atomic.Int64
	ProtocolErrors      atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) IncActivitiesCompleted() { m.ActivitiesCompleted.Add(1) }
func (m *Metrics) IncActivitiesFailed()    { m.ActivitiesFailed.Add(1) }
func (m *Metrics) IncActivitiesCanceled()  { m.ActivitiesCanceled.Add(1) }
func (m *Metrics) IncDecisionsCompleted()  { m.DecisionsCompleted.Add(1) }
func (m *Metrics) IncProtocolErrors()      { m.ProtocolErrors.Add(1) }

// Server serves /healthz (checks Object Store connectivity) and
// /metrics for one Actor or Decider process.
type Server struct {
	db      *sql.DB
	metrics *Metrics
	service string
}

func NewServer(db *sql.DB, metrics *Metrics, service string) *Server {
	return &Server{db: db, metrics: metrics, service: service}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.handleHealthz)
	router.GET("/metrics", s.handleMetrics)

	return router
}

func (s *Server) handleHealthz(c *gin.Context) {
	if err := s.db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": s.service, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": s.service})
}

func (s *Server) handleMetrics(c *gin.Context) {
	body := fmt.Sprintf(
		"flow_activities_completed_total %d\n"+
			"flow_activities_failed_total %d\n"+
			"flow_activities_canceled_total %d\n"+
			"flow_decisions_completed_total %d\n"+
			"flow_protocol_errors_total %d\n",
		s.metrics.ActivitiesCompleted.Load(),
		s.metrics.ActivitiesFailed.Load(),
		s.metrics.ActivitiesCanceled.Load(),
		s.metrics.DecisionsCompleted.Load(),
		s.metrics.ProtocolErrors.Load(),
	)
	c.String(http.StatusOK, body)
}
