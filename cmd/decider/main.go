// Command decider runs the Decider Loop of spec.md section 4.6 against
// a single decision queue, replaying event histories against a static
// Plan loaded from disk.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/swift-nav/flow/internal/adapters/config"
	"github.com/swift-nav/flow/internal/adapters/history"
	"github.com/swift-nav/flow/internal/adapters/httpstatus"
	"github.com/swift-nav/flow/internal/adapters/idgen"
	"github.com/swift-nav/flow/internal/adapters/objectstore"
	"github.com/swift-nav/flow/internal/adapters/queue"
	"github.com/swift-nav/flow/internal/app"
)

func main() {
	queueName := flag.String("queue", "", "decision queue to poll (required)")
	planPath := flag.String("plan", "", "path to the Plan YAML document (required)")
	concurrency := flag.Int("concurrency", 1, "number of worker goroutines")
	quiescePath := flag.String("quiesce-file", "", "path checked before each iteration; when present, workers exit")
	statusAddr := flag.String("status-addr", ":8081", "address for the /healthz and /metrics endpoints")
	flag.Parse()

	if *queueName == "" || *planPath == "" {
		log.Fatal("-queue and -plan are required")
	}

	plan, err := config.LoadPlan(*planPath)
	if err != nil {
		log.Fatalf("failed to load plan: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := objectstore.NewPostgresPool(ctx)
	if err != nil {
		log.Fatalf("failed to connect event log: %v", err)
	}
	defer pool.Close()
	auditLog := history.NewPostgresEventLog(pool)

	service := queue.NewRedisWorkflowService(auditLog)

	healthDB, err := objectstore.NewPostgresConnection()
	if err != nil {
		log.Fatalf("failed to open health-check connection: %v", err)
	}
	defer healthDB.Close()

	metrics := httpstatus.NewMetrics()
	statusServer := httpstatus.NewServer(healthDB, metrics, "flow-decider")
	srv := &http.Server{Addr: *statusAddr, Handler: statusServer.Router()}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("status server error: %v", err)
		}
	}()

	engine := app.NewDecisionEngine(idgen.NewUUIDGenerator())
	loop := app.NewDeciderLoop(service, engine, plan)
	loop.Metrics = metrics

	runner := app.NewDeciderRunner(loop, *queueName, *concurrency, *quiescePath)

	log.Printf("decider starting on queue %q", *queueName)
	if err := runner.Start(ctx); err != nil {
		log.Printf("decider error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("status server shutdown error: %v", err)
	}
}
