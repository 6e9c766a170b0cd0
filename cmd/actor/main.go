// Command actor runs the Actor Loop of spec.md section 4.5 against a
// single activity queue.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/swift-nav/flow/internal/adapters/history"
	"github.com/swift-nav/flow/internal/adapters/httpstatus"
	"github.com/swift-nav/flow/internal/adapters/objectstore"
	"github.com/swift-nav/flow/internal/adapters/queue"
	"github.com/swift-nav/flow/internal/app"
)

func main() {
	queueName := flag.String("queue", "", "activity queue to poll (required)")
	command := flag.String("command", "", "shell-less command to run for each activity (required)")
	concurrency := flag.Int("concurrency", 1, "number of worker goroutines")
	quiescePath := flag.String("quiesce-file", "", "path checked before each iteration; when present, workers exit")
	nocopy := flag.Bool("nocopy", false, "skip seeding the workspace with a copy of the working directory")
	local := flag.Bool("local", false, "use a stable local workspace directory instead of a temp dir")
	localDir := flag.String("local-dir", "", "override the stable path used with -local")
	gzipless := flag.Bool("gzipless", false, "disable gzip compression of staged-out artifacts")
	statusAddr := flag.String("status-addr", ":8080", "address for the /healthz and /metrics endpoints")
	flag.Parse()

	if *queueName == "" || *command == "" {
		log.Fatal("-queue and -command are required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := objectstore.NewPostgresPool(ctx)
	if err != nil {
		log.Fatalf("failed to connect object store: %v", err)
	}
	defer pool.Close()
	store := objectstore.NewPostgresObjectStore(pool)
	auditLog := history.NewPostgresEventLog(pool)

	service := queue.NewRedisWorkflowService(auditLog)

	healthDB, err := objectstore.NewPostgresConnection()
	if err != nil {
		log.Fatalf("failed to open health-check connection: %v", err)
	}
	defer healthDB.Close()

	metrics := httpstatus.NewMetrics()
	statusServer := httpstatus.NewServer(healthDB, metrics, "flow-actor")
	srv := &http.Server{Addr: *statusAddr, Handler: statusServer.Router()}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("status server error: %v", err)
		}
	}()

	stager := app.NewStager(store, !*gzipless)
	loop := app.NewActorLoop(service, stager, *command, app.WorkspaceOptions{
		NoCopy:   *nocopy,
		Local:    *local,
		LocalDir: *localDir,
	})
	loop.Metrics = metrics

	runner := app.NewActorRunner(loop, *queueName, *concurrency, *quiescePath)

	log.Printf("actor starting on queue %q", *queueName)
	if err := runner.Start(ctx); err != nil {
		log.Printf("actor error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("status server shutdown error: %v", err)
	}
}
