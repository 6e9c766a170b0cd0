package app

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"

	"github.com/swift-nav/flow/internal/domain"
	"github.com/swift-nav/flow/internal/ports"
)

// DeciderLoop implements the Decider half of spec.md section 2: poll
// the decision queue, run the Decision Engine against the returned
// event history and the static Plan, and respond with the resulting
// decisions.
type DeciderLoop struct {
	Service ports.WorkflowService
	Engine  *DecisionEngine
	Plan    domain.Plan
	Metrics ports.Metrics
}

func NewDeciderLoop(service ports.WorkflowService, engine *DecisionEngine, plan domain.Plan) *DeciderLoop {
	return &DeciderLoop{Service: service, Engine: engine, Plan: plan}
}

// RunOnce executes one Decider iteration against queue. A Protocol
// error is logged and the token is left unresponded, per spec.md
// section 7: the service will time it out and re-dispatch.
func (d *DeciderLoop) RunOnce(ctx context.Context, queue string) error {
	task, err := d.Service.PollDecision(ctx, queue)
	if err != nil {
		return err
	}
	if task == nil {
		return nil
	}

	decisions, err := d.Engine.Decide(d.Plan, task.Events)
	if err != nil {
		var protoErr *domain.ProtocolError
		if errors.As(err, &protoErr) {
			if d.Metrics != nil {
				d.Metrics.IncProtocolErrors()
			}
			log.Printf("decision protocol error, letting token expire: %v", err)
			return nil
		}
		return err
	}

	err = withRetry(ctx, func() error {
		return d.Service.RespondDecisionCompleted(ctx, task.Token, decisions)
	})
	if err == nil && d.Metrics != nil {
		d.Metrics.IncDecisionsCompleted()
	}
	return err
}

// DeciderRunner fans a DeciderLoop out across Concurrency workers,
// sharing the quiesce-file shutdown mechanism used by ActorRunner.
type DeciderRunner struct {
	Loop        *DeciderLoop
	Queue       string
	Concurrency int
	QuiescePath string
}

func NewDeciderRunner(loop *DeciderLoop, queue string, concurrency int, quiescePath string) *DeciderRunner {
	return &DeciderRunner{
		Loop:        loop,
		Queue:       queue,
		Concurrency: concurrency,
		QuiescePath: quiescePath,
	}
}

func (r *DeciderRunner) Start(ctx context.Context) error {
	log.Printf("Starting decider with %d workers on queue %q...", r.Concurrency, r.Queue)

	var wg sync.WaitGroup
	for i := 0; i < r.Concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			r.workerLoop(ctx, id)
		}(i)
	}
	wg.Wait()

	log.Println("Decider shut down.")
	return nil
}

func (r *DeciderRunner) workerLoop(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if r.quiesced() {
			log.Printf("worker %d observed quiesce file, exiting", id)
			return
		}

		if err := r.Loop.RunOnce(ctx, r.Queue); err != nil {
			log.Printf("worker %d: decision iteration error: %v", id, err)
		}
	}
}

func (r *DeciderRunner) quiesced() bool {
	if r.QuiescePath == "" {
		return false
	}
	_, err := os.Stat(r.QuiescePath)
	return err == nil
}
