package app

import (
	"context"
	"log"
	"os"
	"sync"
)

// ActorRunner fans an ActorLoop out across Concurrency workers and
// implements the quiesce-file shutdown mechanism of spec.md section
// 4.5: before each iteration, if QuiescePath exists, the worker
// returns rather than polling again.
type ActorRunner struct {
	Loop        *ActorLoop
	Queue       string
	Concurrency int
	QuiescePath string
}

func NewActorRunner(loop *ActorLoop, queue string, concurrency int, quiescePath string) *ActorRunner {
	return &ActorRunner{
		Loop:        loop,
		Queue:       queue,
		Concurrency: concurrency,
		QuiescePath: quiescePath,
	}
}

// Start runs Concurrency workers until ctx is canceled or the quiesce
// file appears; each worker runs the Actor Loop independently and
// shares no mutable state with its siblings.
func (r *ActorRunner) Start(ctx context.Context) error {
	log.Printf("Starting actor with %d workers on queue %q...", r.Concurrency, r.Queue)

	var wg sync.WaitGroup
	for i := 0; i < r.Concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			r.workerLoop(ctx, id)
		}(i)
	}
	wg.Wait()

	log.Println("Actor shut down.")
	return nil
}

func (r *ActorRunner) workerLoop(ctx context.Context, id int) {
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
			log.Printf("worker %d: activity iteration error: %v", id, err)
		}
	}
}

func (r *ActorRunner) quiesced() bool {
	if r.QuiescePath == "" {
		return false
	}
	_, err := os.Stat(r.QuiescePath)
	return err == nil
}
