package app

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/swift-nav/flow/internal/domain"
	"github.com/swift-nav/flow/internal/ports"
)

const (
	controlFileName = "control.json"
	inputFileName   = "input.json"
	outputFileName  = "output.json"
)

// controlDocument is the JSON body written to data/control.json, per
// spec.md section 6.
type controlDocument struct {
	RunUid domain.Uid `json:"run_uid"`
}

// ActorLoop implements spec.md section 4.5: one iteration polls the
// activity queue, stages artifacts, runs the user command, stages
// output, and responds.
type ActorLoop struct {
	Service          ports.WorkflowService
	Stager           *Stager
	Command          string
	WorkspaceOptions WorkspaceOptions
	Metrics          ports.Metrics
}

func NewActorLoop(service ports.WorkflowService, stager *Stager, command string, opts WorkspaceOptions) *ActorLoop {
	return &ActorLoop{
		Service:          service,
		Stager:           stager,
		Command:          command,
		WorkspaceOptions: opts,
	}
}

// RunOnce executes one Actor Loop iteration against queue. It returns
// nil when there was no work available, and any error that should be
// logged by the caller without aborting the worker.
func (a *ActorLoop) RunOnce(ctx context.Context, queue string) error {
	task, err := a.Service.PollActivity(ctx, queue)
	if err != nil {
		return err
	}
	if task == nil {
		return nil
	}

	return a.runActivity(ctx, *task)
}

func (a *ActorLoop) runActivity(ctx context.Context, task ports.ActivityTask) error {
	var result RunResult
	var outputMetadata domain.Metadata
	var artifacts []domain.Artifact
	var err error

	err = WithWorkspace(task.Uid, a.WorkspaceOptions, func(ws Workspace) error {
		if err := writeControlDocument(ws, task.Uid); err != nil {
			return err
		}
		if task.Input != "" {
			if err := os.WriteFile(filepath.Join(ws.Data, inputFileName), []byte(task.Input), 0o644); err != nil {
				return err
			}
		}

		if err := a.Stager.StageIn(ctx, task.Uid, ws); err != nil {
			return err
		}

		result = Run(a.Command, ws.Root)

		staged, stageErr := a.Stager.StageOut(ctx, task.Uid, ws)
		if stageErr != nil {
			return stageErr
		}
		artifacts = staged

		outputMetadata, err = readOutputDocument(ws)
		return err
	})
	if err != nil {
		return err
	}

	log.Printf("activity %s produced %d artifacts", task.Uid, len(artifacts))
	return a.respond(ctx, task.Token, result, outputMetadata)
}

// respond implements the exit-code-to-verdict mapping of spec.md
// section 4.5 step 9.
func (a *ActorLoop) respond(ctx context.Context, token domain.Uid, result RunResult, output domain.Metadata) error {
	switch result.Disposition {
	case Success:
		err := withRetry(ctx, func() error {
			return a.Service.RespondActivityCompleted(ctx, token, output)
		})
		if err == nil && a.Metrics != nil {
			a.Metrics.IncActivitiesCompleted()
		}
		return err
	case Canceled:
		err := withRetry(ctx, func() error {
			return a.Service.RespondActivityCanceled(ctx, token)
		})
		if err == nil && a.Metrics != nil {
			a.Metrics.IncActivitiesCanceled()
		}
		return err
	case Failed, SpawnFailed:
		err := withRetry(ctx, func() error {
			return a.Service.RespondActivityFailed(ctx, token)
		})
		if err == nil && a.Metrics != nil {
			a.Metrics.IncActivitiesFailed()
		}
		return err
	default:
		if a.Metrics != nil {
			a.Metrics.IncProtocolErrors()
		}
		return domain.NewProtocolError("unknown disposition %d", result.Disposition)
	}
}

func writeControlDocument(ws Workspace, uid domain.Uid) error {
	doc := controlDocument{RunUid: uid}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(ws.Data, controlFileName), data, 0o644)
}

func readOutputDocument(ws Workspace) (domain.Metadata, error) {
	path := filepath.Join(ws.Data, outputFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return domain.Metadata(data), nil
}
