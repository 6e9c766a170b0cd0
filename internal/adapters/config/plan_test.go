package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/swift-nav/flow/internal/domain"
)

func TestParsePlan_RoundTrip(t *testing.T) {
	plan := domain.Plan{
		Start: domain.Task{Name: "root", Version: "1.0", Queue: "root-queue", TimeoutSeconds: 30},
		Specs: []domain.Spec{
			{Kind: domain.SpecWork, Task: &domain.Task{Name: "fetch", Version: "1.0", Queue: "fetch-queue", TimeoutSeconds: 60}},
			{Kind: domain.SpecSleep, Timer: &domain.Timer{Name: "cooldown", TimeoutSeconds: 120}},
			{Kind: domain.SpecWork, Task: &domain.Task{Name: "publish", Version: "2.0", Queue: "publish-queue", TimeoutSeconds: 45}},
		},
		End: domain.EndContinue,
	}

	data, err := yaml.Marshal(plan)
	require.NoError(t, err)

	parsed, err := ParsePlan(data)
	require.NoError(t, err)
	assert.Equal(t, plan, parsed)
}

func TestParsePlan_MinimalStopPlan(t *testing.T) {
	data := []byte(`
start:
  name: root
  version: "1.0"
  queue: root-queue
  timeoutSeconds: 30
specs:
  - kind: work
    task:
      name: only-step
      version: "1.0"
      queue: work-queue
      timeoutSeconds: 10
end: stop
`)

	plan, err := ParsePlan(data)
	require.NoError(t, err)
	require.Len(t, plan.Specs, 1)
	assert.Equal(t, domain.EndStop, plan.End)
	assert.Equal(t, "only-step", plan.Specs[0].Task.Name)
}

func TestLoadPlan_MissingFile(t *testing.T) {
	_, err := LoadPlan("/nonexistent/path/plan.yaml")
	assert.Error(t, err)
}

func TestParsePlan_RejectsWorkSpecWithNoTask(t *testing.T) {
	data := []byte(`
start:
  name: root
  version: "1.0"
  queue: root-queue
  timeoutSeconds: 30
specs:
  - kind: work
end: stop
`)

	_, err := ParsePlan(data)
	assert.Error(t, err)
}

func TestParsePlan_RejectsSleepSpecWithNoTimer(t *testing.T) {
	data := []byte(`
start:
  name: root
  version: "1.0"
  queue: root-queue
  timeoutSeconds: 30
specs:
  - kind: sleep
end: stop
`)

	_, err := ParsePlan(data)
	assert.Error(t, err)
}

func TestParsePlan_RejectsUnknownEndPolicy(t *testing.T) {
	data := []byte(`
start:
  name: root
  version: "1.0"
  queue: root-queue
  timeoutSeconds: 30
specs: []
end: retry
`)

	_, err := ParsePlan(data)
	assert.Error(t, err)
}

func TestParsePlan_RejectsDuplicateSpecNames(t *testing.T) {
	data := []byte(`
start:
  name: root
  version: "1.0"
  queue: root-queue
  timeoutSeconds: 30
specs:
  - kind: work
    task: {name: step, version: "1.0", queue: q, timeoutSeconds: 10}
  - kind: sleep
    timer: {name: step, timeoutSeconds: 10}
end: stop
`)

	_, err := ParsePlan(data)
	assert.Error(t, err)
}
