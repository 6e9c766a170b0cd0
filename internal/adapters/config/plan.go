// Package config loads the static Plan a Decider replays event
// histories against, per spec.md section 5.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/swift-nav/flow/internal/domain"
)

// LoadPlan reads and parses a Plan document from path.
func LoadPlan(path string) (domain.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Plan{}, err
	}
	return ParsePlan(data)
}

// ParsePlan parses a Plan document from raw YAML bytes and rejects one
// that is structurally malformed (see domain.Plan.Validate), so a bad
// configuration is fatal at startup rather than surfacing as a panic
// the first time the Decision Engine dispatches on it.
func ParsePlan(data []byte) (domain.Plan, error) {
	var plan domain.Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return domain.Plan{}, err
	}
	if err := plan.Validate(); err != nil {
		return domain.Plan{}, err
	}
	return plan, nil
}
