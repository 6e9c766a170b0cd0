package domain

import "fmt"

// SpecKind discriminates the two variants a Plan step can take.
type SpecKind string

const (
	SpecWork  SpecKind = "work"
	SpecSleep SpecKind = "sleep"
)

// EndPolicy is the terminal behaviour of a Plan once its last Spec
// completes.
type EndPolicy string

const (
	EndStop     EndPolicy = "stop"
	EndContinue EndPolicy = "continue"
)

// Task is the immutable declaration of a Work step: an activity name,
// version, queue, and per-attempt timeout.
type Task struct {
	Name           string `yaml:"name"`
	Version        string `yaml:"version"`
	Queue          string `yaml:"queue"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// Timer is the immutable declaration of a Sleep step.
type Timer struct {
	Name           string `yaml:"name"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// Spec is one step in a Plan: either a Work(Task) or a Sleep(Timer).
// Exactly one of Task/Timer is populated, selected by Kind.
type Spec struct {
	Kind  SpecKind `yaml:"kind"`
	Task  *Task    `yaml:"task,omitempty"`
	Timer *Timer   `yaml:"timer,omitempty"`
}

// Name returns the task or timer name this Spec advances by, regardless
// of variant.
func (s Spec) Name() string {
	switch s.Kind {
	case SpecWork:
		if s.Task == nil {
			return ""
		}
		return s.Task.Name
	case SpecSleep:
		if s.Timer == nil {
			return ""
		}
		return s.Timer.Name
	default:
		return ""
	}
}

// Plan is the static declaration of a workflow: a start task used only
// when continuing-as-new, an ordered list of Specs, and a terminal
// policy.
type Plan struct {
	Start Task      `yaml:"start"`
	Specs []Spec    `yaml:"specs"`
	End   EndPolicy `yaml:"end"`
}

// Validate checks the structural consistency a syntactically valid but
// semantically malformed Plan document can still violate: a Spec's
// Kind must agree with which of Task/Timer is populated, every
// task/timer must be named, End must be one of the two known
// policies, and Spec names must be unique. It is meant to be called
// once at process startup, right after a Plan is parsed, so a bad
// configuration fails fast instead of panicking deep inside the
// Decision Engine on the first matching decision task.
func (p Plan) Validate() error {
	if p.End != EndStop && p.End != EndContinue {
		return fmt.Errorf("plan: unknown end policy %q", p.End)
	}

	seen := make(map[string]bool, len(p.Specs))
	for i, s := range p.Specs {
		switch s.Kind {
		case SpecWork:
			if s.Task == nil {
				return fmt.Errorf("plan: spec %d is kind %q with no task", i, s.Kind)
			}
			if s.Task.Name == "" {
				return fmt.Errorf("plan: spec %d task has no name", i)
			}
			if s.Timer != nil {
				return fmt.Errorf("plan: spec %d is kind %q but also has a timer", i, s.Kind)
			}
		case SpecSleep:
			if s.Timer == nil {
				return fmt.Errorf("plan: spec %d is kind %q with no timer", i, s.Kind)
			}
			if s.Timer.Name == "" {
				return fmt.Errorf("plan: spec %d timer has no name", i)
			}
			if s.Task != nil {
				return fmt.Errorf("plan: spec %d is kind %q but also has a task", i, s.Kind)
			}
		default:
			return fmt.Errorf("plan: spec %d has unknown kind %q", i, s.Kind)
		}

		name := s.Name()
		if seen[name] {
			return fmt.Errorf("plan: spec name %q is not unique", name)
		}
		seen[name] = true
	}

	return nil
}

// NextSpec implements the Next-Spec rule from spec.md section 4.6:
// walk specs left-to-right, drop every element until the first whose
// variant is kind and whose task/timer name equals name, then return
// the immediately-following element, if any.
func NextSpec(specs []Spec, kind SpecKind, name string) (Spec, bool) {
	for i, s := range specs {
		if s.Kind == kind && s.Name() == name {
			if i+1 < len(specs) {
				return specs[i+1], true
			}
			return Spec{}, false
		}
	}
	return Spec{}, false
}
