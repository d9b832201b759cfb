// SPDX-License-Identifier: Apache-2.0

// Package plan turns a version chain and a store's recorded version into an
// ordered migration plan: the exact sequence of transitions to execute, each
// tagged with how it must be carried out.
package plan

import "fmt"

// Kind tags how one transition is carried out.
type Kind int

const (
	// KindNone means source and destination are the same version; nothing to do.
	KindNone Kind = iota
	// KindLightweight means the engine can auto-map the transition from the
	// schema diff alone.
	KindLightweight
	// KindCustom means the transition needs a hand-written transform
	// registered for this exact version pair.
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindLightweight:
		return "lightweight"
	case KindCustom:
		return "custom"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Step is one transition of a plan. Source equals Destination exactly when
// Kind is KindNone.
type Step struct {
	Kind        Kind
	Source      string
	Destination string
}

func (s Step) String() string {
	if s.Kind == KindNone {
		return fmt.Sprintf("%s (no change)", s.Source)
	}
	return fmt.Sprintf("%s -> %s (%s)", s.Source, s.Destination, s.Kind)
}

// Plan is the ordered sequence of steps from a store's recorded version to
// the target. An empty plan means the store is already current.
type Plan struct {
	// Path holds every version visited, starting at the recorded version.
	Path []string
	// Steps has one entry per consecutive pair of Path.
	Steps []Step
}

// Empty reports whether there is nothing to execute.
func (p Plan) Empty() bool {
	return len(p.Steps) == 0
}

// Target returns the final version of the plan, or empty for a zero plan.
func (p Plan) Target() string {
	if len(p.Path) == 0 {
		return ""
	}
	return p.Path[len(p.Path)-1]
}
