// SPDX-License-Identifier: Apache-2.0

package plan

import "strings"

// Differ is the engine's schema-diff capability: it decides whether the
// transition between two declared versions can be auto-mapped.
type Differ interface {
	Inferable(source, destination string) (bool, error)
}

// ClassifyEdge tags a single transition. Equal endpoints are tagged KindNone
// without consulting the differ.
func ClassifyEdge(source, destination string, differ Differ) (Step, error) {
	if source == destination {
		return Step{Kind: KindNone, Source: source, Destination: destination}, nil
	}

	inferable, err := differ.Inferable(source, destination)
	if err != nil {
		return Step{}, err
	}

	kind := KindCustom
	if inferable {
		kind = KindLightweight
	}
	return Step{Kind: kind, Source: source, Destination: destination}, nil
}

// Classify builds the plan for a resolved path by tagging every consecutive
// version pair. A single-version path yields an empty plan.
func Classify(path []string, differ Differ) (Plan, error) {
	p := Plan{Path: path}
	for i := 0; i+1 < len(path); i++ {
		step, err := ClassifyEdge(path[i], path[i+1], differ)
		if err != nil {
			return Plan{}, err
		}
		if step.Kind == KindNone {
			continue
		}
		p.Steps = append(p.Steps, step)
	}
	return p, nil
}

// Validate checks, before anything executes, that every custom step has a
// registered transform. hasTransform answers for one exact version pair.
func Validate(p Plan, hasTransform func(source, destination string) bool) error {
	var missing []string
	for _, s := range p.Steps {
		if s.Kind == KindCustom && !hasTransform(s.Source, s.Destination) {
			missing = append(missing, s.String())
		}
	}
	if len(missing) > 0 {
		return InferenceUnavailableError.New(
			"no transform registered for custom step(s): %s", strings.Join(missing, ", "))
	}
	return nil
}
