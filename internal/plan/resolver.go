// SPDX-License-Identifier: Apache-2.0

package plan

import (
	"github.com/joomcode/errorx"

	"github.com/stratahq/strata/internal/chain"
)

var (
	ErrNamespace = errorx.NewNamespace("plan")

	// UnknownVersionError indicates a store recorded a version that is absent
	// from the declared chain. Only the caller can fix this: amend the chain
	// or discard the store.
	UnknownVersionError = ErrNamespace.NewType("unknown_version", errorx.NotFound())

	// UnreachableTargetError indicates the requested target version cannot be
	// reached by walking forward from the recorded version.
	UnreachableTargetError = ErrNamespace.NewType("unreachable_target")

	// InferenceUnavailableError indicates a custom step has no registered
	// transform. Detected before execution begins, never mid-migration.
	InferenceUnavailableError = ErrNamespace.NewType("inference_unavailable")

	// InternalError marks internal-consistency violations, such as a cycle
	// showing up during traversal of an already-validated chain.
	InternalError = ErrNamespace.NewType("internal")
)

// Properties attached to step and plan errors so callers can recover the
// exact endpoints of a failed or unplannable transition.
var (
	PropertySource      = errorx.RegisterPrintableProperty("sourceVersion")
	PropertyDestination = errorx.RegisterPrintableProperty("destinationVersion")
)

// Resolve walks the chain from current towards target and returns the ordered
// version path, current first. An empty target means "walk to the leaf".
//
// The chain must be valid. A current version missing from a non-empty chain is
// a configuration error, never silently guessed around. On an empty chain the
// path is the direct jump current -> target.
func Resolve(c *chain.Chain, current, target string) ([]string, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if current == target || (target == "" && c.Len() == 0) {
		return []string{current}, nil
	}

	if c.Len() == 0 {
		return []string{current, target}, nil
	}

	if !c.Contains(current) {
		return nil, UnknownVersionError.
			New("store version %q is not part of the declared chain", current).
			WithProperty(PropertySource, current)
	}

	path := []string{current}
	seen := map[string]struct{}{current: {}}
	v := current
	for {
		next, ok := c.Next(v)
		if !ok {
			break
		}
		if _, repeated := seen[next]; repeated {
			// The chain validated as acyclic, so a repeat here is a bug in the
			// walk itself, not a user error.
			return nil, InternalError.New("traversal from %q revisited %q", current, next)
		}
		seen[next] = struct{}{}
		path = append(path, next)
		if next == target {
			return path, nil
		}
		v = next
	}

	if target != "" {
		return nil, UnreachableTargetError.
			New("version %q is not reachable from %q in the declared chain", target, current).
			WithProperty(PropertySource, current).
			WithProperty(PropertyDestination, target)
	}

	return path, nil
}
