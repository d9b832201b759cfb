// SPDX-License-Identifier: Apache-2.0

// Package chain models the declared history of schema versions as an immutable
// chain: a mapping from each version to its single successor. A store migrates
// progressively by walking the chain from its recorded version towards a leaf.
//
// The chain is a forest of simple paths, not a general graph: each version has
// at most one successor, so planning never needs more than a straight-line walk.
// Validation happens once at construction; an invalid chain stays inspectable
// for diagnostics but Validate() reports the violations so consumers can refuse
// to plan against it.
package chain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/automa-saga/logx"
	"github.com/joomcode/errorx"
)

var (
	ErrNamespace = errorx.NewNamespace("chain")

	// InvalidChainError indicates ambiguous or cyclic version declarations.
	InvalidChainError = ErrNamespace.NewType("invalid_chain")
)

// Edge declares that a store at Source migrates next to Destination.
type Edge struct {
	Source      string
	Destination string
}

// Chain is an immutable successor mapping over schema versions.
//
// An empty chain means "no progressive history is declared": the planner maps
// whatever version a store is at directly to the requested target. A
// single-version chain means "the store must already be at, or be brought
// directly to, this version".
type Chain struct {
	edges    map[string]string
	versions map[string]struct{}
	valid    bool
	issues   []string
}

// Empty returns a chain with no declared versions. It is always valid.
func Empty() *Chain {
	return &Chain{
		edges:    map[string]string{},
		versions: map[string]struct{}{},
		valid:    true,
	}
}

// FromVersions builds a linear chain v0 -> v1 -> ... -> vn from the declared
// order. A repeated version marks the chain invalid.
func FromVersions(versions ...string) *Chain {
	edges := make([]Edge, 0, len(versions))
	for i := 0; i+1 < len(versions); i++ {
		edges = append(edges, Edge{Source: versions[i], Destination: versions[i+1]})
	}

	c := FromEdges(edges)
	declared := make(map[string]struct{}, len(versions))
	for _, v := range versions {
		if _, dup := declared[v]; dup {
			c.fail("version %q declared more than once", v)
		}
		declared[v] = struct{}{}
		c.versions[v] = struct{}{}
	}
	return c
}

// FromEdges builds a chain from explicit source -> destination declarations.
// A source declared twice with different destinations (ambiguity) or a walk
// that revisits a version (cycle) marks the chain invalid. Construction never
// fails outright; all violations are collected and logged so the full set can
// be reported at once.
func FromEdges(edges []Edge) *Chain {
	c := &Chain{
		edges:    make(map[string]string, len(edges)),
		versions: make(map[string]struct{}, len(edges)*2),
		valid:    true,
	}

	for _, e := range edges {
		c.versions[e.Source] = struct{}{}
		c.versions[e.Destination] = struct{}{}

		if existing, ok := c.edges[e.Source]; ok {
			if existing == e.Destination {
				c.fail("duplicate declaration of edge %q -> %q", e.Source, e.Destination)
			} else {
				c.fail("ambiguous successor for %q: %q and %q", e.Source, existing, e.Destination)
			}
			continue
		}
		c.edges[e.Source] = e.Destination
	}

	// Walk forward from every version even if already invalid, so cycles are
	// surfaced alongside ambiguity rather than hidden behind it.
	for v := range c.versions {
		c.detectCycle(v)
	}

	return c
}

func (c *Chain) fail(format string, args ...interface{}) {
	c.valid = false
	issue := fmt.Sprintf(format, args...)
	c.issues = append(c.issues, issue)
	logx.As().Warn().Str("issue", issue).Msg("Invalid version chain declaration")
}

func (c *Chain) detectCycle(start string) {
	seen := map[string]struct{}{start: {}}
	v := start
	for {
		next, ok := c.Next(v)
		if !ok {
			return
		}
		if _, repeated := seen[next]; repeated {
			c.fail("cycle through %q revisits %q", start, next)
			return
		}
		seen[next] = struct{}{}
		v = next
	}
}

// IsValid reports whether construction detected no ambiguity and no cycle.
func (c *Chain) IsValid() bool {
	return c.valid
}

// Validate returns nil for a valid chain, or an InvalidChainError carrying
// every violation detected at construction.
func (c *Chain) Validate() error {
	if c.valid {
		return nil
	}
	return InvalidChainError.New("declared version chain is invalid: %s", strings.Join(c.issues, "; "))
}

// Issues returns the violations detected at construction, for diagnostics.
func (c *Chain) Issues() []string {
	out := make([]string, len(c.issues))
	copy(out, c.issues)
	return out
}

// Contains reports whether version appears anywhere in the chain.
func (c *Chain) Contains(version string) bool {
	_, ok := c.versions[version]
	return ok
}

// Next returns the declared successor of version. A self-referencing edge is
// treated as "no successor", not as a transition.
func (c *Chain) Next(version string) (string, bool) {
	next, ok := c.edges[version]
	if !ok || next == version {
		return "", false
	}
	return next, true
}

// Roots returns the versions with no incoming edge, sorted for stable output.
func (c *Chain) Roots() []string {
	incoming := make(map[string]struct{}, len(c.edges))
	for src, dst := range c.edges {
		if dst != src {
			incoming[dst] = struct{}{}
		}
	}

	var roots []string
	for v := range c.versions {
		if _, ok := incoming[v]; !ok {
			roots = append(roots, v)
		}
	}
	sort.Strings(roots)
	return roots
}

// Leaves returns the versions with no outgoing edge, sorted for stable output.
func (c *Chain) Leaves() []string {
	var leaves []string
	for v := range c.versions {
		if _, ok := c.Next(v); !ok {
			leaves = append(leaves, v)
		}
	}
	sort.Strings(leaves)
	return leaves
}

// Len returns the number of declared versions.
func (c *Chain) Len() int {
	return len(c.versions)
}

// Reversed returns the chain with every edge flipped, for downgrade traversal.
// The caller decides direction; the planner itself only ever walks forward.
// Flipping a chain where two sources share a destination yields an ambiguous
// (invalid) reverse chain, which Validate() reports as usual.
func (c *Chain) Reversed() *Chain {
	edges := make([]Edge, 0, len(c.edges))
	for src, dst := range c.edges {
		edges = append(edges, Edge{Source: dst, Destination: src})
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].Source < edges[j].Source })

	r := FromEdges(edges)
	for v := range c.versions {
		r.versions[v] = struct{}{}
	}
	return r
}

// SemverOrdered reports whether every declared version parses as a semantic
// version and every edge ascends in semver order. When it holds, a caller can
// compare a store's version against a target to decide between the forward and
// the reversed chain.
func (c *Chain) SemverOrdered() bool {
	parsed := make(map[string]*semver.Version, len(c.versions))
	for v := range c.versions {
		sv, err := semver.NewVersion(v)
		if err != nil {
			return false
		}
		parsed[v] = sv
	}

	for src, dst := range c.edges {
		if src == dst {
			continue
		}
		if !parsed[src].LessThan(parsed[dst]) {
			return false
		}
	}
	return true
}

// Compare orders two versions under semver. It is only meaningful when
// SemverOrdered() holds; parse failures are reported as errors.
func Compare(a, b string) (int, error) {
	av, err := semver.NewVersion(a)
	if err != nil {
		return 0, errorx.IllegalFormat.Wrap(err, "cannot parse version %q", a)
	}
	bv, err := semver.NewVersion(b)
	if err != nil {
		return 0, errorx.IllegalFormat.Wrap(err, "cannot parse version %q", b)
	}
	return av.Compare(bv), nil
}
