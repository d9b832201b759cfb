// SPDX-License-Identifier: Apache-2.0

package chain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyChain(t *testing.T) {
	c := Empty()

	assert.True(t, c.IsValid())
	require.NoError(t, c.Validate())
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Roots())
	assert.Empty(t, c.Leaves())
	assert.False(t, c.Contains("V1"))
}

func TestFromVersions_Linear(t *testing.T) {
	c := FromVersions("V1", "V2", "V3")

	require.True(t, c.IsValid())
	assert.Equal(t, []string{"V1"}, c.Roots())
	assert.Equal(t, []string{"V3"}, c.Leaves())
	assert.Equal(t, 3, c.Len())

	next, ok := c.Next("V1")
	require.True(t, ok)
	assert.Equal(t, "V2", next)

	next, ok = c.Next("V2")
	require.True(t, ok)
	assert.Equal(t, "V3", next)

	_, ok = c.Next("V3")
	assert.False(t, ok)
}

func TestFromVersions_SingleVersion(t *testing.T) {
	c := FromVersions("V1")

	require.True(t, c.IsValid())
	assert.Equal(t, []string{"V1"}, c.Roots())
	assert.Equal(t, []string{"V1"}, c.Leaves())
	assert.True(t, c.Contains("V1"))

	_, ok := c.Next("V1")
	assert.False(t, ok)
}

func TestFromVersions_DuplicateIsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		versions []string
	}{
		{name: "immediate repeat", versions: []string{"V1", "V1"}},
		{name: "repeat at end", versions: []string{"V1", "V2", "V1"}},
		{name: "repeat in middle", versions: []string{"V1", "V2", "V2", "V3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := FromVersions(tt.versions...)
			assert.False(t, c.IsValid())
			require.Error(t, c.Validate())
			assert.NotEmpty(t, c.Issues())
		})
	}
}

func TestFromEdges_AmbiguousSource(t *testing.T) {
	c := FromEdges([]Edge{
		{Source: "V1", Destination: "V2"},
		{Source: "V1", Destination: "V3"},
	})

	assert.False(t, c.IsValid())
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")

	// The first declaration wins so the partial structure stays inspectable.
	next, ok := c.Next("V1")
	require.True(t, ok)
	assert.Equal(t, "V2", next)
}

func TestFromEdges_Cycle(t *testing.T) {
	tests := []struct {
		name  string
		edges []Edge
	}{
		{
			name: "two-node cycle",
			edges: []Edge{
				{Source: "A", Destination: "B"},
				{Source: "B", Destination: "A"},
			},
		},
		{
			name: "three-node cycle",
			edges: []Edge{
				{Source: "A", Destination: "B"},
				{Source: "B", Destination: "C"},
				{Source: "C", Destination: "A"},
			},
		},
		{
			name: "cycle behind a valid prefix",
			edges: []Edge{
				{Source: "V0", Destination: "A"},
				{Source: "A", Destination: "B"},
				{Source: "B", Destination: "A"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := FromEdges(tt.edges)
			assert.False(t, c.IsValid())
			require.Error(t, c.Validate())
		})
	}
}

func TestFromEdges_AmbiguityAndCycleBothReported(t *testing.T) {
	c := FromEdges([]Edge{
		{Source: "V1", Destination: "V2"},
		{Source: "V1", Destination: "V3"},
		{Source: "A", Destination: "B"},
		{Source: "B", Destination: "A"},
	})

	require.False(t, c.IsValid())
	issues := c.Issues()
	var ambiguous, cyclic bool
	for _, issue := range issues {
		if strings.Contains(issue, "ambiguous") {
			ambiguous = true
		}
		if strings.Contains(issue, "cycle") {
			cyclic = true
		}
	}
	assert.True(t, ambiguous, "ambiguity should be reported, got %v", issues)
	assert.True(t, cyclic, "cycle should be reported, got %v", issues)
}

func TestSelfLoopHasNoSuccessor(t *testing.T) {
	c := FromEdges([]Edge{
		{Source: "V1", Destination: "V1"},
		{Source: "V2", Destination: "V3"},
	})

	require.True(t, c.IsValid())
	_, ok := c.Next("V1")
	assert.False(t, ok)
	assert.True(t, c.Contains("V1"))
}

func TestMergingPathsAreValidForward(t *testing.T) {
	// Two histories converging on one version is a valid forward forest.
	c := FromEdges([]Edge{
		{Source: "A1", Destination: "C"},
		{Source: "B1", Destination: "C"},
	})
	require.True(t, c.IsValid())
	assert.ElementsMatch(t, []string{"A1", "B1"}, c.Roots())
	assert.Equal(t, []string{"C"}, c.Leaves())

	// Flipping it makes the successor of C ambiguous.
	r := c.Reversed()
	assert.False(t, r.IsValid())
}

func TestReversed(t *testing.T) {
	c := FromVersions("V1", "V2", "V3")
	r := c.Reversed()

	require.True(t, r.IsValid())
	assert.Equal(t, []string{"V3"}, r.Roots())
	assert.Equal(t, []string{"V1"}, r.Leaves())

	next, ok := r.Next("V3")
	require.True(t, ok)
	assert.Equal(t, "V2", next)
}

func TestSemverOrdered(t *testing.T) {
	tests := []struct {
		name     string
		versions []string
		want     bool
	}{
		{name: "ascending semver", versions: []string{"1.0.0", "1.1.0", "2.0.0"}, want: true},
		{name: "descending semver", versions: []string{"2.0.0", "1.0.0"}, want: false},
		{name: "not semver", versions: []string{"V1", "V2"}, want: false},
		{name: "v-prefixed", versions: []string{"v1.0.0", "v1.2.0"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := FromVersions(tt.versions...)
			assert.Equal(t, tt.want, c.SemverOrdered())
		})
	}
}

func TestCompare(t *testing.T) {
	cmp, err := Compare("1.0.0", "2.0.0")
	require.NoError(t, err)
	assert.Negative(t, cmp)

	cmp, err = Compare("2.0.0", "2.0.0")
	require.NoError(t, err)
	assert.Zero(t, cmp)

	_, err = Compare("not-a-version", "1.0.0")
	require.Error(t, err)
}
