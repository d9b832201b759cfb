// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"context"
	"database/sql"
)

// Transform is a hand-written migration for one exact version transition. It
// runs inside the step's transaction: either the whole transform commits
// together with the version bump, or nothing does.
type Transform func(ctx context.Context, tx *sql.Tx) error

// Transforms registers hand-written migrations by (source, destination) pair.
type Transforms struct {
	m map[[2]string]Transform
}

// NewTransforms returns an empty registry.
func NewTransforms() *Transforms {
	return &Transforms{m: map[[2]string]Transform{}}
}

// Register binds fn to the exact transition source -> destination. A later
// registration for the same pair replaces the earlier one.
func (t *Transforms) Register(source, destination string, fn Transform) *Transforms {
	t.m[[2]string{source, destination}] = fn
	return t
}

// Lookup returns the transform registered for the pair, if any.
func (t *Transforms) Lookup(source, destination string) (Transform, bool) {
	fn, ok := t.m[[2]string{source, destination}]
	return fn, ok
}

// Has reports whether a transform is registered for the pair.
func (t *Transforms) Has(source, destination string) bool {
	_, ok := t.m[[2]string{source, destination}]
	return ok
}
