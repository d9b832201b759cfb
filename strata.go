// SPDX-License-Identifier: Apache-2.0

// Package strata is the public surface of the migration engine. It re-exports
// the pieces a host application needs to declare a version chain, load a
// schema catalog, register hand-written transforms and migrate an embedded
// SQLite store; the CLI under cmd/strata is a thin wrapper over the same
// pieces.
//
// Typical use:
//
//	catalog, err := strata.LoadCatalog("schemas")
//	ch := strata.ChainFromVersions("1.0.0", "1.1.0", "2.0.0")
//	transforms := strata.NewTransforms().
//		Register("1.1.0", "2.0.0", renameEmailColumn)
//
//	st, err := strata.Open(ctx, "app.db")
//	defer st.Close()
//
//	m := strata.NewMigrator(catalog, strata.WithTransforms(transforms))
//	err = m.Migrate(ctx, st, ch, "2.0.0")
package strata

import (
	"github.com/stratahq/strata/internal/chain"
	"github.com/stratahq/strata/internal/executor"
	"github.com/stratahq/strata/internal/plan"
	"github.com/stratahq/strata/internal/schema"
	"github.com/stratahq/strata/internal/store"
)

// Chain and catalog types.
type (
	Chain      = chain.Chain
	Edge       = chain.Edge
	Catalog    = schema.Catalog
	Definition = schema.Definition
	Entity     = schema.Entity
	Attribute  = schema.Attribute
	Index      = schema.Index
	Diff       = schema.Diff
)

// Planning and execution types.
type (
	Plan       = plan.Plan
	Step       = plan.Step
	Kind       = plan.Kind
	Migrator   = executor.Executor
	Transform  = executor.Transform
	Transforms = executor.Transforms
	Progress   = executor.Progress
	Observer   = executor.Observer
	Store      = store.Store
)

const (
	KindNone        = plan.KindNone
	KindLightweight = plan.KindLightweight
	KindCustom      = plan.KindCustom
)

// Chain constructors.
var (
	EmptyChain        = chain.Empty
	ChainFromVersions = chain.FromVersions
	ChainFromEdges    = chain.FromEdges
	CompareVersions   = chain.Compare
)

// Catalog constructors.
var (
	NewCatalog  = schema.NewCatalog
	LoadCatalog = schema.LoadCatalog
)

// Store access.
var (
	Open            = store.Open
	WithStoreLogger = store.WithLogger
)

// Migrator construction.
var (
	NewMigrator         = executor.New
	NewTransforms       = executor.NewTransforms
	WithLogger          = executor.WithLogger
	WithObserver        = executor.WithObserver
	WithResetOnMismatch = executor.WithResetOnMismatch
	WithTransforms      = executor.WithTransforms
)
