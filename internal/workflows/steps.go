// SPDX-License-Identifier: Apache-2.0

package workflows

import (
	"context"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"
	"github.com/joomcode/errorx"

	"github.com/stratahq/strata/internal/doctor"
	"github.com/stratahq/strata/internal/schema"
	"github.com/stratahq/strata/internal/store"
)

// LoadCatalog reads every schema definition from the configured directory.
func LoadCatalog(env *Env) automa.Builder {
	return automa.NewStepBuilder().WithId("load-catalog").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			catalog, err := schema.LoadCatalog(env.Config.Schema.Dir)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}
			if len(catalog.Versions()) == 0 {
				return automa.FailureReport(stp,
					automa.WithError(errorx.IllegalState.New(
						"no schema definitions found in %q", env.Config.Schema.Dir).
						WithProperty(doctor.ErrPropertyResolution,
							"Add at least one .yaml or .toml schema definition to the schema directory.")))
			}

			env.Catalog = catalog
			logx.As().Info().
				Strs("versions", catalog.Versions()).
				Str("dir", env.Config.Schema.Dir).
				Msg("Loaded schema catalog")
			return automa.SuccessReport(stp)
		})
}

// ValidateChain builds the declared version chain and rejects invalid ones
// before anything touches the store.
func ValidateChain(env *Env) automa.Builder {
	return automa.NewStepBuilder().WithId("validate-chain").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			ch := env.Config.Migration.Chain()
			if err := ch.Validate(); err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			// Every declared version must have a schema definition.
			for _, leaf := range ch.Leaves() {
				if _, err := env.Catalog.Require(leaf); err != nil {
					return automa.FailureReport(stp, automa.WithError(err))
				}
			}

			if ch.Len() > 0 && !ch.SemverOrdered() {
				logx.As().Warn().Msg("Declared chain is not in ascending semver order")
			}

			env.Chain = ch
			return automa.SuccessReport(stp)
		})
}

// InspectStore opens the store and records its current version in the env.
func InspectStore(env *Env) automa.Builder {
	return automa.NewStepBuilder().WithId("inspect-store").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			st, err := store.Open(ctx, env.Config.Store.Path, store.WithLogger(logx.As()))
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}
			defer func() { _ = st.Close() }()

			recorded, ok, err := st.RecordedVersion(ctx)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}
			env.Recorded = recorded
			env.Fresh = !ok
			return automa.SuccessReport(stp)
		})
}

// PlanMigration resolves and classifies the plan without writing anything.
func PlanMigration(env *Env) automa.Builder {
	return automa.NewStepBuilder().WithId("plan-migration").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			st, err := store.Open(ctx, env.Config.Store.Path, store.WithLogger(logx.As()))
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}
			defer func() { _ = st.Close() }()

			recorded, ok, err := st.RecordedVersion(ctx)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}
			env.Recorded = recorded
			env.Fresh = !ok

			exec := env.newExecutor()
			p, err := exec.Prepare(ctx, st, env.DirectionChain(recorded), env.Target())
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}
			env.Plan = p
			return automa.SuccessReport(stp)
		})
}

// MigrateStore runs the migration attempt against the configured store.
func MigrateStore(env *Env) automa.Builder {
	return automa.NewStepBuilder().WithId("migrate-store").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			st, err := store.Open(ctx, env.Config.Store.Path, store.WithLogger(logx.As()))
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}
			defer func() { _ = st.Close() }()

			recorded, _, err := st.RecordedVersion(ctx)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			exec := env.newExecutor()
			if err := exec.Migrate(ctx, st, env.DirectionChain(recorded), env.Target()); err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			current, _, err := st.RecordedVersion(ctx)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}
			env.Recorded = current
			env.Fresh = false
			return automa.SuccessReport(stp)
		})
}

// ResetStore rebuilds the store directly at the target version, discarding
// all data. Guarded behind an explicit command, never implicit.
func ResetStore(env *Env) automa.Builder {
	return automa.NewStepBuilder().WithId("reset-store").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			target := env.Target()
			if target == "" {
				ch := env.Config.Migration.Chain()
				leaves := ch.Leaves()
				if len(leaves) != 1 {
					return automa.FailureReport(stp,
						automa.WithError(errorx.IllegalArgument.New(
							"no target version given and the chain has %d leaves", len(leaves)).
							WithProperty(doctor.ErrPropertyResolution,
								"Pass --target to choose the version to rebuild the store at.")))
				}
				target = leaves[0]
			}

			def, err := env.Catalog.Require(target)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			st, err := store.Open(ctx, env.Config.Store.Path, store.WithLogger(logx.As()))
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}
			defer func() { _ = st.Close() }()

			if err := st.Reset(ctx, def); err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}
			env.Recorded = target
			env.Fresh = false
			return automa.SuccessReport(stp)
		})
}
