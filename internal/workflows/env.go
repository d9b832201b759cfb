// SPDX-License-Identifier: Apache-2.0

// Package workflows wires the migration engine into automa workflows: each
// CLI command builds one workflow from small steps that load the schema
// catalog, validate the declared chain and drive the executor against the
// configured store.
package workflows

import (
	"github.com/automa-saga/logx"

	"github.com/stratahq/strata/internal/chain"
	"github.com/stratahq/strata/internal/config"
	"github.com/stratahq/strata/internal/executor"
	"github.com/stratahq/strata/internal/plan"
	"github.com/stratahq/strata/internal/schema"
)

// Env carries state between the steps of one workflow run. Steps populate it
// in order; commands read the results after the workflow completes.
type Env struct {
	Config     config.Config
	Transforms *executor.Transforms

	// Populated by the load-catalog and validate-chain steps.
	Catalog *schema.Catalog
	Chain   *chain.Chain

	// Populated by the inspect-store and plan-migration steps.
	Recorded string
	Fresh    bool
	Plan     plan.Plan
}

// NewEnv builds a workflow environment from the loaded configuration.
func NewEnv(cfg config.Config) *Env {
	return &Env{
		Config:     cfg,
		Transforms: executor.NewTransforms(),
	}
}

// Target returns the configured target version, or empty to let the executor
// default to the chain's sole leaf.
func (e *Env) Target() string {
	return e.Config.Migration.Target
}

// DirectionChain picks the chain to walk for one attempt. With downgrades
// allowed and a target semver-below the recorded version, the reversed chain
// is walked instead of the declared one.
func (e *Env) DirectionChain(recorded string) *chain.Chain {
	target := e.Target()
	if !e.Config.Migration.AllowDowngrade || target == "" || recorded == "" {
		return e.Chain
	}

	cmp, err := chain.Compare(target, recorded)
	if err != nil {
		// Non-semver versions cannot express a direction, walk forward.
		logx.As().Debug().
			Str("recorded", recorded).
			Str("target", target).
			Msg("Versions are not semver, walking the declared chain")
		return e.Chain
	}
	if cmp < 0 {
		logx.As().Info().
			Str("recorded", recorded).
			Str("target", target).
			Msg("Target precedes recorded version, walking the reversed chain")
		return e.Chain.Reversed()
	}
	return e.Chain
}

func (e *Env) newExecutor(opts ...executor.Option) *executor.Executor {
	logger := logx.As()
	all := append([]executor.Option{
		executor.WithLogger(logger),
		executor.WithTransforms(e.Transforms),
		executor.WithResetOnMismatch(e.Config.Migration.ResetOnMismatch),
		executor.WithObserver(func(p executor.Progress) {
			logx.As().Info().
				Int("completed", p.Completed).
				Int("total", p.Total).
				Bool("done", p.Done).
				Msg(p.Description)
		}),
	}, opts...)
	return executor.New(e.Catalog, all...)
}
