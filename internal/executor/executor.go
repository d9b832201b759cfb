// SPDX-License-Identifier: Apache-2.0

// Package executor applies a resolved migration plan to a concrete store. It
// owns the order of execution, progress reporting and the reset-on-mismatch
// fallback; planning and schema diffing live in their own packages.
//
// An attempt moves through a fixed set of states:
//
//	Unopened -> ResolvingPath -> Ready                     (empty plan)
//	Unopened -> ResolvingPath -> Migrating -> Ready        (all steps commit)
//	Unopened -> ResolvingPath -> Migrating -> Failed       (propagate policy)
//	Unopened -> ResolvingPath -> Migrating -> ResetAndRetry -> Ready
//
// ResetAndRetry loops back exactly once: a reset produces a fresh store at the
// target version, which has nothing left to migrate.
package executor

import (
	"context"
	"database/sql"

	"github.com/joomcode/errorx"
	"github.com/rs/zerolog"

	"github.com/stratahq/strata/internal/chain"
	"github.com/stratahq/strata/internal/plan"
	"github.com/stratahq/strata/internal/schema"
)

var (
	ErrNamespace = errorx.NewNamespace("executor")

	// StepFailedError wraps an engine rejection of one transition. The
	// endpoint versions ride along as error properties.
	StepFailedError = ErrNamespace.NewType("step_failed")
)

type attemptState int

const (
	stateUnopened attemptState = iota
	stateResolvingPath
	stateMigrating
	stateReady
	stateFailed
	stateResetAndRetry
)

func (s attemptState) String() string {
	switch s {
	case stateUnopened:
		return "unopened"
	case stateResolvingPath:
		return "resolving-path"
	case stateMigrating:
		return "migrating"
	case stateReady:
		return "ready"
	case stateFailed:
		return "failed"
	case stateResetAndRetry:
		return "reset-and-retry"
	default:
		return "unknown"
	}
}

// Engine is the store surface the executor drives. *store.Store implements
// it; tests substitute fakes.
type Engine interface {
	RecordedVersion(ctx context.Context) (string, bool, error)
	Initialize(ctx context.Context, def *schema.Definition) error
	ApplyDDL(ctx context.Context, version string, stmts []string) error
	ApplyTransform(ctx context.Context, version string, fn func(tx *sql.Tx) error) error
	Reset(ctx context.Context, def *schema.Definition) error
	Path() string
}

// Executor migrates stores along a declared version chain.
type Executor struct {
	catalog         *schema.Catalog
	transforms      *Transforms
	resetOnMismatch bool
	observers       []Observer
	logger          *zerolog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger for migration execution.
func WithLogger(logger *zerolog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithResetOnMismatch makes a failed step delete the store and re-create it
// directly at the target version. Data loss is the explicit trade-off; meant
// for debugging and cheaply rebuildable caches, never for primary data.
func WithResetOnMismatch(reset bool) Option {
	return func(e *Executor) {
		e.resetOnMismatch = reset
	}
}

// WithObserver subscribes an observer to progress updates.
func WithObserver(obs Observer) Option {
	return func(e *Executor) {
		e.observers = append(e.observers, obs)
	}
}

// WithTransforms supplies the hand-written migrations for custom steps.
func WithTransforms(t *Transforms) Option {
	return func(e *Executor) {
		e.transforms = t
	}
}

// New creates an executor over the given schema catalog.
func New(catalog *schema.Catalog, opts ...Option) *Executor {
	nop := zerolog.Nop()
	e := &Executor{
		catalog:    catalog,
		transforms: NewTransforms(),
		logger:     &nop,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) publish(p Progress) {
	for _, obs := range e.observers {
		obs(p)
	}
}

func (e *Executor) transition(state *attemptState, next attemptState, eng Engine) {
	e.logger.Debug().
		Str("store", eng.Path()).
		Str("from", state.String()).
		Str("to", next.String()).
		Msg("Migration attempt state change")
	*state = next
}

// resolveTarget defaults an empty target to the chain's sole leaf.
func resolveTarget(ch *chain.Chain, target string) (string, error) {
	if target != "" {
		return target, nil
	}
	leaves := ch.Leaves()
	if len(leaves) != 1 {
		return "", errorx.IllegalArgument.New(
			"no target version given and the chain has %d leaves", len(leaves))
	}
	return leaves[0], nil
}

// Prepare resolves, classifies and validates the plan for migrating eng from
// its recorded version to target along ch. It performs no writes.
func (e *Executor) Prepare(ctx context.Context, eng Engine, ch *chain.Chain, target string) (plan.Plan, error) {
	if err := ch.Validate(); err != nil {
		return plan.Plan{}, err
	}

	target, err := resolveTarget(ch, target)
	if err != nil {
		return plan.Plan{}, err
	}

	recorded, ok, err := eng.RecordedVersion(ctx)
	if err != nil {
		return plan.Plan{}, err
	}
	if !ok {
		// Fresh store: it will be created directly at the target, no traversal.
		return plan.Plan{Path: []string{target}}, nil
	}

	path, err := plan.Resolve(ch, recorded, target)
	if err != nil {
		return plan.Plan{}, err
	}

	p, err := plan.Classify(path, e.catalog)
	if err != nil {
		return plan.Plan{}, err
	}

	if err := plan.Validate(p, e.transforms.Has); err != nil {
		return plan.Plan{}, err
	}

	return p, nil
}

// Migrate brings eng to target, walking ch from the store's recorded version.
// An empty target resolves to the chain's sole leaf.
//
// Migration must not run concurrently with any transaction against the same
// store; the engine's lock enforces the single-writer discipline for the
// duration of the attempt.
func (e *Executor) Migrate(ctx context.Context, eng Engine, ch *chain.Chain, target string) error {
	state := stateUnopened

	// An invalid chain blocks the attempt entirely, fresh store included:
	// a store must never be set up against a misdeclared history.
	if err := ch.Validate(); err != nil {
		return err
	}

	target, err := resolveTarget(ch, target)
	if err != nil {
		return err
	}

	recorded, ok, err := eng.RecordedVersion(ctx)
	if err != nil {
		return err
	}

	if !ok {
		def, err := e.catalog.Require(target)
		if err != nil {
			return err
		}
		if err := eng.Initialize(ctx, def); err != nil {
			return err
		}
		e.logger.Info().
			Str("store", eng.Path()).
			Str("version", target).
			Msg("Created fresh store")
		e.publish(Progress{Total: 0, Description: "created fresh store at " + target, Done: true})
		return nil
	}

	e.transition(&state, stateResolvingPath, eng)

	p, err := e.Prepare(ctx, eng, ch, target)
	if err != nil {
		return err
	}

	if p.Empty() {
		e.transition(&state, stateReady, eng)
		e.logger.Info().
			Str("store", eng.Path()).
			Str("version", recorded).
			Msg("Store already current, nothing to migrate")
		e.publish(Progress{Total: 0, Description: "store already at " + recorded, Done: true})
		return nil
	}

	e.transition(&state, stateMigrating, eng)
	return e.execute(ctx, eng, p, &state)
}

// Execute applies an already-prepared plan in strict order.
func (e *Executor) Execute(ctx context.Context, eng Engine, p plan.Plan) error {
	state := stateMigrating
	return e.execute(ctx, eng, p, &state)
}

func (e *Executor) execute(ctx context.Context, eng Engine, p plan.Plan, state *attemptState) error {
	total := len(p.Steps)

	e.logger.Info().
		Str("store", eng.Path()).
		Int("steps", total).
		Str("target", p.Target()).
		Msg("Executing migration plan")

	for i, step := range p.Steps {
		e.logger.Info().
			Str("store", eng.Path()).
			Str("step", step.String()).
			Msg("Applying migration step")

		if err := e.applyStep(ctx, eng, step); err != nil {
			serr := StepFailedError.Wrap(err, "migration step %s failed", step).
				WithProperty(plan.PropertySource, step.Source).
				WithProperty(plan.PropertyDestination, step.Destination)

			if e.resetOnMismatch {
				return e.resetAndRetry(ctx, eng, p, serr, state)
			}

			e.transition(state, stateFailed, eng)
			e.logger.Error().
				Err(serr).
				Str("store", eng.Path()).
				Str("step", step.String()).
				Msg("Migration step failed")
			e.publish(Progress{Completed: i, Total: total, Description: step.String(), Done: true, Err: serr})
			return serr
		}

		e.publish(Progress{Completed: i + 1, Total: total, Description: step.String()})
	}

	e.transition(state, stateReady, eng)
	e.logger.Info().
		Str("store", eng.Path()).
		Int("steps", total).
		Str("version", p.Target()).
		Msg("Migration plan completed")
	e.publish(Progress{Completed: total, Total: total, Description: "migrated to " + p.Target(), Done: true})
	return nil
}

func (e *Executor) applyStep(ctx context.Context, eng Engine, step plan.Step) error {
	switch step.Kind {
	case plan.KindNone:
		return nil

	case plan.KindLightweight:
		src, err := e.catalog.Require(step.Source)
		if err != nil {
			return err
		}
		dst, err := e.catalog.Require(step.Destination)
		if err != nil {
			return err
		}
		stmts, err := schema.Statements(src, dst)
		if err != nil {
			return err
		}
		return eng.ApplyDDL(ctx, step.Destination, stmts)

	case plan.KindCustom:
		fn, ok := e.transforms.Lookup(step.Source, step.Destination)
		if !ok {
			// Prepare validates this; hitting it here is a programming error.
			return plan.InferenceUnavailableError.New(
				"no transform registered for %s", step)
		}
		return eng.ApplyTransform(ctx, step.Destination, func(tx *sql.Tx) error {
			return fn(ctx, tx)
		})

	default:
		return errorx.IllegalState.New("unexpected step kind %q", step.Kind)
	}
}

func (e *Executor) resetAndRetry(ctx context.Context, eng Engine, p plan.Plan, cause error, state *attemptState) error {
	e.transition(state, stateResetAndRetry, eng)
	e.logger.Warn().
		Err(cause).
		Str("store", eng.Path()).
		Str("target", p.Target()).
		Msg("Migration step failed, resetting store at target version")

	def, err := e.catalog.Require(p.Target())
	if err != nil {
		return errorx.DecorateMany("reset after failed step", cause, err)
	}
	if err := eng.Reset(ctx, def); err != nil {
		return errorx.DecorateMany("reset after failed step", cause, err)
	}

	e.transition(state, stateReady, eng)
	e.publish(Progress{
		Completed:   len(p.Steps),
		Total:       len(p.Steps),
		Description: "store reset at " + p.Target(),
		Done:        true,
	})
	return nil
}
