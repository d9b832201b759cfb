// SPDX-License-Identifier: Apache-2.0

package workflows

import "github.com/automa-saga/automa"

// NewStatusWorkflow reports the store's recorded version against the catalog.
func NewStatusWorkflow(env *Env) *automa.WorkflowBuilder {
	return automa.NewWorkflowBuilder().WithId("store-status").Steps(
		LoadCatalog(env),
		ValidateChain(env),
		InspectStore(env),
	)
}

// NewPlanWorkflow resolves the migration plan without writing anything.
func NewPlanWorkflow(env *Env) *automa.WorkflowBuilder {
	return automa.NewWorkflowBuilder().WithId("plan-migration").Steps(
		LoadCatalog(env),
		ValidateChain(env),
		PlanMigration(env),
	)
}

// NewMigrateWorkflow runs a full migration attempt against the store.
func NewMigrateWorkflow(env *Env) *automa.WorkflowBuilder {
	return automa.NewWorkflowBuilder().WithId("migrate-store").Steps(
		LoadCatalog(env),
		ValidateChain(env),
		MigrateStore(env),
	)
}

// NewResetWorkflow rebuilds the store at the target version, discarding data.
func NewResetWorkflow(env *Env) *automa.WorkflowBuilder {
	return automa.NewWorkflowBuilder().WithId("reset-store").Steps(
		LoadCatalog(env),
		ResetStore(env),
	)
}
