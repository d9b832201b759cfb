// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/spf13/cobra"

	"github.com/stratahq/strata/cmd/strata/commands/common"
	"github.com/stratahq/strata/internal/config"
	"github.com/stratahq/strata/internal/workflows"
)

var (
	flagPlanTarget         string
	flagPlanAllowDowngrade bool

	planCmd = &cobra.Command{
		Use:   "plan",
		Short: "Show the migration plan without applying it",
		Long:  "Resolve and classify the migration plan for the configured store without writing anything",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()

			cfg := config.Get()
			if flagPlanTarget != "" {
				cfg.Migration.Target = flagPlanTarget
			}
			if cmd.Flags().Changed("allow-downgrade") {
				cfg.Migration.AllowDowngrade = flagPlanAllowDowngrade
			}

			env := workflows.NewEnv(cfg)
			common.RunWorkflow(ctx, workflows.NewPlanWorkflow(env))

			if env.Fresh {
				cmd.Printf("Fresh store: will be created directly at %s\n", env.Plan.Target())
				return
			}
			if env.Plan.Empty() {
				cmd.Printf("Store is already at %s, nothing to do\n", env.Recorded)
				return
			}

			cmd.Printf("Migration plan for %s:\n", env.Config.Store.Path)
			for i, step := range env.Plan.Steps {
				cmd.Printf("  %d. %s\n", i+1, step)
			}
		},
	}
)

func init() {
	planCmd.Flags().StringVarP(&flagPlanTarget, "target", "t", "", "target schema version (defaults to the chain's leaf)")
	planCmd.Flags().BoolVar(&flagPlanAllowDowngrade, "allow-downgrade", false, "walk the reversed chain when the target precedes the recorded version")
}
