// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/spf13/cobra"

	"github.com/stratahq/strata/cmd/strata/commands/common"
	"github.com/stratahq/strata/internal/config"
	"github.com/stratahq/strata/internal/workflows"
)

var (
	flagMigrateTarget          string
	flagMigrateResetOnMismatch bool
	flagMigrateAllowDowngrade  bool

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the store to the target schema version",
		Long:  "Walk the declared version chain and bring the configured store to the target schema version",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()

			cfg := config.Get()
			if flagMigrateTarget != "" {
				cfg.Migration.Target = flagMigrateTarget
			}
			if cmd.Flags().Changed("reset-on-mismatch") {
				cfg.Migration.ResetOnMismatch = flagMigrateResetOnMismatch
			}
			if cmd.Flags().Changed("allow-downgrade") {
				cfg.Migration.AllowDowngrade = flagMigrateAllowDowngrade
			}

			env := workflows.NewEnv(cfg)
			common.RunWorkflow(ctx, workflows.NewMigrateWorkflow(env))

			cmd.Printf("Store %s is at version %s\n", env.Config.Store.Path, env.Recorded)
		},
	}
)

func init() {
	migrateCmd.Flags().StringVarP(&flagMigrateTarget, "target", "t", "", "target schema version (defaults to the chain's leaf)")
	migrateCmd.Flags().BoolVar(&flagMigrateResetOnMismatch, "reset-on-mismatch", false, "rebuild the store at the target when a step fails (discards all data)")
	migrateCmd.Flags().BoolVar(&flagMigrateAllowDowngrade, "allow-downgrade", false, "walk the reversed chain when the target precedes the recorded version")
}
