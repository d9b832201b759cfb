// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/spf13/cobra"

	"github.com/stratahq/strata/cmd/strata/commands/common"
	"github.com/stratahq/strata/internal/config"
	"github.com/stratahq/strata/internal/workflows"
)

var (
	flagResetTarget string

	resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Rebuild the store at the target version, discarding all data",
		Long:  "Delete the store file and re-create it directly at the target schema version. All data is lost.",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()

			cfg := config.Get()
			if flagResetTarget != "" {
				cfg.Migration.Target = flagResetTarget
			}

			env := workflows.NewEnv(cfg)
			common.RunWorkflow(ctx, workflows.NewResetWorkflow(env))

			cmd.Printf("Store %s was rebuilt at version %s\n", env.Config.Store.Path, env.Recorded)
		},
	}
)

func init() {
	resetCmd.Flags().StringVarP(&flagResetTarget, "target", "t", "", "target schema version (defaults to the chain's leaf)")
}
