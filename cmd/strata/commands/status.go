// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/stratahq/strata/cmd/strata/commands/common"
	"github.com/stratahq/strata/internal/config"
	"github.com/stratahq/strata/internal/workflows"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the store's recorded schema version",
	Long:  "Show the store's recorded schema version and the declared catalog versions",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		env := workflows.NewEnv(config.Get())
		common.RunWorkflow(ctx, workflows.NewStatusWorkflow(env))

		cmd.Printf("Store:    %s\n", env.Config.Store.Path)
		cmd.Printf("Catalog:  %s\n", strings.Join(env.Catalog.Versions(), ", "))
		if env.Fresh {
			cmd.Println("Version:  (fresh store, never initialized)")
			return
		}
		cmd.Printf("Version:  %s\n", env.Recorded)
	},
}
