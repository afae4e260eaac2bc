package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const modulePath = "github.com/launchdeck/workbench"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the workbench version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "workbench v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
