package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/walteh/mutterpatch/cmd/mutterpatch/opts"
	"github.com/walteh/mutterpatch/pkg/plan"
)

// Version is set at build time via -ldflags
var Version = "dev"

// NewVersionCmd creates a new version command
func NewVersionCmd(ro *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print tool and target upstream versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "mutterpatch %s (built-in plan targets mutter %s)\n",
				Version, plan.Mutter462Version)
			return nil
		},
	}
}
