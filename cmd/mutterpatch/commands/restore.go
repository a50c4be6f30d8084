package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/walteh/mutterpatch/cmd/mutterpatch/opts"
	"gitlab.com/tozd/go/errors"
)

// NewRestoreCmd creates a new restore command
func NewRestoreCmd(ro *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore MUTTER_SOURCE_ROOT",
		Short: "Roll back patched files from their backups",
		Long: `Restore copies each target file's .bak backup back over the file.
Backups are left in place afterwards, so a restored tree can be re-patched
only after the operator removes them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			absRoot, err := filepath.Abs(args[0])
			if err != nil {
				return errors.Errorf("resolving root path: %w", err)
			}
			op, err := ro.NewOperator(ctx, absRoot)
			if err != nil {
				return err
			}
			return op.RestoreAll(ctx)
		},
	}

	return cmd
}
