package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/walteh/mutterpatch/cmd/mutterpatch/opts"
	"github.com/walteh/mutterpatch/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// NewStatusCmd creates a new status command
func NewStatusCmd(ro *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status MUTTER_SOURCE_ROOT",
		Short: "Inspect a tree without patching it",
		Long: `Status reports, without mutating anything:
1. Whether the root path looks like a mutter source tree
2. The detected upstream version
3. Each target file's state (patchable, already patched, drifted, missing)
4. Any .bak backup files under the tree that would block a run`,
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

			report, err := op.Status(ctx)
			if err != nil {
				return err
			}

			if report.DetectedVersion != "" {
				ro.Logger.Infof("detected version: %s", report.DetectedVersion)
			} else {
				ro.Logger.Warnf("could not detect the checked-out version")
			}

			for _, f := range report.Files {
				switch f.State {
				case operation.StatePatchable:
					ro.Logger.OKf("%s: %s", f.Path, f.State)
				case operation.StateAlreadyPatched:
					ro.Logger.Infof("%s: %s", f.Path, f.State)
				default:
					ro.Logger.Errorf("%s: %s (%s)", f.Path, f.State, f.Detail)
				}
				if f.HasBackup {
					ro.Logger.Warnf("%s has a backup; a patch run against it will refuse to overwrite it", f.Path)
				}
			}

			for _, b := range report.Backups {
				ro.Logger.Infof("backup on disk: %s", b)
			}
			return nil
		},
	}

	return cmd
}
