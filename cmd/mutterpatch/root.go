package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/walteh/mutterpatch/cmd/mutterpatch/opts"
	"github.com/walteh/mutterpatch/pkg/operation"
	"github.com/walteh/mutterpatch/pkg/plan"
	"gitlab.com/tozd/go/errors"
)

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, ro *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&ro.PlanFile, "plan", "p", "", "additional patch plan file (.hcl or .yaml)")
	cmd.PersistentFlags().StringVar(&ro.TargetVersion, "target-version", plan.Mutter462Version, "upstream version to patch")
	cmd.PersistentFlags().BoolVarP(&ro.Debug, "debug", "d", false, "enable debug logging")
}

// runPatch is the root command: validate, back up, patch and report every
// target file, then summarize. Exit is non-zero unless every file is done.
func runPatch(ctx context.Context, ro *opts.RootOpts, root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return errors.Errorf("resolving root path: %w", err)
	}

	op, err := ro.NewOperator(ctx, absRoot)
	if err != nil {
		return err
	}

	result, err := op.Run(ctx)
	if err != nil {
		ro.Logger.Validation(false, "patch run aborted", err)
		return err
	}

	ro.Logger.Newline()
	if !result.OK() {
		failed := 0
		for _, f := range result.Files {
			if f.Phase != operation.PhaseDone {
				failed++
			}
		}
		err := errors.Errorf("%d of %d target files failed", failed, len(result.Files))
		ro.Logger.Validation(false, "patching incomplete", err)
		return err
	}

	ro.Logger.Validation(true, "all target files patched", nil)
	ro.Logger.Summary("patching complete", summaryLines(result))
	ro.Logger.Infof("next: meson setup build --prefix=/usr --buildtype=release && ninja -C build")
	ro.Logger.Infof("then: sudo ninja -C build install, restart GNOME Shell, and apt-mark hold mutter")
	ro.Logger.Infof("to revert: mutterpatch restore %s", root)
	return nil
}

func summaryLines(result *operation.RunResult) []string {
	lines := make([]string, 0, len(result.Files))
	for _, f := range result.Files {
		lines = append(lines, fmt.Sprintf("%s: %d rules applied", f.Path, f.RulesApplied))
	}
	return lines
}
