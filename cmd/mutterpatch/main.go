// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/mutterpatch/cmd/mutterpatch/commands"
	"github.com/walteh/mutterpatch/cmd/mutterpatch/opts"
	"github.com/walteh/mutterpatch/pkg/log"
	"github.com/walteh/mutterpatch/pkg/plan"
)

func main() {
	ro := &opts.RootOpts{}

	rootCmd := &cobra.Command{
		Use:   "mutterpatch MUTTER_SOURCE_ROOT",
		Short: "Remove Wayland clipboard focus restrictions from mutter sources",
		Long: `mutterpatch applies exact, version-locked edits to a mutter source tree,
removing the focus checks that block clipboard and primary-selection access
from unfocused applications. X11 never had these restrictions; VMware and
VirtualBox guest integration and clipboard managers depend on their absence.

Every target file is validated against strict sentinels before it is
touched, backed up to a colocated .bak file, and rewritten in one atomic
whole-buffer write. A file that cannot be confidently recognized is left
byte-identical to how it started.

Clone and checkout the target version first:
  git clone https://gitlab.gnome.org/GNOME/mutter.git
  cd mutter && git checkout ` + plan.Mutter462Version,
		Args: cobra.ExactArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if ro.Debug {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)
			ro.Logger = log.New(os.Stdout, level)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatch(cmd.Context(), ro, args[0])
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addRootFlags(rootCmd, ro)
	rootCmd.AddCommand(
		commands.NewRestoreCmd(ro),
		commands.NewStatusCmd(ro),
		commands.NewVersionCmd(ro),
	)

	ctx := zerolog.New(os.Stderr).With().Timestamp().Logger().WithContext(context.Background())
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if ro.Logger != nil {
			ro.Logger.Errorf("%v", err)
		} else {
			fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		}
		os.Exit(1)
	}
}
