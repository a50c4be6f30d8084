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

// Package operation drives the patch run: validate, back up, apply and
// report for each target file, with per-file isolation.
package operation

import (
	"os"

	"github.com/walteh/mutterpatch/pkg/log"
	"github.com/walteh/mutterpatch/pkg/plan"
	"gitlab.com/tozd/go/errors"
)

// ErrPatchWriteFailure means the disk write failed after a valid buffer
// was computed; the file is restored from its backup before surfacing it.
var ErrPatchWriteFailure = errors.Base("patch write failure")

// 🚦 Phase is a state of the per-file state machine.
type Phase string

const (
	PhaseInit       Phase = "INIT"
	PhaseValidating Phase = "VALIDATING"
	PhaseBackingUp  Phase = "BACKING_UP"
	PhasePatching   Phase = "PATCHING"
	PhaseReporting  Phase = "REPORTING"
	PhaseDone       Phase = "DONE"
	PhaseFailed     Phase = "FAILED"
)

// 📦 FileResult is the outcome for one target file.
type FileResult struct {
	// Path is the target's path relative to the tree root
	Path string
	// RulesApplied is the number of edits folded into the new content
	RulesApplied int
	// Phase is the terminal phase, PhaseDone or PhaseFailed
	Phase Phase
	// FailedIn is the phase the failure occurred in, if any
	FailedIn Phase
	// Err is the failure detail, if any
	Err error
}

// 📦 RunResult aggregates the whole run.
type RunResult struct {
	Version string
	Files   []FileResult
}

// OK reports whether every target file reached DONE.
func (r *RunResult) OK() bool {
	for _, f := range r.Files {
		if f.Phase != PhaseDone {
			return false
		}
	}
	return len(r.Files) > 0
}

// 🔧 Options contains configuration for the operator.
type Options struct {
	// Root is the source tree being patched
	Root string
	// Plan is the version-locked patch table to apply
	Plan *plan.Plan
	// Logger prints the operator-facing milestone lines
	Logger *log.Logger
	// WriteFile commits a fully computed buffer to disk. Defaults to
	// os.WriteFile; overridable so the restore-on-write-failure path is
	// testable.
	WriteFile func(path string, data []byte, perm os.FileMode) error
}

// 🎮 Operator runs the state machine over the plan's target files.
type Operator struct {
	root      string
	plan      *plan.Plan
	logger    *log.Logger
	writeFile func(path string, data []byte, perm os.FileMode) error
}

// 🏭 New creates a new operator with the given options.
func New(opts Options) (*Operator, error) {
	if opts.Root == "" {
		return nil, errors.New("root path is required")
	}
	if opts.Plan == nil {
		return nil, errors.New("patch plan is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	writeFile := opts.WriteFile
	if writeFile == nil {
		writeFile = os.WriteFile
	}
	return &Operator{
		root:      opts.Root,
		plan:      opts.Plan,
		logger:    opts.Logger,
		writeFile: writeFile,
	}, nil
}
