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

package operation

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/mutterpatch/pkg/backup"
	"github.com/walteh/mutterpatch/pkg/diff"
	"github.com/walteh/mutterpatch/pkg/patch"
	"github.com/walteh/mutterpatch/pkg/plan"
	"github.com/walteh/mutterpatch/pkg/sentinel"
	"github.com/walteh/mutterpatch/pkg/source"
	"gitlab.com/tozd/go/errors"
)

// 🏃 Run patches every target file in the plan, each one independently:
// a failure on one file never rolls back files already patched earlier in
// the run. The returned error covers run-level problems (unrecognized
// tree); per-file failures live in the RunResult.
func (o *Operator) Run(ctx context.Context) (*RunResult, error) {
	logger := zerolog.Ctx(ctx)

	if err := source.Recognize(ctx, o.root); err != nil {
		return nil, errors.Errorf("checking root path: %w", err)
	}
	o.logger.OKf("source tree markers found at %s", o.root)

	if detected := source.DetectVersion(ctx, o.root); detected != "" {
		o.logger.Infof("detected version: %s", detected)
		if detected != o.plan.Version {
			o.logger.Warnf("this patcher targets mutter %s, but detected %s; sentinels may fail if the layout differs",
				o.plan.Version, detected)
		}
	}

	result := &RunResult{Version: o.plan.Version}
	for i := range o.plan.Files {
		fr := o.runFile(ctx, &o.plan.Files[i])
		result.Files = append(result.Files, fr)
		logger.Debug().
			Str("file", fr.Path).
			Str("phase", string(fr.Phase)).
			Int("rules", fr.RulesApplied).
			Msg("target file finished")
	}
	return result, nil
}

// runFile walks one file through VALIDATING → BACKING_UP → PATCHING →
// REPORTING. The file is never modified on disk unless its backup already
// exists, and a write failure after backup restores the original bytes
// before reporting FAILED.
func (o *Operator) runFile(ctx context.Context, target *plan.TargetFile) FileResult {
	fr := FileResult{Path: target.Path, Phase: PhaseInit}
	path := filepath.Join(o.root, filepath.FromSlash(target.Path))

	fail := func(in Phase, err error) FileResult {
		fr.Phase = PhaseFailed
		fr.FailedIn = in
		fr.Err = err
		o.logger.Errorf("%s: %v", target.Path, err)
		return fr
	}

	// VALIDATING
	fr.Phase = PhaseValidating
	o.logger.Infof("validating %s", target.Path)
	info, err := os.Stat(path)
	if err != nil {
		return fail(PhaseValidating, errors.Errorf("missing required file: %w", err))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fail(PhaseValidating, errors.Errorf("reading %s: %w", path, err))
	}
	if vf := sentinel.Check(ctx, target, o.plan.Marker, content); vf != nil {
		return fail(PhaseValidating, vf)
	}
	o.logger.OKf("%s matches the mutter %s layout", target.Path, o.plan.Version)

	// BACKING_UP
	fr.Phase = PhaseBackingUp
	rec, err := backup.Create(ctx, path)
	if err != nil {
		return fail(PhaseBackingUp, err)
	}
	o.logger.OKf("backup: %s", rec.BackupPath)

	// PATCHING
	fr.Phase = PhasePatching
	applied, err := patch.Apply(ctx, content, target.Rules)
	if err != nil {
		return fail(PhasePatching, err)
	}
	if err := o.writeFile(path, applied.PatchedContent, info.Mode().Perm()); err != nil {
		o.restoreAfterWriteFailure(ctx, path)
		return fail(PhasePatching, errors.Errorf("writing %s: %v: %w", path, err, ErrPatchWriteFailure))
	}
	written, err := os.ReadFile(path)
	if err == nil {
		err = sentinel.CheckPatched(ctx, target, written)
	}
	if err != nil {
		o.restoreAfterWriteFailure(ctx, path)
		return fail(PhasePatching, errors.Errorf("verifying written content: %v: %w", err, ErrPatchWriteFailure))
	}
	fr.RulesApplied = applied.RulesApplied
	o.logger.OKf("patched %s (%d rules)", target.Path, applied.RulesApplied)

	// REPORTING
	fr.Phase = PhaseReporting
	if _, err := diff.Preview(o.logger.Console(), filepath.Base(target.Path),
		string(applied.OriginalContent), string(applied.PatchedContent)); err != nil {
		// the diff is observational only, never a reason to fail the file
		zerolog.Ctx(ctx).Warn().Err(err).Str("file", target.Path).Msg("diff preview failed")
	}

	fr.Phase = PhaseDone
	return fr
}

// restoreAfterWriteFailure puts the original bytes back, best effort. The
// backup was written before any patching, so the file ends the run
// byte-identical to how it started.
func (o *Operator) restoreAfterWriteFailure(ctx context.Context, path string) {
	if err := backup.Restore(ctx, path); err != nil {
		o.logger.Errorf("restore after failed write also failed, backup is at %s: %v",
			backup.PathFor(path), err)
	} else {
		o.logger.Infof("restored %s from backup after failed write", path)
	}
}
