package operation

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/mutterpatch/pkg/backup"
	"github.com/walteh/mutterpatch/pkg/sentinel"
	"github.com/walteh/mutterpatch/pkg/source"
	"gitlab.com/tozd/go/errors"
)

// 🔍 FileState classifies one target file without touching it.
type FileState string

const (
	// StatePatchable means every anchor matches exactly once
	StatePatchable FileState = "patchable"
	// StateAlreadyPatched means the marker tag is present
	StateAlreadyPatched FileState = "already patched"
	// StateDrifted means anchors are missing or ambiguous
	StateDrifted FileState = "drifted"
	// StateMissing means the file does not exist
	StateMissing FileState = "missing"
)

// 📦 FileStatus is the read-only state of one target file.
type FileStatus struct {
	Path      string
	State     FileState
	HasBackup bool
	Detail    string
}

// 📦 StatusReport is the read-only state of the whole tree.
type StatusReport struct {
	DetectedVersion string
	Files           []FileStatus
	// Backups are all *.bak files under the tree, not just ours; stale
	// backups are what block a re-run
	Backups []string
}

// 🔍 Status inspects the tree without mutating anything: tree markers,
// detected version, per-target validation state, and every backup file
// lying around under the root.
func (o *Operator) Status(ctx context.Context) (*StatusReport, error) {
	if err := source.Recognize(ctx, o.root); err != nil {
		return nil, errors.Errorf("checking root path: %w", err)
	}

	report := &StatusReport{
		DetectedVersion: source.DetectVersion(ctx, o.root),
	}

	for i := range o.plan.Files {
		target := &o.plan.Files[i]
		path := filepath.Join(o.root, filepath.FromSlash(target.Path))
		fs := FileStatus{Path: target.Path}

		fs.HasBackup = backup.Exists(path)

		content, err := os.ReadFile(path)
		switch {
		case err != nil:
			fs.State = StateMissing
			fs.Detail = err.Error()
		default:
			if vf := sentinel.Check(ctx, target, o.plan.Marker, content); vf != nil {
				if vf.AlreadyPatched {
					fs.State = StateAlreadyPatched
				} else {
					fs.State = StateDrifted
				}
				fs.Detail = vf.Error()
			} else {
				fs.State = StatePatchable
			}
		}
		report.Files = append(report.Files, fs)
	}

	baks, err := doublestar.Glob(os.DirFS(o.root), "**/*.bak")
	if err != nil {
		return nil, errors.Errorf("scanning for backups: %w", err)
	}
	sort.Strings(baks)
	report.Backups = baks

	return report, nil
}
