package operation

import (
	"context"
	"path/filepath"

	"github.com/walteh/mutterpatch/pkg/backup"
	"gitlab.com/tozd/go/errors"
)

// 🔄 RestoreAll is the operator-invoked rollback: every target file that
// has a backup gets its pre-patch bytes copied back. Files without a
// backup were never touched and are reported, not failed.
func (o *Operator) RestoreAll(ctx context.Context) error {
	restored := 0
	for _, target := range o.plan.Files {
		path := filepath.Join(o.root, filepath.FromSlash(target.Path))
		if !backup.Exists(path) {
			o.logger.Infof("no backup for %s, nothing to restore", target.Path)
			continue
		}
		if err := backup.Restore(ctx, path); err != nil {
			return errors.Errorf("restoring %s: %w", target.Path, err)
		}
		o.logger.OKf("restored %s from %s", target.Path, backup.PathFor(path))
		restored++
	}
	if restored == 0 {
		o.logger.Warnf("no backups found under %s", o.root)
	}
	return nil
}
