// Package backup manages the pre-patch copies of target files. The backup
// is the only durable record that a run touched a file, and the only
// rollback mechanism, so an existing backup is never overwritten.
package backup

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Suffix is the fixed backup naming convention, colocated with the target.
const Suffix = ".bak"

var (
	// ErrBackupExists means a prior run's backup is still in place
	ErrBackupExists = errors.Base("backup already exists")
	// ErrNoBackup means there is no backup to restore from
	ErrNoBackup = errors.Base("no backup to restore from")
)

// Record is returned only once a backup has been written. Its existence on
// disk blocks further runs against the file until an operator removes it.
type Record struct {
	Path       string
	BackupPath string
}

// PathFor returns the canonical backup path for a file.
func PathFor(path string) string {
	return path + Suffix
}

// Exists reports whether a backup is already in place for a file.
func Exists(path string) bool {
	_, err := os.Stat(PathFor(path))
	return err == nil
}

// Create copies the file's bytes and permission bits to the backup path.
// It refuses with ErrBackupExists rather than overwrite a prior backup:
// the prior backup may be the only pristine copy left.
func Create(ctx context.Context, path string) (*Record, error) {
	bak := PathFor(path)

	if _, err := os.Stat(bak); err == nil {
		return nil, errors.Errorf("%s: %w (move or remove it and re-run)", bak, ErrBackupExists)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Errorf("stating %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", path, err)
	}
	if err := os.WriteFile(bak, data, info.Mode().Perm()); err != nil {
		return nil, errors.Errorf("writing backup %s: %w", bak, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("path", path).
		Str("backup", bak).
		Int("bytes", len(data)).
		Msg("backup created")

	return &Record{Path: path, BackupPath: bak}, nil
}

// Restore copies the backup's bytes back over the original. Used by the
// run controller's failure path and by operator-invoked rollback. The
// backup itself is left in place.
func Restore(ctx context.Context, path string) error {
	bak := PathFor(path)

	info, err := os.Stat(bak)
	if err != nil {
		return errors.Errorf("%s: %w", bak, ErrNoBackup)
	}
	data, err := os.ReadFile(bak)
	if err != nil {
		return errors.Errorf("reading backup %s: %w", bak, err)
	}
	if err := os.WriteFile(path, data, info.Mode().Perm()); err != nil {
		return errors.Errorf("restoring %s: %w", path, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("path", path).
		Str("backup", bak).
		Msg("restored from backup")

	return nil
}
