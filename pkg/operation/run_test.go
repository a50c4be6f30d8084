package operation

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/mutterpatch/pkg/backup"
	"github.com/walteh/mutterpatch/pkg/log"
	"github.com/walteh/mutterpatch/pkg/plan"
	"gitlab.com/tozd/go/errors"
)

const testMarker = "TEST_PATCH_TAG"

const testContent = `/* demo compositor source */
static void owner_changed_cb (void);

FOCUS_CHECK_A

middle section stays put

NOTIFY_BLOCK

end of file
`

func testPlan() *plan.Plan {
	return &plan.Plan{
		Version: "46.2",
		Marker:  testMarker,
		Files: []plan.TargetFile{
			{
				Path:      "src/wayland/demo.c",
				Sentinels: []string{"owner_changed_cb"},
				Rules: []plan.PatchRule{
					{Label: "focus check", Anchor: "FOCUS_CHECK_A", Replace: "/* " + testMarker + ": check removed */"},
					{Label: "notify all", Anchor: "NOTIFY_BLOCK", Replace: "/* " + testMarker + ": notify everyone */"},
				},
			},
		},
	}
}

// setupTree writes a recognizable mutter-shaped tree with the demo target.
func setupTree(t *testing.T, content string) string {
	t.Helper()
	root := t.TempDir()
	meson := "project('mutter', 'c',\n  version: '46.2',\n)\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "meson.build"), []byte(meson), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "wayland"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "wayland", "demo.c"), []byte(content), 0644))
	return root
}

func testOperator(t *testing.T, root string, p *plan.Plan, write func(string, []byte, os.FileMode) error) *Operator {
	t.Helper()
	op, err := New(Options{
		Root:      root,
		Plan:      p,
		Logger:    log.New(io.Discard, zerolog.Disabled),
		WriteFile: write,
	})
	require.NoError(t, err)
	return op
}

func readTarget(t *testing.T, root string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, "src", "wayland", "demo.c"))
	require.NoError(t, err)
	return string(data)
}

func TestNew(t *testing.T) {
	logger := log.New(io.Discard, zerolog.Disabled)

	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{
			name:    "missing_root",
			opts:    Options{Plan: testPlan(), Logger: logger},
			wantErr: "root path is required",
		},
		{
			name:    "missing_plan",
			opts:    Options{Root: "/tmp/x", Logger: logger},
			wantErr: "patch plan is required",
		},
		{
			name:    "missing_logger",
			opts:    Options{Root: "/tmp/x", Plan: testPlan()},
			wantErr: "logger is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRun_Success(t *testing.T) {
	ctx := context.Background()
	root := setupTree(t, testContent)
	op := testOperator(t, root, testPlan(), nil)

	result, err := op.Run(ctx)
	require.NoError(t, err)
	require.True(t, result.OK())
	require.Len(t, result.Files, 1)
	assert.Equal(t, PhaseDone, result.Files[0].Phase)
	assert.Equal(t, 2, result.Files[0].RulesApplied)
	assert.NoError(t, result.Files[0].Err)

	// The backup holds the exact pre-patch bytes
	bak, err := os.ReadFile(filepath.Join(root, "src", "wayland", "demo.c.bak"))
	require.NoError(t, err)
	assert.Equal(t, testContent, string(bak))

	// The file is fully new: both replacements in, both anchors out
	patched := readTarget(t, root)
	assert.Contains(t, patched, testMarker+": check removed")
	assert.Contains(t, patched, testMarker+": notify everyone")
	assert.NotContains(t, patched, "FOCUS_CHECK_A")
	assert.NotContains(t, patched, "NOTIFY_BLOCK")
	assert.Contains(t, patched, "middle section stays put", "untouched bytes stay put")
}

func TestRun_UnrecognizedRoot(t *testing.T) {
	op := testOperator(t, t.TempDir(), testPlan(), nil)

	_, err := op.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checking root path")
}

func TestRun_ValidationFailureLeavesFileUntouched(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "anchor_missing",
			content: "static void owner_changed_cb (void);\nNOTIFY_BLOCK\n",
		},
		{
			name:    "anchor_duplicated",
			content: "owner_changed_cb\nFOCUS_CHECK_A\nFOCUS_CHECK_A\nNOTIFY_BLOCK\n",
		},
		{
			name:    "sentinel_missing",
			content: "FOCUS_CHECK_A\nNOTIFY_BLOCK\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			root := setupTree(t, tt.content)
			op := testOperator(t, root, testPlan(), nil)

			result, err := op.Run(ctx)
			require.NoError(t, err)
			require.False(t, result.OK())
			assert.Equal(t, PhaseFailed, result.Files[0].Phase)
			assert.Equal(t, PhaseValidating, result.Files[0].FailedIn)

			// Byte-for-byte untouched, and no backup was created
			assert.Equal(t, tt.content, readTarget(t, root))
			assert.NoFileExists(t, filepath.Join(root, "src", "wayland", "demo.c.bak"))
		})
	}
}

func TestRun_MissingTargetFile(t *testing.T) {
	ctx := context.Background()
	root := setupTree(t, testContent)
	require.NoError(t, os.Remove(filepath.Join(root, "src", "wayland", "demo.c")))

	op := testOperator(t, root, testPlan(), nil)
	result, err := op.Run(ctx)
	require.NoError(t, err)
	require.False(t, result.OK())
	assert.Equal(t, PhaseValidating, result.Files[0].FailedIn)
	assert.Contains(t, result.Files[0].Err.Error(), "missing required file")
}

func TestRun_AlreadyPatchedTreeFailsValidation(t *testing.T) {
	ctx := context.Background()
	root := setupTree(t, testContent)

	op := testOperator(t, root, testPlan(), nil)
	first, err := op.Run(ctx)
	require.NoError(t, err)
	require.True(t, first.OK())
	patchedOnce := readTarget(t, root)

	// Re-running against the patched tree fails validation every time,
	// performing no further mutation
	for i := 0; i < 2; i++ {
		again, err := testOperator(t, root, testPlan(), nil).Run(ctx)
		require.NoError(t, err)
		require.False(t, again.OK())
		assert.Equal(t, PhaseValidating, again.Files[0].FailedIn)
		assert.Contains(t, again.Files[0].Err.Error(), "already patched")
		assert.Equal(t, patchedOnce, readTarget(t, root))
	}
}

func TestRun_BackupExistsFailsThatFile(t *testing.T) {
	ctx := context.Background()
	root := setupTree(t, testContent)
	target := filepath.Join(root, "src", "wayland", "demo.c")

	op := testOperator(t, root, testPlan(), nil)
	first, err := op.Run(ctx)
	require.NoError(t, err)
	require.True(t, first.OK())
	patchedOnce := readTarget(t, root)

	// Operator puts the original bytes back but leaves the backup: the
	// stale backup must block the next run before any write is attempted
	require.NoError(t, backup.Restore(ctx, target))

	again, err := testOperator(t, root, testPlan(), nil).Run(ctx)
	require.NoError(t, err)
	require.False(t, again.OK())
	assert.Equal(t, PhaseBackingUp, again.Files[0].FailedIn)
	assert.ErrorIs(t, again.Files[0].Err, backup.ErrBackupExists)
	assert.Equal(t, testContent, readTarget(t, root))

	// Removing the backup unblocks re-patching, reproducing byte-identical
	// output to the first patch
	require.NoError(t, os.Remove(target+".bak"))
	third, err := testOperator(t, root, testPlan(), nil).Run(ctx)
	require.NoError(t, err)
	require.True(t, third.OK())
	assert.Equal(t, patchedOnce, readTarget(t, root))
}

func TestRun_WriteFailureRestoresOriginal(t *testing.T) {
	ctx := context.Background()
	root := setupTree(t, testContent)

	failWrite := func(path string, data []byte, perm os.FileMode) error {
		return errors.New("disk full")
	}
	op := testOperator(t, root, testPlan(), failWrite)

	result, err := op.Run(ctx)
	require.NoError(t, err)
	require.False(t, result.OK())
	assert.Equal(t, PhasePatching, result.Files[0].FailedIn)
	assert.ErrorIs(t, result.Files[0].Err, ErrPatchWriteFailure)

	// The file ends the run byte-identical to how it started
	assert.Equal(t, testContent, readTarget(t, root))
	assert.FileExists(t, filepath.Join(root, "src", "wayland", "demo.c.bak"))
}

func TestRun_PerFileIsolation(t *testing.T) {
	ctx := context.Background()
	root := setupTree(t, testContent)

	// Second target exists but has drifted: no anchors
	other := filepath.Join(root, "src", "wayland", "other.c")
	require.NoError(t, os.WriteFile(other, []byte("nothing that matches\n"), 0644))

	p := testPlan()
	p.Files = append(p.Files, plan.TargetFile{
		Path: "src/wayland/other.c",
		Rules: []plan.PatchRule{
			{Label: "focus check", Anchor: "FOCUS_CHECK_A", Replace: "x"},
		},
	})

	op := testOperator(t, root, p, nil)
	result, err := op.Run(ctx)
	require.NoError(t, err)
	require.Len(t, result.Files, 2)
	require.False(t, result.OK())

	// The good file stays patched despite the later failure
	assert.Equal(t, PhaseDone, result.Files[0].Phase)
	assert.Contains(t, readTarget(t, root), testMarker)

	// The drifted file is untouched
	assert.Equal(t, PhaseFailed, result.Files[1].Phase)
	data, err := os.ReadFile(other)
	require.NoError(t, err)
	assert.Equal(t, "nothing that matches\n", string(data))
}

func TestRestoreAll(t *testing.T) {
	ctx := context.Background()

	t.Run("restores_patched_files", func(t *testing.T) {
		root := setupTree(t, testContent)
		op := testOperator(t, root, testPlan(), nil)

		result, err := op.Run(ctx)
		require.NoError(t, err)
		require.True(t, result.OK())

		require.NoError(t, op.RestoreAll(ctx))
		assert.Equal(t, testContent, readTarget(t, root))
	})

	t.Run("nothing_to_restore", func(t *testing.T) {
		root := setupTree(t, testContent)
		op := testOperator(t, root, testPlan(), nil)
		require.NoError(t, op.RestoreAll(ctx))
		assert.Equal(t, testContent, readTarget(t, root))
	})
}

func TestStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("patchable_tree", func(t *testing.T) {
		root := setupTree(t, testContent)
		op := testOperator(t, root, testPlan(), nil)

		report, err := op.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, "46.2", report.DetectedVersion)
		require.Len(t, report.Files, 1)
		assert.Equal(t, StatePatchable, report.Files[0].State)
		assert.False(t, report.Files[0].HasBackup)
		assert.Empty(t, report.Backups)

		// Status never mutates
		assert.Equal(t, testContent, readTarget(t, root))
	})

	t.Run("after_patch_run", func(t *testing.T) {
		root := setupTree(t, testContent)
		op := testOperator(t, root, testPlan(), nil)
		result, err := op.Run(ctx)
		require.NoError(t, err)
		require.True(t, result.OK())

		report, err := op.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, StateAlreadyPatched, report.Files[0].State)
		assert.True(t, report.Files[0].HasBackup)
		assert.Equal(t, []string{"src/wayland/demo.c.bak"}, report.Backups)
	})

	t.Run("drifted_file", func(t *testing.T) {
		root := setupTree(t, "owner_changed_cb but no anchors\n")
		op := testOperator(t, root, testPlan(), nil)

		report, err := op.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, StateDrifted, report.Files[0].State)
		assert.Contains(t, report.Files[0].Detail, "anchor not found")
	})

	t.Run("missing_file", func(t *testing.T) {
		root := setupTree(t, testContent)
		require.NoError(t, os.Remove(filepath.Join(root, "src", "wayland", "demo.c")))
		op := testOperator(t, root, testPlan(), nil)

		report, err := op.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, StateMissing, report.Files[0].State)
	})
}
