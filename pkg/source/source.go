// Package source recognizes a mutter source tree and detects which
// upstream version is checked out.
package source

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ErrUnrecognizedTree means the root path is not a mutter source tree
var ErrUnrecognizedTree = errors.Base("not a recognizable mutter source tree")

var mesonVersionRe = regexp.MustCompile(`version\s*:\s*'(\d+\.\d+)`)

// Recognize verifies the root path carries the top-level markers of a
// mutter checkout: a meson.build declaring the mutter project, and the
// src/wayland directory the patch targets live under. It runs before any
// target file is read, so an operator pointing at the wrong directory gets
// one clear error and zero mutation.
func Recognize(ctx context.Context, root string) error {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return errors.Errorf("%s: %w", root, ErrUnrecognizedTree)
	}

	meson, err := os.ReadFile(filepath.Join(root, "meson.build"))
	if err != nil {
		return errors.Errorf("%s: missing meson.build: %w", root, ErrUnrecognizedTree)
	}
	if !strings.Contains(string(meson), "project('mutter'") {
		return errors.Errorf("%s: meson.build does not declare project mutter: %w", root, ErrUnrecognizedTree)
	}

	wayland, err := os.Stat(filepath.Join(root, "src", "wayland"))
	if err != nil || !wayland.IsDir() {
		return errors.Errorf("%s: missing src/wayland: %w", root, ErrUnrecognizedTree)
	}

	return nil
}

// DetectVersion tries to identify the checked-out version: first an exact
// git tag, then the meson.build version field. Returns "" when neither
// works; detection is advisory, the sentinels are the real version gate.
func DetectVersion(ctx context.Context, root string) string {
	if v := gitExactTag(ctx, root); v != "" {
		return v
	}

	meson, err := os.ReadFile(filepath.Join(root, "meson.build"))
	if err != nil {
		return ""
	}
	if m := mesonVersionRe.FindSubmatch(meson); m != nil {
		return string(m[1])
	}
	return ""
}

func gitExactTag(ctx context.Context, root string) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "describe", "--tags", "--exact-match")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("git describe failed, falling back to meson.build")
		return ""
	}
	return strings.TrimSpace(string(out))
}
