// Package diff renders before/after comparisons for operator review. The
// diff is purely observational: patching success never depends on it.
package diff

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
	"gitlab.com/tozd/go/errors"
)

// MaxPreviewLines caps the preview; full diffs of big rewrites are noise.
const MaxPreviewLines = 100

// Unified returns a line-oriented unified diff between two versions of a
// file. An empty string means no changes.
func Unified(label, before, after string) (string, error) {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: label + " (before)",
		ToFile:   label + " (after)",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", errors.Errorf("rendering unified diff: %w", err)
	}
	return text, nil
}

// Preview writes a colorized, truncated unified diff to w. Returns whether
// anything changed at all.
func Preview(w io.Writer, label, before, after string) (bool, error) {
	text, err := Unified(label, before, after)
	if err != nil {
		return false, err
	}
	if text == "" {
		return false, nil
	}

	fmt.Fprintf(w, "\n[DIFF] %s:\n", label)
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		if i >= MaxPreviewLines {
			fmt.Fprintln(w, "  ... (diff truncated)")
			break
		}
		fmt.Fprintln(w, colorize(line))
	}
	return true, nil
}

func colorize(line string) string {
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return color.New(color.Bold).Sprint(line)
	case strings.HasPrefix(line, "@@"):
		return color.New(color.FgCyan).Sprint(line)
	case strings.HasPrefix(line, "+"):
		return color.New(color.FgGreen).Sprint(line)
	case strings.HasPrefix(line, "-"):
		return color.New(color.FgRed).Sprint(line)
	default:
		return line
	}
}
