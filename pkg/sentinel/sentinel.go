// Package sentinel verifies that a file's content matches the upstream
// version a patch plan was written against. The anchors themselves are the
// version check: every rule anchor must occur exactly once, byte for byte.
package sentinel

import (
	"context"
	"fmt"
	"strings"

	"github.com/walteh/mutterpatch/pkg/plan"
)

// Failure describes everything wrong with one file's content. All anchors
// and sentinels are checked before reporting, so the operator sees the full
// drift in one pass rather than one anchor at a time.
type Failure struct {
	Path             string
	AlreadyPatched   bool
	MissingAnchors   []string // rule labels with zero occurrences
	AmbiguousAnchors []string // rule labels with more than one occurrence
	MissingSentinels []string
}

func (f *Failure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s does not match the expected upstream layout", f.Path)
	if f.AlreadyPatched {
		b.WriteString(" (already patched: marker tag present)")
	}
	for _, l := range f.MissingAnchors {
		fmt.Fprintf(&b, "; anchor not found: %s", l)
	}
	for _, l := range f.AmbiguousAnchors {
		fmt.Fprintf(&b, "; anchor is ambiguous: %s", l)
	}
	for _, s := range f.MissingSentinels {
		fmt.Fprintf(&b, "; sentinel not found: %s", excerpt(s))
	}
	return b.String()
}

// Check validates content against the target's rules and sentinels. It
// performs no mutation and returns nil when the file is patchable. A
// non-empty marker is probed first so an already-patched file reports that
// instead of a bare missing-anchor list.
func Check(ctx context.Context, target *plan.TargetFile, marker string, content []byte) *Failure {
	text := string(content)
	f := &Failure{Path: target.Path}

	if marker != "" && strings.Contains(text, marker) {
		f.AlreadyPatched = true
	}

	for _, rule := range target.Rules {
		switch n := strings.Count(text, rule.Anchor); {
		case n == 0:
			f.MissingAnchors = append(f.MissingAnchors, rule.Label)
		case n > 1:
			f.AmbiguousAnchors = append(f.AmbiguousAnchors, rule.Label)
		}
	}

	for _, s := range target.Sentinels {
		if !strings.Contains(text, s) {
			f.MissingSentinels = append(f.MissingSentinels, s)
		}
	}

	if f.AlreadyPatched || len(f.MissingAnchors) > 0 || len(f.AmbiguousAnchors) > 0 || len(f.MissingSentinels) > 0 {
		return f
	}
	return nil
}

// CheckPatched is the defensive double-check run after a write: every
// rule's replacement text must now be present in the content.
func CheckPatched(ctx context.Context, target *plan.TargetFile, content []byte) error {
	text := string(content)
	for _, rule := range target.Rules {
		if !strings.Contains(text, rule.Replace) {
			return &Failure{Path: target.Path, MissingAnchors: []string{rule.Label + " (post-patch)"}}
		}
	}
	return nil
}

// excerpt shortens long sentinel text for error messages.
func excerpt(s string) string {
	s = strings.ReplaceAll(s, "\n", `\n`)
	if len(s) > 60 {
		return s[:57] + "..."
	}
	return s
}
