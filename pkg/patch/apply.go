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

// Package patch computes fully patched file content in memory. Every rule
// is resolved against the original content before any output is assembled,
// so a file is always either fully old or fully new, never interleaved.
package patch

import (
	"context"
	"sort"
	"strings"

	"github.com/walteh/mutterpatch/pkg/plan"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrAnchorNotFound means a rule's anchor has zero occurrences
	ErrAnchorNotFound = errors.Base("anchor not found")
	// ErrAnchorAmbiguous means a rule's anchor occurs more than once
	ErrAnchorAmbiguous = errors.Base("anchor is ambiguous")
	// ErrOverlappingRules means two rules target overlapping text
	ErrOverlappingRules = errors.Base("rules target overlapping text")
)

// 📦 Result holds the outcome of applying one file's rules.
type Result struct {
	// OriginalContent is the content the rules were resolved against
	OriginalContent []byte
	// PatchedContent is the fully assembled new content
	PatchedContent []byte
	// RulesApplied is the number of rules folded into PatchedContent
	RulesApplied int
}

// span is one verified edit site, in original-content offsets.
type span struct {
	start, end int
	replace    string
	label      string
}

// 🏃 Apply resolves every rule against the original content and assembles
// the patched buffer only once all of them have been verified to apply
// cleanly. Anchors are located in the original content, not in a buffer
// already mutated by an earlier rule, so rule order cannot shift a later
// rule's match. Any failure returns a nil result and leaves no partial
// output to misuse.
func Apply(ctx context.Context, content []byte, rules []plan.PatchRule) (*Result, error) {
	text := string(content)

	spans := make([]span, 0, len(rules))
	for _, rule := range rules {
		switch n := strings.Count(text, rule.Anchor); {
		case n == 0:
			return nil, errors.Errorf("rule %q: %w", rule.Label, ErrAnchorNotFound)
		case n > 1:
			return nil, errors.Errorf("rule %q: %d occurrences: %w", rule.Label, n, ErrAnchorAmbiguous)
		}
		start := strings.Index(text, rule.Anchor)
		spans = append(spans, span{
			start:   start,
			end:     start + len(rule.Anchor),
			replace: rule.Replace,
			label:   rule.Label,
		})
	}

	// Reject overlapping edit sites before assembling anything
	ordered := make([]span, len(spans))
	copy(ordered, spans)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].start < ordered[j].start })
	for i := 1; i < len(ordered); i++ {
		if ordered[i].start < ordered[i-1].end {
			return nil, errors.Errorf("rules %q and %q: %w",
				ordered[i-1].label, ordered[i].label, ErrOverlappingRules)
		}
	}

	// Assemble the new content in one pass over the original
	var b strings.Builder
	last := 0
	for _, s := range ordered {
		b.WriteString(text[last:s.start])
		b.WriteString(s.replace)
		last = s.end
	}
	b.WriteString(text[last:])

	return &Result{
		OriginalContent: content,
		PatchedContent:  []byte(b.String()),
		RulesApplied:    len(rules),
	}, nil
}
