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

// Package plan defines the version-locked patch tables: which files get
// edited, and the exact anchor/replacement pairs for each one.
package plan

import (
	"context"

	"gitlab.com/tozd/go/errors"
)

// 🎯 PatchRule is one textual edit: an anchor that must occur exactly once
// in the unpatched file, and the text that replaces it.
type PatchRule struct {
	// Label is a short human-readable name for the edit
	Label string
	// Anchor is the exact substring the rule replaces. It doubles as a
	// version sentinel: zero or multiple occurrences fail validation.
	Anchor string
	// Replace is the full replacement text for the anchor
	Replace string
}

// 📦 TargetFile is one file inside the source tree together with its edits.
type TargetFile struct {
	// Path is relative to the tree root, slash-separated
	Path string
	// Sentinels are extra exact substrings that must be present (at least
	// once) for the file to be considered the expected upstream layout
	Sentinels []string
	// Rules are applied as a single atomic unit, in order
	Rules []PatchRule
}

// 📋 Plan is the complete patch table for one upstream version. Plans are
// immutable after construction; a new upstream version gets a new Plan,
// never an edit to an existing one.
type Plan struct {
	// Version is the upstream version tag this plan is locked to
	Version string
	// Marker is a tag embedded in every replacement, used to recognize
	// already-patched files
	Marker string
	// Files are the targets, patched independently of each other
	Files []TargetFile
}

// 🔍 FileFor returns the target entry for the given relative path.
func (p *Plan) FileFor(path string) (*TargetFile, bool) {
	for i := range p.Files {
		if p.Files[i].Path == path {
			return &p.Files[i], true
		}
	}
	return nil, false
}

// ✅ Validate checks the plan is internally consistent: a version tag,
// at least one file, and per file non-empty, label-unique, anchor-unique
// rules. It does not touch the file system.
func Validate(ctx context.Context, p *Plan) error {
	if p.Version == "" {
		return errors.New("plan is missing a version tag")
	}
	if len(p.Files) == 0 {
		return errors.Errorf("plan %s has no target files", p.Version)
	}

	seenPaths := map[string]bool{}
	for _, f := range p.Files {
		if f.Path == "" {
			return errors.Errorf("plan %s: target file with empty path", p.Version)
		}
		if seenPaths[f.Path] {
			return errors.Errorf("plan %s: duplicate target file %q", p.Version, f.Path)
		}
		seenPaths[f.Path] = true

		if len(f.Rules) == 0 {
			return errors.Errorf("plan %s: %s has no rules", p.Version, f.Path)
		}

		seenLabels := map[string]bool{}
		seenAnchors := map[string]bool{}
		for i, r := range f.Rules {
			if r.Label == "" {
				return errors.Errorf("plan %s: %s rule %d has no label", p.Version, f.Path, i)
			}
			if r.Anchor == "" {
				return errors.Errorf("plan %s: %s rule %q has an empty anchor", p.Version, f.Path, r.Label)
			}
			if seenLabels[r.Label] {
				return errors.Errorf("plan %s: %s has duplicate rule label %q", p.Version, f.Path, r.Label)
			}
			if seenAnchors[r.Anchor] {
				return errors.Errorf("plan %s: %s rule %q repeats another rule's anchor", p.Version, f.Path, r.Label)
			}
			seenLabels[r.Label] = true
			seenAnchors[r.Anchor] = true
		}
	}

	return nil
}
