package patch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/mutterpatch/pkg/plan"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		rules     []plan.PatchRule
		want      string
		wantRules int
		wantErr   error
	}{
		{
			name:    "single_anchor_replaced_once",
			content: "line one\nFOCUS_CHECK_A\nline three\n",
			rules: []plan.PatchRule{
				{Label: "focus check", Anchor: "FOCUS_CHECK_A", Replace: "/* removed */"},
			},
			want:      "line one\n/* removed */\nline three\n",
			wantRules: 1,
		},
		{
			name:    "duplicate_anchor_is_ambiguous",
			content: "FOCUS_CHECK_A\nmiddle\nFOCUS_CHECK_A\n",
			rules: []plan.PatchRule{
				{Label: "focus check", Anchor: "FOCUS_CHECK_A", Replace: "x"},
			},
			wantErr: ErrAnchorAmbiguous,
		},
		{
			name:    "missing_anchor",
			content: "nothing to see here\n",
			rules: []plan.PatchRule{
				{Label: "focus check", Anchor: "FOCUS_CHECK_A", Replace: "x"},
			},
			wantErr: ErrAnchorNotFound,
		},
		{
			name:    "multiple_rules_resolved_against_original",
			content: "aaa ANCHOR_ONE bbb ANCHOR_TWO ccc",
			rules: []plan.PatchRule{
				{Label: "one", Anchor: "ANCHOR_ONE", Replace: "ANCHOR_TWO was not here first"},
				{Label: "two", Anchor: "ANCHOR_TWO", Replace: "second"},
			},
			want:      "aaa ANCHOR_TWO was not here first bbb second ccc",
			wantRules: 2,
		},
		{
			name:    "rule_order_does_not_matter",
			content: "aaa ANCHOR_ONE bbb ANCHOR_TWO ccc",
			rules: []plan.PatchRule{
				{Label: "two", Anchor: "ANCHOR_TWO", Replace: "second"},
				{Label: "one", Anchor: "ANCHOR_ONE", Replace: "first"},
			},
			want:      "aaa first bbb second ccc",
			wantRules: 2,
		},
		{
			name:    "overlapping_rules_rejected",
			content: "xx ANCHOR_ONE_TWO yy",
			rules: []plan.PatchRule{
				{Label: "one", Anchor: "ANCHOR_ONE", Replace: "a"},
				{Label: "two", Anchor: "ONE_TWO", Replace: "b"},
			},
			wantErr: ErrOverlappingRules,
		},
		{
			name:    "one_failing_rule_fails_all",
			content: "aaa ANCHOR_ONE bbb",
			rules: []plan.PatchRule{
				{Label: "one", Anchor: "ANCHOR_ONE", Replace: "first"},
				{Label: "two", Anchor: "ANCHOR_TWO", Replace: "second"},
			},
			wantErr: ErrAnchorNotFound,
		},
		{
			name:    "replacement_containing_anchor_text_is_safe",
			content: "keep FOCUS_CHECK_A keep",
			rules: []plan.PatchRule{
				{Label: "one", Anchor: "FOCUS_CHECK_A", Replace: "FOCUS_CHECK_A and more"},
			},
			want:      "keep FOCUS_CHECK_A and more keep",
			wantRules: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			result, err := Apply(ctx, []byte(tt.content), tt.rules)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result, "no output buffer may be emitted on failure")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, string(result.PatchedContent))
			assert.Equal(t, tt.content, string(result.OriginalContent), "original content must be preserved")
			assert.Equal(t, tt.wantRules, result.RulesApplied)
		})
	}
}

func TestApply_SurroundingBytesUnchanged(t *testing.T) {
	ctx := context.Background()
	content := "line one\nFOCUS_CHECK_A\nline three\n"

	result, err := Apply(ctx, []byte(content), []plan.PatchRule{
		{Label: "focus check", Anchor: "FOCUS_CHECK_A", Replace: "REPLACED"},
	})
	require.NoError(t, err)

	// Everything around the anchor stays byte-identical
	assert.Equal(t, "line one\nREPLACED\nline three\n", string(result.PatchedContent))
}

func TestApply_Deterministic(t *testing.T) {
	ctx := context.Background()
	content := "aaa ANCHOR_ONE bbb ANCHOR_TWO ccc"
	rules := []plan.PatchRule{
		{Label: "one", Anchor: "ANCHOR_ONE", Replace: "first"},
		{Label: "two", Anchor: "ANCHOR_TWO", Replace: "second"},
	}

	first, err := Apply(ctx, []byte(content), rules)
	require.NoError(t, err)
	second, err := Apply(ctx, []byte(content), rules)
	require.NoError(t, err)

	assert.Equal(t, first.PatchedContent, second.PatchedContent)
}
