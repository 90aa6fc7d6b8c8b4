package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractStructured(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     map[string]any
		strategy string
	}{
		{
			name:     "whole_text",
			text:     `  {"problem_type": "algebra", "concepts": ["quadratics"]}  `,
			want:     map[string]any{"problem_type": "algebra", "concepts": []any{"quadratics"}},
			strategy: "whole_text",
		},
		{
			name:     "json_fence_with_prose",
			text:     "Here is the result:\n```json\n{\"final_answer\": \"x = 2\"}\n```\nHope this helps!",
			want:     map[string]any{"final_answer": "x = 2"},
			strategy: "json_fence",
		},
		{
			name:     "uppercase_json_fence",
			text:     "```JSON\n{\"a\": 1}\n```",
			want:     map[string]any{"a": float64(1)},
			strategy: "json_fence",
		},
		{
			name:     "unlabeled_fence",
			text:     "Answer below\n```\n{\"is_correct\": true}\n```",
			want:     map[string]any{"is_correct": true},
			strategy: "any_fence",
		},
		{
			name:     "embedded_in_prose",
			text:     `The model says {"confidence": 0.9} and nothing else.`,
			want:     map[string]any{"confidence": 0.9},
			strategy: "balanced_object",
		},
		{
			name: "nested_object_in_prose",
			text: `Sure! {"final_answer": "4", "meta": {"source": "arithmetic", "deep": {"k": 1}}} Done.`,
			want: map[string]any{
				"final_answer": "4",
				"meta":         map[string]any{"source": "arithmetic", "deep": map[string]any{"k": float64(1)}},
			},
			strategy: "balanced_object",
		},
		{
			name:     "braces_inside_strings",
			text:     `Result: {"final_answer_latex": "\\frac{1}{2} }", "solution_steps": []} trailing }`,
			want:     map[string]any{"final_answer_latex": "\\frac{1}{2} }", "solution_steps": []any{}},
			strategy: "balanced_object",
		},
		{
			name:     "skips_unparsable_candidate",
			text:     `first {not json} then {"ok": true}`,
			want:     map[string]any{"ok": true},
			strategy: "balanced_object",
		},
		{
			name:     "latex_backslashes",
			text:     `{"final_answer_latex": "x = \sin(\pi/6)", "steps": []}`,
			want:     map[string]any{"final_answer_latex": `x = \sin(\pi/6)`, "steps": []any{}},
			strategy: "latex_repair",
		},
		{
			name:     "latex_commands_that_are_json_escapes",
			text:     `{"final_answer_latex": "x = \frac{5}{2}"}`,
			want:     map[string]any{"final_answer_latex": `x = \frac{5}{2}`},
			strategy: "latex_repair",
		},
		{
			name:     "escape_collisions_in_fence",
			text:     "```json\n{\"latex\": \"\\theta = \\beta \\times 2 \\neq \\rho\"}\n```",
			want:     map[string]any{"latex": `\theta = \beta \times 2 \neq \rho`},
			strategy: "latex_repair",
		},
		{
			name:     "real_newlines_are_kept",
			text:     `{"explanation": "First line\nSecond line\tindented"}`,
			want:     map[string]any{"explanation": "First line\nSecond line\tindented"},
			strategy: "whole_text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, strategy := extractWithStrategy(tt.text)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.strategy, strategy)
		})
	}
}

func TestHasMangledLatex(t *testing.T) {
	assert.True(t, hasMangledLatex(map[string]any{"a": []any{"x = \frac{1}{2}"}}))
	assert.True(t, hasMangledLatex("\text{Given}"))
	assert.False(t, hasMangledLatex("line one\nline two"))
	assert.False(t, hasMangledLatex(`\frac{1}{2}`))
	assert.False(t, hasMangledLatex(float64(3)))
}

func TestExtractStructured_Failures(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"just some prose with no structure",
		"{ not json at all }",
		"[1, 2, 3]",
		`"a string"`,
		"```json\n[1,2]\n```",
		"} backwards {",
		"{{{{",
	}
	for _, in := range inputs {
		got := ExtractStructured(in)
		require.NotNil(t, got, "input %q", in)
		assert.Empty(t, got, "input %q", in)
	}
}

func TestExtractStructured_UnbalancedPrefix(t *testing.T) {
	// The stray opening brace never closes, so the scanner moves on to the
	// next candidate.
	text := `{ prefix {"a": {"b": 2}}`
	got, strategy := extractWithStrategy(text)
	assert.Equal(t, map[string]any{"a": map[string]any{"b": float64(2)}}, got)
	assert.Equal(t, "balanced_object", strategy)
}

func TestRepairBackslashes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`\sin`, `\\sin`},
		{`\\sin`, `\\sin`},
		{`say \"hi\"`, `say \"hi\"`},
		{`é`, `é`},
		{`\underline`, `\\underline`},
		{`\frac{1}{2}`, `\\frac{1}{2}`},
		{`trailing \`, `trailing \\`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, repairBackslashes(tt.in), tt.in)
	}
}

func TestMatchingBrace(t *testing.T) {
	assert.Equal(t, 6, matchingBrace(`{"a":1}`, 0))
	assert.Equal(t, 8, matchingBrace(`{"a":"}"}x}`, 0))
	assert.Equal(t, -1, matchingBrace(`{"a":1`, 0))
}
