package committee

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prediktfi/idea-committee/internal/types"
)

func TestParseRoleAnalysis(t *testing.T) {
	valid := `{"verdict": "risky", "score": 70, "commentary": "thin moat", "dimensions": {"execution-risk": 7, "market-risk": 5}}`

	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{"valid payload", valid, ""},
		{"fenced payload", "```json\n" + valid + "\n```", ""},
		{"payload with surrounding prose", "Here is my analysis:\n" + valid + "\nHope that helps.", ""},
		{"not json", "I think this idea is risky.", "unparseable"},
		{"missing verdict", `{"score": 70, "dimensions": {"a": 5}}`, "unparseable"},
		{"missing score", `{"verdict": "risky", "dimensions": {"a": 5}}`, "unparseable"},
		{"score out of range", `{"verdict": "risky", "score": 140, "dimensions": {"a": 5}}`, "unparseable"},
		{"no dimensions", `{"verdict": "risky", "score": 70, "dimensions": {}}`, "unparseable"},
		{"dimension out of range", `{"verdict": "risky", "score": 70, "dimensions": {"a": 12}}`, "unparseable"},
		{"dimension below one", `{"verdict": "risky", "score": 70, "dimensions": {"a": 0}}`, "unparseable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := parseRoleAnalysis(types.RoleBear, tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, types.RoleBear, analysis.Role)
			assert.Equal(t, "risky", analysis.Verdict)
			assert.Equal(t, 70.0, analysis.Score)
			assert.Len(t, analysis.Dimensions, 2)
		})
	}
}

func TestParseRoleAnalysisZeroScoreIsValid(t *testing.T) {
	analysis, err := parseRoleAnalysis(types.RoleBull, `{"verdict": "dead on arrival", "score": 0, "dimensions": {"market-upside": 1}}`)
	require.NoError(t, err)
	assert.Zero(t, analysis.Score)
}

func TestParseJudgeSynthesis(t *testing.T) {
	_, err := parseJudgeSynthesis(`{"overall_score": 60, "summary": {"title": "ok", "verdict": "conditional"}}`)
	assert.NoError(t, err)

	_, err = parseJudgeSynthesis(`{"overall_score": 60, "summary": {}}`)
	assert.Error(t, err)

	_, err = parseJudgeSynthesis("no json at all")
	assert.Error(t, err)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"plain object", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"leading prose", "Sure, here you go: {\"a\": 1}", `{"a": 1}`},
		{"nested braces", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
		{"no braces passthrough", "plain text", "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSON(tt.raw))
		})
	}
}
