package committee

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prediktfi/idea-committee/internal/errors"
	"github.com/prediktfi/idea-committee/internal/types"
)

// runRoleAnalysis performs one bear or bull pass. A failed call (transport
// error, timeout, or schema violation) is retried exactly once against the
// fallback model; a second failure propagates as a hard failure for the
// whole evaluation.
func (e *Engine) runRoleAnalysis(ctx context.Context, role types.CommitteeRole, prompt string) (types.RoleAnalysis, error) {
	model := e.modelFor(role)

	analysis, err := e.callRole(ctx, role, model, prompt, false)
	if err == nil {
		return analysis, nil
	}

	if !errors.IsRetryableError(err) {
		return types.RoleAnalysis{}, err
	}

	e.metrics.IncrementFallbackRetry()
	return e.callRole(ctx, role, e.cfg.Models.JudgeFallback, prompt, true)
}

// callRole issues a single role call and validates the response shape.
func (e *Engine) callRole(ctx context.Context, role types.CommitteeRole, model, prompt string, fallback bool) (types.RoleAnalysis, error) {
	e.metrics.IncrementRoleCall(string(role))

	start := time.Now()
	raw, err := e.gen.Generate(ctx, model, "", prompt)
	e.logger.RoleCallLogger(string(role), model, time.Since(start), fallback, err)
	if err != nil {
		return types.RoleAnalysis{}, err
	}

	analysis, err := parseRoleAnalysis(role, raw)
	if err != nil {
		return types.RoleAnalysis{}, err
	}

	return analysis, nil
}

// modelFor resolves the configured model for a role.
func (e *Engine) modelFor(role types.CommitteeRole) string {
	switch role {
	case types.RoleBear:
		return e.cfg.Models.Bear
	case types.RoleBull:
		return e.cfg.Models.Bull
	default:
		return e.cfg.Models.Judge
	}
}

// roleAnalysisPayload is the wire schema for a bear/bull response.
type roleAnalysisPayload struct {
	Verdict    string             `json:"verdict"`
	Score      *float64           `json:"score"`
	Commentary string             `json:"commentary"`
	Dimensions map[string]float64 `json:"dimensions"`
}

// parseRoleAnalysis decodes and validates a role response. Any schema
// violation is a parse failure subject to the fallback retry.
func parseRoleAnalysis(role types.CommitteeRole, raw string) (types.RoleAnalysis, error) {
	var payload roleAnalysisPayload
	if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
		return types.RoleAnalysis{}, errors.NewParseError(string(role), err)
	}

	if payload.Verdict == "" {
		return types.RoleAnalysis{}, errors.NewParseError(string(role), fmt.Errorf("missing verdict"))
	}
	if payload.Score == nil || *payload.Score < 0 || *payload.Score > 100 {
		return types.RoleAnalysis{}, errors.NewParseError(string(role), fmt.Errorf("score out of range"))
	}
	if len(payload.Dimensions) == 0 {
		return types.RoleAnalysis{}, errors.NewParseError(string(role), fmt.Errorf("missing dimension sub-scores"))
	}
	for dim, score := range payload.Dimensions {
		if score < 1 || score > 10 {
			return types.RoleAnalysis{}, errors.NewParseError(string(role),
				fmt.Errorf("dimension %q sub-score %v out of 1-10 range", dim, score))
		}
	}

	return types.RoleAnalysis{
		Role:       role,
		Verdict:    payload.Verdict,
		Score:      *payload.Score,
		Commentary: payload.Commentary,
		Dimensions: payload.Dimensions,
	}, nil
}

// extractJSON strips markdown fences and surrounding prose from a model
// response, returning the outermost JSON object.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}

	return s
}
