package committee

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prediktfi/idea-committee/internal/errors"
	"github.com/prediktfi/idea-committee/internal/types"
)

// runJudge performs the judge synthesis pass over the bear and bull
// outputs. Same failure semantics as the role stage: one fallback-model
// retry, then hard failure. Returns the raw response alongside the parsed
// synthesis so the repair round can reference it.
func (e *Engine) runJudge(ctx context.Context, prompt string) (types.JudgeSynthesis, string, error) {
	synthesis, raw, err := e.callJudge(ctx, e.cfg.Models.Judge, prompt, false)
	if err == nil {
		return synthesis, raw, nil
	}

	if !errors.IsRetryableError(err) {
		return types.JudgeSynthesis{}, "", err
	}

	e.metrics.IncrementFallbackRetry()
	return e.callJudge(ctx, e.cfg.Models.JudgeFallback, prompt, true)
}

// runRepair is the verifier's single bounded repair round: re-invoke the
// judge with the violated checks listed as required fixes. Uses the
// verifier model. A timeout here is not retried.
func (e *Engine) runRepair(ctx context.Context, judgePrompt, priorRaw string, issues []string) (types.JudgeSynthesis, error) {
	e.metrics.IncrementRepairRound()

	prompt := BuildRepairPrompt(judgePrompt, priorRaw, issues)
	synthesis, _, err := e.callJudge(ctx, e.cfg.Models.Verifier, prompt, false)
	return synthesis, err
}

// callJudge issues a single judge call and decodes the response.
func (e *Engine) callJudge(ctx context.Context, model, prompt string, fallback bool) (types.JudgeSynthesis, string, error) {
	e.metrics.IncrementRoleCall(string(types.RoleJudge))

	start := time.Now()
	raw, err := e.gen.Generate(ctx, model, "", prompt)
	e.logger.RoleCallLogger(string(types.RoleJudge), model, time.Since(start), fallback, err)
	if err != nil {
		return types.JudgeSynthesis{}, "", err
	}

	synthesis, err := parseJudgeSynthesis(raw)
	if err != nil {
		return types.JudgeSynthesis{}, "", err
	}

	return synthesis, raw, nil
}

// parseJudgeSynthesis decodes a judge response. Shape validation here is
// minimal; content-level quality gates belong to the verifier.
func parseJudgeSynthesis(raw string) (types.JudgeSynthesis, error) {
	var synthesis types.JudgeSynthesis
	if err := json.Unmarshal([]byte(extractJSON(raw)), &synthesis); err != nil {
		return types.JudgeSynthesis{}, errors.NewParseError(string(types.RoleJudge), err)
	}

	if synthesis.Summary.Title == "" && synthesis.Summary.Verdict == "" {
		return types.JudgeSynthesis{}, errors.NewParseError(string(types.RoleJudge), fmt.Errorf("missing summary"))
	}

	return synthesis, nil
}
