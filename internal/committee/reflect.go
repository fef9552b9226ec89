package committee

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prediktfi/idea-committee/internal/cache"
	"github.com/prediktfi/idea-committee/internal/encoding"
	"github.com/prediktfi/idea-committee/internal/errors"
	"github.com/prediktfi/idea-committee/internal/types"
)

// Reflect runs the single-item prediction reflection analysis: given a
// past insight claim and its resolved outcome, produce a short graded
// reflection. Results share the evaluation cache under their own key
// space, with the same parse/retry discipline as a role call.
func (e *Engine) Reflect(ctx context.Context, req types.ReflectionRequest) (*types.ReflectionResult, error) {
	e.metrics.IncrementRequest()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.RoleCallTimeout)
	defer cancel()

	key := cache.Key("reflection", req.Claim, req.Outcome, req.Resolution)

	data, hit, err := e.store.Fetch(ctx, key, func() ([]byte, error) {
		result, err := e.runReflection(ctx, req)
		if err != nil {
			return nil, err
		}
		return encoding.Marshal(result)
	})
	if err != nil {
		e.metrics.IncrementError()
		return nil, err
	}

	if hit {
		e.metrics.IncrementCacheHit()
	} else {
		e.metrics.IncrementCacheMiss()
	}

	var result types.ReflectionResult
	if err := encoding.Unmarshal(data, &result); err != nil {
		return nil, errors.NewInternalError("failed to decode cached reflection", err)
	}

	return &result, nil
}

// runReflection performs the single generation call with one
// fallback-model retry.
func (e *Engine) runReflection(ctx context.Context, req types.ReflectionRequest) (*types.ReflectionResult, error) {
	prompt := buildReflectionPrompt(req)

	result, err := e.callReflection(ctx, e.cfg.Models.Judge, prompt)
	if err == nil {
		return result, nil
	}

	if !errors.IsRetryableError(err) {
		return nil, err
	}

	e.metrics.IncrementFallbackRetry()
	return e.callReflection(ctx, e.cfg.Models.JudgeFallback, prompt)
}

// reflectionPayload is the wire schema for a reflection response.
type reflectionPayload struct {
	Grade      string   `json:"grade"`
	Reflection string   `json:"reflection"`
	Lessons    []string `json:"lessons"`
}

func (e *Engine) callReflection(ctx context.Context, model, prompt string) (*types.ReflectionResult, error) {
	e.metrics.IncrementRoleCall("reflection")

	raw, err := e.gen.Generate(ctx, model, "", prompt)
	if err != nil {
		return nil, err
	}

	var payload reflectionPayload
	if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
		return nil, errors.NewParseError("reflection", err)
	}
	if payload.Grade == "" || payload.Reflection == "" {
		return nil, errors.NewParseError("reflection", fmt.Errorf("missing grade or reflection"))
	}

	return &types.ReflectionResult{
		ID:         uuid.NewString(),
		Grade:      payload.Grade,
		Reflection: payload.Reflection,
		Lessons:    payload.Lessons,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func buildReflectionPrompt(req types.ReflectionRequest) string {
	var b strings.Builder

	b.WriteString("## Prediction Reflection\n")
	b.WriteString("Assess how this prediction held up against its resolved outcome.\n")
	fmt.Fprintf(&b, "Claim: %s\n", req.Claim)
	fmt.Fprintf(&b, "Outcome: %s\n", req.Outcome)
	if req.Resolution != "" {
		fmt.Fprintf(&b, "Resolution detail: %s\n", req.Resolution)
	}
	b.WriteString(`Respond with a single JSON object:
{"grade": "<A-F>", "reflection": "...", "lessons": ["..."]}`)

	return b.String()
}
