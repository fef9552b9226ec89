package committee

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prediktfi/idea-committee/internal/cache"
	"github.com/prediktfi/idea-committee/internal/config"
	apperrors "github.com/prediktfi/idea-committee/internal/errors"
	"github.com/prediktfi/idea-committee/internal/llm"
	"github.com/prediktfi/idea-committee/internal/monitoring"
	"github.com/prediktfi/idea-committee/internal/types"
)

func testConfig() *config.Config {
	return &config.Config{
		Models: config.ModelMap{
			Bear:          "bear-model",
			Bull:          "bull-model",
			Judge:         "judge-model",
			JudgeFallback: "fallback-model",
			Verifier:      "verifier-model",
		},
		Calibration:           defaultCalibration(),
		DisagreementThreshold: 15.0,
		CacheTTL:              time.Minute,
		RoleCallTimeout:       10 * time.Second,
		EvaluationTimeout:     30 * time.Second,
	}
}

// scriptedGenerator dispatches on the role heading in the prompt and
// records every call for assertions.
type scriptedGenerator struct {
	mu      sync.Mutex
	calls   []generatorCall
	bearFn  func(call int) (string, error)
	bullFn  func(call int) (string, error)
	judgeFn func(call int) (string, error)
}

type generatorCall struct {
	model  string
	prompt string
}

func (g *scriptedGenerator) generate(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, generatorCall{model: model, prompt: userPrompt})
	bearCalls, bullCalls, judgeCalls := 0, 0, 0
	for _, c := range g.calls {
		switch {
		case strings.Contains(c.prompt, "## Bear Analyst"):
			bearCalls++
		case strings.Contains(c.prompt, "## Bull Analyst"):
			bullCalls++
		case strings.Contains(c.prompt, "## Judge Synthesizer"):
			judgeCalls++
		}
	}
	g.mu.Unlock()

	switch {
	case strings.Contains(userPrompt, "## Bear Analyst"):
		return g.bearFn(bearCalls)
	case strings.Contains(userPrompt, "## Bull Analyst"):
		return g.bullFn(bullCalls)
	case strings.Contains(userPrompt, "## Judge Synthesizer"):
		return g.judgeFn(judgeCalls)
	}
	return "", apperrors.NewInternalError("unexpected prompt", nil)
}

func (g *scriptedGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *scriptedGenerator) promptsFor(heading string) []generatorCall {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []generatorCall
	for _, c := range g.calls {
		if strings.Contains(c.prompt, heading) {
			out = append(out, c)
		}
	}
	return out
}

func roleJSON(t *testing.T, verdict string, score float64) string {
	t.Helper()

	data, err := json.Marshal(map[string]interface{}{
		"verdict":    verdict,
		"score":      score,
		"commentary": "scripted analysis",
		"dimensions": map[string]float64{"execution-risk": 5, "market-risk": 6},
	})
	require.NoError(t, err)
	return string(data)
}

func judgeJSON(t *testing.T, syn types.JudgeSynthesis) string {
	t.Helper()

	data, err := json.Marshal(syn)
	require.NoError(t, err)
	return string(data)
}

func newTestEngine(t *testing.T, gen *scriptedGenerator) (*Engine, *monitoring.Metrics) {
	t.Helper()

	metrics := monitoring.NewMetrics()
	engine := NewEngine(testConfig(), llm.GeneratorFunc(gen.generate), nil, cache.New(time.Minute, nil), metrics, monitoring.NewLogger())
	return engine, metrics
}

func memeSubmission() types.IdeaSubmission {
	return types.IdeaSubmission{
		Description: "A meme coin for competitive nappers with no stated utility.",
		ProjectType: "meme coin launch",
		TeamSize:    "2",
	}
}

func TestEvaluateEndToEnd(t *testing.T) {
	gen := &scriptedGenerator{
		bearFn:  func(int) (string, error) { return roleJSON(t, "risky but survivable", 35), nil },
		bullFn:  func(int) (string, error) { return roleJSON(t, "plausible upside", 66), nil },
		judgeFn: func(int) (string, error) { return judgeJSON(t, validSynthesis()), nil },
	}
	engine, metrics := newTestEngine(t, gen)

	result, err := engine.Evaluate(context.Background(), memeSubmission(), "")
	require.NoError(t, err)

	assert.Equal(t, types.DomainMeme, result.Domain)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "conditional", result.Summary.Verdict)
	assert.Equal(t, types.VerifierPass, result.Meta.VerifierStatus)

	// Raw judge score 59, full evidence coverage, 4 citations:
	// 59 + 8*(1.0-0.6)/0.6 + 4*0.5 = 66.333..., rounded to one decimal.
	assert.InDelta(t, 66.3, result.OverallScore, 1e-9)

	// 0.3*(100-35) + 0.3*66 + 0.4*66.333... = 65.833..., rounded.
	assert.InDelta(t, 65.8, result.Meta.WeightedScore, 1e-9)

	assert.InDelta(t, 1.0, result.Meta.EvidenceCoverage, 1e-9)
	assert.False(t, result.Meta.CommitteeDisagreement.HighDisagreementFlag)
	assert.Equal(t, "high", result.Meta.ConfidenceLevel)

	// One call per role, no fallbacks.
	assert.Equal(t, 3, gen.callCount())
	assert.Equal(t, int64(1), metrics.RoleCallCount("bear"))
	assert.Equal(t, int64(1), metrics.RoleCallCount("bull"))
	assert.Equal(t, int64(1), metrics.RoleCallCount("judge"))
}

func TestEvaluateDomainEmphasisReachesRolePrompts(t *testing.T) {
	gen := &scriptedGenerator{
		bearFn:  func(int) (string, error) { return roleJSON(t, "risky", 35), nil },
		bullFn:  func(int) (string, error) { return roleJSON(t, "upside", 66), nil },
		judgeFn: func(int) (string, error) { return judgeJSON(t, validSynthesis()), nil },
	}
	engine, _ := newTestEngine(t, gen)

	_, err := engine.Evaluate(context.Background(), memeSubmission(), "")
	require.NoError(t, err)

	memeEmphasis := BuildSpecialization(types.RoleBear, types.DomainMeme, "").Emphasis
	for _, heading := range []string{"## Bear Analyst", "## Bull Analyst", "## Judge Synthesizer"} {
		calls := gen.promptsFor(heading)
		require.Len(t, calls, 1, heading)
		assert.Contains(t, calls[0].prompt, memeEmphasis, heading)
	}

	// The judge prompt carries both role outputs verbatim.
	judgePrompt := gen.promptsFor("## Judge Synthesizer")[0].prompt
	assert.Contains(t, judgePrompt, "## Bear analysis (verbatim)")
	assert.Contains(t, judgePrompt, "## Bull analysis (verbatim)")
	assert.Contains(t, judgePrompt, "risky")
	assert.Contains(t, judgePrompt, "upside")
}

func TestEvaluateCacheIdempotence(t *testing.T) {
	gen := &scriptedGenerator{
		bearFn:  func(int) (string, error) { return roleJSON(t, "risky", 35), nil },
		bullFn:  func(int) (string, error) { return roleJSON(t, "upside", 66), nil },
		judgeFn: func(int) (string, error) { return judgeJSON(t, validSynthesis()), nil },
	}
	engine, metrics := newTestEngine(t, gen)

	first, err := engine.Evaluate(context.Background(), memeSubmission(), "team-a")
	require.NoError(t, err)

	second, err := engine.Evaluate(context.Background(), memeSubmission(), "team-a")
	require.NoError(t, err)

	// Identical result, including the generated ID, with no extra calls.
	assert.Equal(t, first, second)
	assert.Equal(t, 3, gen.callCount())
	assert.Equal(t, int64(1), metrics.CacheHits)

	// A different tag partitions the key space and recomputes.
	third, err := engine.Evaluate(context.Background(), memeSubmission(), "team-b")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
	assert.Equal(t, 6, gen.callCount())
}

func TestEvaluateFallbackRetryOnParseFailure(t *testing.T) {
	gen := &scriptedGenerator{
		bearFn: func(call int) (string, error) {
			if call == 1 {
				return "this is not JSON", nil
			}
			return roleJSON(t, "risky", 35), nil
		},
		bullFn:  func(int) (string, error) { return roleJSON(t, "upside", 66), nil },
		judgeFn: func(int) (string, error) { return judgeJSON(t, validSynthesis()), nil },
	}
	engine, metrics := newTestEngine(t, gen)

	_, err := engine.Evaluate(context.Background(), memeSubmission(), "")
	require.NoError(t, err)

	bearCalls := gen.promptsFor("## Bear Analyst")
	require.Len(t, bearCalls, 2)
	assert.Equal(t, "bear-model", bearCalls[0].model)
	assert.Equal(t, "fallback-model", bearCalls[1].model)
	assert.Equal(t, int64(1), metrics.FallbackRetries)
	assert.Equal(t, int64(2), metrics.RoleCallCount("bear"))
}

func TestEvaluateSecondFailureAborts(t *testing.T) {
	gen := &scriptedGenerator{
		bearFn:  func(int) (string, error) { return "never JSON", nil },
		bullFn:  func(int) (string, error) { return roleJSON(t, "upside", 66), nil },
		judgeFn: func(int) (string, error) { return judgeJSON(t, validSynthesis()), nil },
	}
	engine, _ := newTestEngine(t, gen)

	_, err := engine.Evaluate(context.Background(), memeSubmission(), "")
	require.Error(t, err)

	appErr := apperrors.ToAppError(err)
	assert.Equal(t, apperrors.CategoryParse, appErr.Category)
	assert.Len(t, gen.promptsFor("## Bear Analyst"), 2)
}

func TestEvaluateRepairRound(t *testing.T) {
	broken := validSynthesis()
	broken.StructuredAnalysis = "no structure here"

	gen := &scriptedGenerator{
		bearFn: func(int) (string, error) { return roleJSON(t, "risky", 35), nil },
		bullFn: func(int) (string, error) { return roleJSON(t, "upside", 66), nil },
		judgeFn: func(call int) (string, error) {
			if call == 1 {
				return judgeJSON(t, broken), nil
			}
			return judgeJSON(t, validSynthesis()), nil
		},
	}
	engine, metrics := newTestEngine(t, gen)

	result, err := engine.Evaluate(context.Background(), memeSubmission(), "")
	require.NoError(t, err)

	assert.Equal(t, types.VerifierRepaired, result.Meta.VerifierStatus)
	assert.Equal(t, int64(1), metrics.RepairRounds)

	judgeCalls := gen.promptsFor("## Judge Synthesizer")
	require.Len(t, judgeCalls, 2)
	assert.Contains(t, judgeCalls[1].prompt, "## Required fixes")
	assert.Equal(t, "verifier-model", judgeCalls[1].model)

	// Repair downgrades confidence one level from high.
	assert.Equal(t, "medium", result.Meta.ConfidenceLevel)
}

func TestEvaluateHardFailNotCached(t *testing.T) {
	broken := validSynthesis()
	broken.OverallScore = 150

	gen := &scriptedGenerator{
		bearFn:  func(int) (string, error) { return roleJSON(t, "risky", 35), nil },
		bullFn:  func(int) (string, error) { return roleJSON(t, "upside", 66), nil },
		judgeFn: func(int) (string, error) { return judgeJSON(t, broken), nil },
	}
	engine, metrics := newTestEngine(t, gen)

	_, err := engine.Evaluate(context.Background(), memeSubmission(), "")
	require.Error(t, err)

	appErr := apperrors.ToAppError(err)
	assert.Equal(t, apperrors.CategoryQuality, appErr.Category)
	assert.NotEmpty(t, appErr.Issues)
	assert.Equal(t, int64(1), metrics.VerifierHardFail)

	// Rejections are never cached: a retry recomputes from scratch.
	firstCalls := gen.callCount()
	_, err = engine.Evaluate(context.Background(), memeSubmission(), "")
	require.Error(t, err)
	assert.Greater(t, gen.callCount(), firstCalls)
}

func TestEvaluateConcurrentIdenticalRequestsCoalesce(t *testing.T) {
	release := make(chan struct{})
	gen := &scriptedGenerator{
		bearFn: func(int) (string, error) {
			<-release
			return roleJSON(t, "risky", 35), nil
		},
		bullFn:  func(int) (string, error) { return roleJSON(t, "upside", 66), nil },
		judgeFn: func(int) (string, error) { return judgeJSON(t, validSynthesis()), nil },
	}
	engine, _ := newTestEngine(t, gen)

	const concurrency = 5
	results := make([]*types.CommitteeResult, concurrency)
	errs := make([]error, concurrency)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = engine.Evaluate(context.Background(), memeSubmission(), "")
		}(i)
	}

	// Give the goroutines time to pile up on the in-flight computation,
	// then let the bear call finish.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < concurrency; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
	assert.Equal(t, 3, gen.callCount())
}

func TestEvaluateDisagreementDowngradesConfidence(t *testing.T) {
	// Bear risk 90 maps to 10 favorable against bull 90: sigma far above
	// the 15.0 threshold.
	gen := &scriptedGenerator{
		bearFn:  func(int) (string, error) { return roleJSON(t, "doomed", 90), nil },
		bullFn:  func(int) (string, error) { return roleJSON(t, "moonshot", 90), nil },
		judgeFn: func(int) (string, error) { return judgeJSON(t, validSynthesis()), nil },
	}
	engine, _ := newTestEngine(t, gen)

	result, err := engine.Evaluate(context.Background(), memeSubmission(), "")
	require.NoError(t, err)

	assert.True(t, result.Meta.CommitteeDisagreement.HighDisagreementFlag)
	assert.Contains(t, result.Meta.CommitteeDisagreement.DisagreementNote, "Overall score sigma")
	assert.Equal(t, "medium", result.Meta.ConfidenceLevel)
}
