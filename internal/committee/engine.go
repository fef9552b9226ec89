// Package committee implements the multi-role idea evaluation core: a
// bear and a bull analyst run concurrently, a judge reconciles their
// outputs, and the result passes calibration, deterministic quality
// verification with one bounded repair round, and disagreement analysis.
package committee

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/prediktfi/idea-committee/internal/cache"
	"github.com/prediktfi/idea-committee/internal/config"
	"github.com/prediktfi/idea-committee/internal/encoding"
	"github.com/prediktfi/idea-committee/internal/errors"
	"github.com/prediktfi/idea-committee/internal/grounding"
	"github.com/prediktfi/idea-committee/internal/llm"
	"github.com/prediktfi/idea-committee/internal/monitoring"
	"github.com/prediktfi/idea-committee/internal/types"
)

// Engine orchestrates a full committee evaluation. All dependencies are
// injected; the engine holds no mutable state of its own beyond metrics.
type Engine struct {
	cfg        *config.Config
	gen        llm.Generator
	market     grounding.Provider
	store      *cache.Store
	verifier   *Verifier
	calibrator *Calibrator
	metrics    *monitoring.Metrics
	logger     *monitoring.Logger
}

// NewEngine creates an evaluation engine.
func NewEngine(cfg *config.Config, gen llm.Generator, market grounding.Provider, store *cache.Store, metrics *monitoring.Metrics, logger *monitoring.Logger) *Engine {
	if market == nil {
		market = grounding.NoopProvider{}
	}

	return &Engine{
		cfg:        cfg,
		gen:        gen,
		market:     market,
		store:      store,
		verifier:   NewVerifier(),
		calibrator: NewCalibrator(cfg.Calibration),
		metrics:    metrics,
		logger:     logger,
	}
}

// Evaluate returns the committee result for a submission, serving it from
// the cache when an identical submission (and tag) was evaluated within
// the TTL window. Concurrent identical requests coalesce onto one
// computation.
func (e *Engine) Evaluate(ctx context.Context, sub types.IdeaSubmission, tag string) (*types.CommitteeResult, error) {
	start := time.Now()
	e.metrics.IncrementRequest()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.EvaluationTimeout)
	defer cancel()

	key, err := evaluationKey(sub, tag)
	if err != nil {
		return nil, errors.NewInternalError("failed to derive cache key", err)
	}

	data, hit, err := e.store.Fetch(ctx, key, func() ([]byte, error) {
		result, err := e.evaluate(ctx, sub)
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
	e.logger.CacheLogger("fetch", key, hit, e.store.Size())

	var result types.CommitteeResult
	if err := encoding.Unmarshal(data, &result); err != nil {
		return nil, errors.NewInternalError("failed to decode cached result", err)
	}

	e.logger.EvaluationLogger(result.ID, string(result.Domain), result.OverallScore, result.Meta.WeightedScore, time.Since(start), hit)

	return &result, nil
}

// evaluate runs the three committee stages and assembles the result.
func (e *Engine) evaluate(ctx context.Context, sub types.IdeaSubmission) (*types.CommitteeResult, error) {
	domain := ClassifyDomain(sub.ProjectType, "")

	// Grounding data is optional; roles still produce output without it,
	// with reduced evidence coverage.
	snapshot, err := e.market.Fetch(ctx, sub.ProjectType)
	if err != nil {
		e.logger.Debug("market snapshot unavailable", "error", err)
		snapshot = nil
	}

	// Role stage: bear and bull are independent and run concurrently;
	// both must complete before the judge stage.
	bearSpec := BuildSpecialization(types.RoleBear, domain, sub.ProjectType)
	bullSpec := BuildSpecialization(types.RoleBull, domain, sub.ProjectType)

	var bear, bull types.RoleAnalysis
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bear, err = e.runRoleAnalysis(gctx, types.RoleBear, BuildRolePrompt(bearSpec, sub, snapshot))
		return err
	})
	g.Go(func() error {
		var err error
		bull, err = e.runRoleAnalysis(gctx, types.RoleBull, BuildRolePrompt(bullSpec, sub, snapshot))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Judge stage: reconciliation over the verbatim role outputs.
	judgeSpec := BuildSpecialization(types.RoleJudge, domain, sub.ProjectType)
	judgePrompt := BuildJudgePrompt(judgeSpec, sub, bear, bull, snapshot)

	synthesis, rawJudge, err := e.runJudge(ctx, judgePrompt)
	if err != nil {
		return nil, err
	}

	// Assembly stage: verification with one repair round, calibration,
	// disagreement, meta block.
	repair := func(ctx context.Context, issues []string) (types.JudgeSynthesis, error) {
		return e.runRepair(ctx, judgePrompt, rawJudge, issues)
	}

	synthesis, outcome := e.verifier.Verify(ctx, synthesis, repair)
	e.metrics.RecordVerifierOutcome(string(outcome.Status))
	e.logger.VerifierLogger(string(outcome.Status), outcome.ChecksRun, outcome.ChecksFailed, outcome.RepairsUsed)
	for _, warning := range outcome.InternalWarnings {
		e.logger.Debug("verifier internal warning", "warning", warning)
	}

	if outcome.Status == types.VerifierHardFail {
		return nil, errors.NewQualityError(outcome.Issues)
	}

	narrative := ParseNarrative(synthesis.StructuredAnalysis)
	coverage := narrative.EvidenceCoverage()
	citations := CountCitations(synthesis.StructuredAnalysis)
	overall := e.calibrator.Calibrate(synthesis.OverallScore, coverage, citations)

	disagreement := AnalyzeDisagreement(bear.Score, bull.Score, overall, e.cfg.DisagreementThreshold)

	weighted := RoleWeight(types.RoleBear)*(100-bear.Score) +
		RoleWeight(types.RoleBull)*bull.Score +
		RoleWeight(types.RoleJudge)*overall

	return &types.CommitteeResult{
		ID:              uuid.NewString(),
		Domain:          domain,
		OverallScore:    round1(overall),
		Summary:         synthesis.Summary,
		Technical:       synthesis.Technical,
		Tokenomics:      synthesis.Tokenomics,
		Market:          synthesis.Market,
		Execution:       synthesis.Execution,
		Recommendations: synthesis.Recommendations,
		Meta: types.ResultMeta{
			ConfidenceLevel:       confidenceLevel(coverage, outcome.Status, disagreement.HighDisagreementFlag),
			EvidenceCoverage:      round2(coverage),
			VerifierStatus:        outcome.Status,
			WeightedScore:         round1(weighted),
			CommitteeDisagreement: disagreement,
		},
		CreatedAt: time.Now().UTC(),
	}, nil
}

// evaluationKey canonicalizes a submission plus grouping tag into the
// cache key. JSON marshaling of the struct fixes field order, so
// identical submissions always produce identical keys.
func evaluationKey(sub types.IdeaSubmission, tag string) (string, error) {
	canonical, err := encoding.Marshal(sub)
	if err != nil {
		return "", err
	}
	return cache.Key("evaluation", string(canonical), tag), nil
}

// confidenceLevel derives the meta confidence label from evidence
// coverage, downgrading one level when the committee disagrees sharply or
// the output needed repair.
func confidenceLevel(coverage float64, status types.VerifierStatus, highDisagreement bool) string {
	levels := []string{"low", "medium", "high"}

	idx := 0
	switch {
	case coverage >= 0.75:
		idx = 2
	case coverage >= 0.4:
		idx = 1
	}

	if highDisagreement && idx > 0 {
		idx--
	}
	if status == types.VerifierRepaired && idx > 0 {
		idx--
	}

	return levels[idx]
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
