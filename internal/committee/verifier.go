package committee

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/prediktfi/idea-committee/internal/types"
)

// RepairFunc re-invokes the judge with the violated checks listed as
// required fixes. The verifier calls it at most once.
type RepairFunc func(ctx context.Context, issues []string) (types.JudgeSynthesis, error)

// check is one entry in the fixed verification battery. Fatal checks
// escalate to hard_fail when they still fail after the repair round; soft
// checks are stylistic, produce quality warnings, and never trigger
// repair or failure.
type check struct {
	name  string
	fatal bool
	soft  bool
	fn    func(syn types.JudgeSynthesis, n Narrative) error
}

// Verifier runs the deterministic quality-gate battery over a judge
// synthesis, with exactly one bounded repair attempt.
type Verifier struct {
	checks []check
}

// compositionTolerance is the allowed numeric drift between the reported
// composition arithmetic and the stated totals.
const compositionTolerance = 2.0

// NewVerifier creates a verifier with the fixed check battery.
func NewVerifier() *Verifier {
	v := &Verifier{}

	v.checks = []check{
		{
			name:  "overall_score_range",
			fatal: true,
			fn: func(syn types.JudgeSynthesis, n Narrative) error {
				if syn.OverallScore < 0 || syn.OverallScore > 100 {
					return fmt.Errorf("overall score %.1f outside [0, 100]", syn.OverallScore)
				}
				return nil
			},
		},
		{
			name:  "theme_sub_score_range",
			fatal: true,
			fn: func(syn types.JudgeSynthesis, n Narrative) error {
				themes := map[string]float64{
					"technical":  syn.Technical.SubScore,
					"tokenomics": syn.Tokenomics.SubScore,
					"market":     syn.Market.SubScore,
					"execution":  syn.Execution.SubScore,
				}
				var violations []string
				for name, score := range themes {
					if score < 0 || score > 10 {
						violations = append(violations, fmt.Sprintf("%s=%.1f", name, score))
					}
				}
				if len(violations) > 0 {
					return fmt.Errorf("theme sub-scores outside [0, 10]: %s", strings.Join(violations, ", "))
				}
				return nil
			},
		},
		{
			name:  "structured_analysis_sections",
			fatal: true,
			fn: func(syn types.JudgeSynthesis, n Narrative) error {
				if len(n.Dimensions) == 0 {
					return fmt.Errorf("structured analysis has no dimension sections")
				}
				for _, d := range n.Dimensions {
					if !d.HasSubScore {
						return fmt.Errorf("dimension %q is missing its sub-score line", d.Name)
					}
				}
				return nil
			},
		},
		{
			name:  "composition_line_present",
			fatal: true,
			fn: func(syn types.JudgeSynthesis, n Narrative) error {
				if n.Composition == nil || len(n.Composition.Terms) == 0 {
					return fmt.Errorf("final composition line is missing")
				}
				return nil
			},
		},
		{
			name:  "composition_consistent",
			fatal: true,
			fn: func(syn types.JudgeSynthesis, n Narrative) error {
				if n.Composition == nil || len(n.Composition.Terms) == 0 {
					// Reported by composition_line_present.
					return nil
				}
				composed := n.Composition.ComposedTotal()
				if math.Abs(composed-n.Composition.Total) > compositionTolerance {
					return fmt.Errorf("composition arithmetic %.1f does not match stated total %.1f", composed, n.Composition.Total)
				}
				if math.Abs(n.Composition.Total-syn.OverallScore) > compositionTolerance {
					return fmt.Errorf("composition total %.1f does not match overall score %.1f", n.Composition.Total, syn.OverallScore)
				}
				return nil
			},
		},
		{
			name: "evidence_tag_per_dimension",
			fn: func(syn types.JudgeSynthesis, n Narrative) error {
				var missing []string
				for _, d := range n.Dimensions {
					if !d.HasEvidence {
						missing = append(missing, d.Name)
					}
				}
				if len(missing) > 0 {
					return fmt.Errorf("dimensions without an evidence tag: %s", strings.Join(missing, ", "))
				}
				return nil
			},
		},
		{
			name: "uncertainty_per_dimension",
			soft: true,
			fn: func(syn types.JudgeSynthesis, n Narrative) error {
				for _, d := range n.Dimensions {
					if d.Uncertainty == "" {
						return fmt.Errorf("dimension %q has no uncertainty sentence", d.Name)
					}
				}
				return nil
			},
		},
		{
			name: "recommendations_present",
			soft: true,
			fn: func(syn types.JudgeSynthesis, n Narrative) error {
				if len(syn.Recommendations) == 0 {
					return fmt.Errorf("no recommendations provided")
				}
				return nil
			},
		},
	}

	return v
}

// batteryResult is one full run of the check battery.
type batteryResult struct {
	issues          []string
	fatalIssues     []string
	qualityWarnings []string
}

// runBattery executes every check against a synthesis.
func (v *Verifier) runBattery(syn types.JudgeSynthesis) batteryResult {
	narrative := ParseNarrative(syn.StructuredAnalysis)

	var result batteryResult
	for _, c := range v.checks {
		err := c.fn(syn, narrative)
		if err == nil {
			continue
		}

		issue := fmt.Sprintf("%s: %v", c.name, err)
		if c.soft {
			result.qualityWarnings = append(result.qualityWarnings, issue)
			continue
		}

		result.issues = append(result.issues, issue)
		if c.fatal {
			result.fatalIssues = append(result.fatalIssues, issue)
		}
	}

	return result
}

// Verify runs the battery and, when checks fail, attempts exactly one
// repair round. It returns the synthesis to use (possibly repaired) and
// the outcome; on hard_fail the synthesis must not be delivered.
func (v *Verifier) Verify(ctx context.Context, syn types.JudgeSynthesis, repair RepairFunc) (types.JudgeSynthesis, types.VerifierOutcome) {
	outcome := types.VerifierOutcome{ChecksRun: len(v.checks)}

	first := v.runBattery(syn)
	outcome.ChecksFailed = len(first.issues)
	outcome.QualityWarnings = first.qualityWarnings

	narrative := ParseNarrative(syn.StructuredAnalysis)
	if len(narrative.Dimensions) != 0 && len(narrative.Dimensions) != 4 {
		outcome.InternalWarnings = append(outcome.InternalWarnings,
			fmt.Sprintf("narrative has %d dimension sections, expected 4", len(narrative.Dimensions)))
	}

	if len(first.issues) == 0 {
		outcome.Status = types.VerifierPass
		return syn, outcome
	}

	outcome.Issues = first.issues

	if repair == nil {
		outcome.Status = types.VerifierHardFail
		return syn, outcome
	}

	repaired, err := repair(ctx, first.issues)
	outcome.RepairsUsed = 1
	outcome.Repaired = true
	if err != nil {
		outcome.Status = types.VerifierHardFail
		outcome.Issues = append(outcome.Issues, fmt.Sprintf("repair attempt failed: %v", err))
		return syn, outcome
	}

	second := v.runBattery(repaired)
	outcome.QualityWarnings = second.qualityWarnings

	if len(second.fatalIssues) > 0 {
		outcome.Status = types.VerifierHardFail
		outcome.Issues = second.issues
		return repaired, outcome
	}

	// Residual non-fatal issues downgrade to warnings after the bounded
	// repair; the evaluation is still usable.
	outcome.Status = types.VerifierRepaired
	outcome.QualityWarnings = append(outcome.QualityWarnings, second.issues...)
	return repaired, outcome
}
