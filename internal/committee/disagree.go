package committee

import (
	"fmt"
	"math"

	"github.com/prediktfi/idea-committee/internal/types"
)

// AnalyzeDisagreement measures dispersion between the three role
// perspectives. Bear's risk score is inverted so that higher means more
// favorable on the common 0-100 scale, making it comparable with bull's
// upside score and the judge's overall score. Pure and deterministic.
func AnalyzeDisagreement(bearRisk, bullUpside, judgeOverall, threshold float64) types.DisagreementMetrics {
	bearFavorable := 100 - clamp(bearRisk, 0, 100)
	scores := []float64{
		bearFavorable,
		clamp(bullUpside, 0, 100),
		clamp(judgeOverall, 0, 100),
	}

	sigma := sampleStdDev(scores)

	metrics := types.DisagreementMetrics{
		OverallScoreStdDev: sigma,
	}

	if sigma > threshold {
		metrics.HighDisagreementFlag = true
		metrics.DisagreementNote = fmt.Sprintf(
			"Overall score sigma %.1f across bear/bull/judge exceeds the %.1f threshold; the committee perspectives diverge sharply on this idea.",
			sigma, threshold,
		)
	}

	return metrics
}

// sampleStdDev computes the sample standard deviation (n-1 denominator).
func sampleStdDev(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= n

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= n - 1

	return math.Sqrt(variance)
}
