package committee

import (
	"math"

	"github.com/prediktfi/idea-committee/internal/config"
)

// Calibrator adjusts the judge's raw overall score using evidence-quality
// signals before it is treated as final. The adjustment is monotonic in
// evidence coverage and bounded; the result is clamped to [0, 100].
type Calibrator struct {
	cfg config.CalibrationConfig
}

// NewCalibrator creates a calibrator with the given tunable parameters.
func NewCalibrator(cfg config.CalibrationConfig) *Calibrator {
	return &Calibrator{cfg: cfg}
}

// Calibrate returns the adjusted overall score. Coverage above the
// neutral point raises the score, coverage below lowers it, scaled
// linearly up to MaxAdjustment in either direction. Concrete citations
// add a small bounded bonus on top.
func (c *Calibrator) Calibrate(rawScore, evidenceCoverage float64, citations int) float64 {
	coverage := clamp(evidenceCoverage, 0, 1)

	span := math.Max(c.cfg.NeutralCoverage, 1-c.cfg.NeutralCoverage)
	adjustment := 0.0
	if span > 0 {
		adjustment = c.cfg.MaxAdjustment * (coverage - c.cfg.NeutralCoverage) / span
	}
	adjustment = clamp(adjustment, -c.cfg.MaxAdjustment, c.cfg.MaxAdjustment)

	if citations > c.cfg.CitationCap {
		citations = c.cfg.CitationCap
	}
	adjustment += float64(citations) * c.cfg.CitationBonus

	return clamp(rawScore+adjustment, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
