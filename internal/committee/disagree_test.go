package committee

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeDisagreementBearInversion(t *testing.T) {
	// Bear risk 90 and bull upside 90 are opposite opinions: bear maps to
	// 10 favorable, so the spread must be large even though the raw
	// numbers are identical.
	m := AnalyzeDisagreement(90, 90, 50, 15.0)

	assert.Greater(t, m.OverallScoreStdDev, 2.0)
	assert.True(t, m.HighDisagreementFlag)
	assert.Contains(t, m.DisagreementNote, "Overall score sigma")
}

func TestAnalyzeDisagreementAgreement(t *testing.T) {
	// Bear risk 30 maps to 70 favorable; all three land near 70.
	m := AnalyzeDisagreement(30, 72, 69, 15.0)

	assert.Less(t, m.OverallScoreStdDev, 5.0)
	assert.False(t, m.HighDisagreementFlag)
	assert.Empty(t, m.DisagreementNote)
}

func TestAnalyzeDisagreementIdenticalScoresZeroSigma(t *testing.T) {
	m := AnalyzeDisagreement(40, 60, 60, 15.0)

	assert.InDelta(t, 0.0, m.OverallScoreStdDev, 1e-9)
	assert.False(t, m.HighDisagreementFlag)
}

func TestAnalyzeDisagreementThresholdBoundary(t *testing.T) {
	// Bear 90 / bull 90 / judge 50 normalizes to {10, 90, 50}: sigma is
	// exactly 40. At the threshold no flag; strictly above it flags.
	m := AnalyzeDisagreement(90, 90, 50, 40.0)
	assert.InDelta(t, 40.0, m.OverallScoreStdDev, 1e-9)
	assert.False(t, m.HighDisagreementFlag)

	m = AnalyzeDisagreement(90, 90, 50, 39.9)
	assert.True(t, m.HighDisagreementFlag)
}

func TestAnalyzeDisagreementClampsInputs(t *testing.T) {
	// Out-of-range inputs are clamped before dispersion is measured, so
	// extreme garbage cannot produce a sigma above the 0-100 scale's max.
	m := AnalyzeDisagreement(-50, 250, 50, 15.0)

	clamped := AnalyzeDisagreement(0, 100, 50, 15.0)
	assert.Equal(t, clamped.OverallScoreStdDev, m.OverallScoreStdDev)
}

func TestSampleStdDev(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"identical values", []float64{50, 50, 50}, 0},
		{"single value", []float64{42}, 0},
		{"empty", nil, 0},
		{"known spread", []float64{10, 50, 90}, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, sampleStdDev(tt.values), 1e-9)
		})
	}
}
