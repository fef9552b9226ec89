package committee

import (
	"regexp"
	"strconv"
	"strings"
)

// The judge's structuredAnalysis is a semi-structured text block, not
// guaranteed machine-clean markdown. This parser implements the
// line-based extraction contract the verifier and disagreement scorer
// depend on; anything it cannot extract is left absent and surfaces as a
// verifier issue rather than a parse panic.

// DimensionEntry is one parsed dimension section of the narrative.
type DimensionEntry struct {
	Name        string
	Evidence    string
	HasEvidence bool
	Reasoning   string
	Uncertainty string
	SubScore    float64
	HasSubScore bool
}

// CompositionTerm is one weighted term of the final composition line.
type CompositionTerm struct {
	Name     string
	SubScore float64
	Weight   float64
}

// Composition is the parsed final composition line.
type Composition struct {
	Terms      []CompositionTerm
	Total      float64
	Confidence string
}

// Narrative is the typed form of a structuredAnalysis block.
type Narrative struct {
	Dimensions  []DimensionEntry
	Composition *Composition
}

var (
	subScoreRe    = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*/\s*10\b`)
	evidenceTagRe = regexp.MustCompile(`\[evidence:[^\]]+\]`)
	compTermRe    = regexp.MustCompile(`([A-Za-z][A-Za-z-]*)\s+([0-9]+(?:\.[0-9]+)?)\s*\*\s*([0-9]+(?:\.[0-9]+)?)`)
	compTotalRe   = regexp.MustCompile(`=\s*([0-9]+(?:\.[0-9]+)?)\s*/\s*100`)
	confidenceRe  = regexp.MustCompile(`confidence:\s*([A-Za-z]+)`)
)

// ParseNarrative extracts the typed narrative from a structuredAnalysis
// block. It never fails; missing sections are simply absent.
func ParseNarrative(text string) Narrative {
	var n Narrative
	var current *DimensionEntry

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		switch {
		case hasPrefixFold(line, "Dimension:"):
			n.Dimensions = append(n.Dimensions, DimensionEntry{
				Name: strings.TrimSpace(trimPrefixFold(line, "Dimension:")),
			})
			current = &n.Dimensions[len(n.Dimensions)-1]

		case hasPrefixFold(line, "Evidence:"):
			if current != nil {
				current.Evidence = strings.TrimSpace(trimPrefixFold(line, "Evidence:"))
				current.HasEvidence = evidenceTagRe.MatchString(current.Evidence)
			}

		case hasPrefixFold(line, "Reasoning:"):
			if current != nil {
				current.Reasoning = strings.TrimSpace(trimPrefixFold(line, "Reasoning:"))
			}

		case hasPrefixFold(line, "Uncertainty:"):
			if current != nil {
				current.Uncertainty = strings.TrimSpace(trimPrefixFold(line, "Uncertainty:"))
			}

		case hasPrefixFold(line, "Sub-score:"):
			if current != nil {
				if m := subScoreRe.FindStringSubmatch(line); m != nil {
					if v, err := strconv.ParseFloat(m[1], 64); err == nil {
						current.SubScore = v
						current.HasSubScore = true
					}
				}
			}

		case hasPrefixFold(line, "Final composition:"):
			n.Composition = parseComposition(line)
		}
	}

	return n
}

// parseComposition extracts the weighted terms, total, and confidence
// label from a final composition line.
func parseComposition(line string) *Composition {
	comp := &Composition{}

	for _, m := range compTermRe.FindAllStringSubmatch(line, -1) {
		score, err1 := strconv.ParseFloat(m[2], 64)
		weight, err2 := strconv.ParseFloat(m[3], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		comp.Terms = append(comp.Terms, CompositionTerm{
			Name:     m[1],
			SubScore: score,
			Weight:   weight,
		})
	}

	if m := compTotalRe.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			comp.Total = v
		}
	}

	if m := confidenceRe.FindStringSubmatch(line); m != nil {
		comp.Confidence = strings.ToLower(m[1])
	}

	return comp
}

// ComposedTotal computes the weighted arithmetic the composition line
// claims, on the 0-100 scale.
func (c *Composition) ComposedTotal() float64 {
	sum := 0.0
	for _, t := range c.Terms {
		sum += t.SubScore * t.Weight
	}
	return sum * 10
}

// EvidenceCoverage returns the fraction of parsed dimensions carrying an
// evidence tag. Zero dimensions yield zero coverage.
func (n Narrative) EvidenceCoverage() float64 {
	if len(n.Dimensions) == 0 {
		return 0
	}

	tagged := 0
	for _, d := range n.Dimensions {
		if d.HasEvidence {
			tagged++
		}
	}

	return float64(tagged) / float64(len(n.Dimensions))
}

// CountCitations counts evidence tags across the whole narrative text,
// used as a calibration signal for concrete citations.
func CountCitations(text string) int {
	return len(evidenceTagRe.FindAllString(text, -1))
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func trimPrefixFold(s, prefix string) string {
	if hasPrefixFold(s, prefix) {
		return s[len(prefix):]
	}
	return s
}
