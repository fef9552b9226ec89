package committee

import (
	"fmt"
	"strings"

	"github.com/prediktfi/idea-committee/internal/types"
)

// roleProfile is the fixed per-role entry in the committee table: weight,
// base dimensions, and execution instructions. Role dispatch is data, not
// branching logic; adding a role means adding an entry here.
type roleProfile struct {
	Title          string
	Objective      string
	Weight         float64
	BaseDimensions []string
	Instructions   []string
}

var roleTable = map[types.CommitteeRole]roleProfile{
	types.RoleBear: {
		Title:     "Bear Analyst",
		Objective: "Falsify the idea: find the failure modes, hidden costs, and downside exposure the founder is not pricing in.",
		Weight:    0.3,
		BaseDimensions: []string{
			"execution-risk",
			"market-risk",
			"technical-risk",
			"team-capacity",
			"downside-exposure",
		},
		Instructions: []string{
			"Assume the idea fails and work backwards to the most likely causes.",
			"Score each dimension 1-10 where 10 is the most severe risk.",
			"Report a single risk score 0-100 where higher means more unfavorable.",
			"Cite supplied grounding data with an [evidence:...] tag wherever a claim depends on it.",
			"Keep commentary concrete; no hedged generalities.",
		},
	},
	types.RoleBull: {
		Title:     "Bull Analyst",
		Objective: "Identify the upside: the strongest realistic path to outsized success and the levers that get there.",
		Weight:    0.3,
		BaseDimensions: []string{
			"market-upside",
			"differentiation",
			"timing",
			"growth-levers",
			"moat-potential",
		},
		Instructions: []string{
			"Assume competent execution and identify the best plausible outcome.",
			"Score each dimension 1-10 where 10 is the strongest opportunity.",
			"Report a single upside score 0-100 where higher means more favorable.",
			"Cite supplied grounding data with an [evidence:...] tag wherever a claim depends on it.",
			"Distinguish evidence-backed upside from speculation.",
		},
	},
	types.RoleJudge: {
		Title:     "Judge Synthesizer",
		Objective: "Reconcile the bear and bull analyses into one calibrated decision; do not redo first-principles analysis.",
		Weight:    0.4,
		BaseDimensions: []string{
			"technical-feasibility",
			"tokenomics",
			"market-fit",
			"execution-readiness",
		},
		Instructions: []string{
			"Surface the concrete disagreements between the bear and bull analyses.",
			"Reduce confidence wherever the evidence behind a claim is thin.",
			"Produce the structured analysis block with one section per dimension: Evidence, Reasoning, Uncertainty, Sub-score: x/10.",
			"End the structured analysis with the final composition line showing the literal weighted arithmetic and a confidence label.",
			"Score the overall idea 0-100, consistent with the composition arithmetic.",
		},
	},
}

// domainProfile is the per-domain overlay merged into every role's
// specialization for submissions routed to that domain.
type domainProfile struct {
	RubricProfile     string
	Emphasis          string
	OverlayDimensions []string
}

var domainTable = map[types.ProjectDomain]domainProfile{
	types.DomainDeFi: {
		RubricProfile: "defi-protocol",
		Emphasis:      "Weigh protocol security, sustainable yield sources, and tokenomics design above all else; unaudited financial plumbing is the default failure mode.",
		OverlayDimensions: []string{
			"protocol-security",
			"yield-sustainability",
			"regulatory-exposure",
		},
	},
	types.DomainMeme: {
		RubricProfile: "meme-asset",
		Emphasis:      "Judge community virality, distribution fairness, and liquidity planning; intrinsic utility claims deserve heavy discounting in this category.",
		OverlayDimensions: []string{
			"community-virality",
			"distribution-fairness",
			"liquidity-plan",
		},
	},
	types.DomainAI: {
		RubricProfile: "applied-ai",
		Emphasis:      "Focus on data advantage and model defensibility; a thin wrapper over a foundation model is the default failure mode in this category.",
		OverlayDimensions: []string{
			"model-defensibility",
			"data-advantage",
			"inference-cost",
		},
	},
	types.DomainSaaS: {
		RubricProfile: "subscription-software",
		Emphasis:      "Focus on retention economics and pricing power; distribution beats product polish for early subscription software.",
		OverlayDimensions: []string{
			"churn-risk",
			"pricing-power",
			"sales-motion",
		},
	},
	types.DomainConsumer: {
		RubricProfile: "consumer",
		Emphasis:      "Focus on retention and organic distribution; consumer products die from indifference, not competition.",
		OverlayDimensions: []string{
			"retention-hook",
			"organic-distribution",
		},
	},
	types.DomainHardware: {
		RubricProfile: "hardware",
		Emphasis:      "Weigh supply-chain realism and capital intensity; hardware margins punish optimistic unit economics.",
		OverlayDimensions: []string{
			"supply-chain-risk",
			"capital-intensity",
			"unit-economics",
		},
	},
	types.DomainOther: {
		RubricProfile: "general",
		Emphasis:      "Apply the general rubric; no category-specific emphasis beyond the base dimensions.",
		OverlayDimensions: nil,
	},
}

// RoleWeight returns the fixed weight for a committee role.
func RoleWeight(role types.CommitteeRole) float64 {
	return roleTable[role].Weight
}

// RoutingTrace records how a submission was routed to its rubric.
type RoutingTrace struct {
	Domain                types.ProjectDomain `json:"domain"`
	NormalizedProjectType string              `json:"normalized_project_type"`
	RubricProfile         string              `json:"rubric_profile"`
}

// Specialization is the full instruction block a role is judged and
// instructed on for a given domain. Deterministic for identical
// (role, domain, projectType) input.
type Specialization struct {
	Role         types.CommitteeRole `json:"role"`
	Title        string              `json:"title"`
	Objective    string              `json:"objective"`
	Dimensions   []string            `json:"dimensions"`
	Weight       float64             `json:"weight"`
	Trace        RoutingTrace        `json:"trace"`
	Emphasis     string              `json:"emphasis"`
	Instructions []string            `json:"instructions"`
}

// BuildSpecialization assembles the specialization block for a (role,
// domain) pair. The dimension list is the role's base list with the
// domain overlay appended; base order is preserved and duplicates are
// dropped.
func BuildSpecialization(role types.CommitteeRole, domain types.ProjectDomain, projectType string) Specialization {
	profile := roleTable[role]
	dp := domainTable[domain]

	dims := make([]string, 0, len(profile.BaseDimensions)+len(dp.OverlayDimensions))
	seen := make(map[string]bool, cap(dims))
	for _, d := range profile.BaseDimensions {
		if !seen[d] {
			dims = append(dims, d)
			seen[d] = true
		}
	}
	for _, d := range dp.OverlayDimensions {
		if !seen[d] {
			dims = append(dims, d)
			seen[d] = true
		}
	}

	return Specialization{
		Role:       role,
		Title:      profile.Title,
		Objective:  profile.Objective,
		Dimensions: dims,
		Weight:     profile.Weight,
		Trace: RoutingTrace{
			Domain:                domain,
			NormalizedProjectType: NormalizeProjectType(projectType),
			RubricProfile:         dp.RubricProfile,
		},
		Emphasis:     dp.Emphasis,
		Instructions: profile.Instructions,
	}
}

// Render produces the specialization block as instruction text. The role
// call's full instruction context begins with this block.
func (s Specialization) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s\n", s.Title)
	fmt.Fprintf(&b, "Objective: %s\n", s.Objective)
	fmt.Fprintf(&b, "Committee weight: %.1f\n", s.Weight)
	fmt.Fprintf(&b, "Routing: domain=%s project_type=%q rubric=%s\n",
		s.Trace.Domain, s.Trace.NormalizedProjectType, s.Trace.RubricProfile)
	fmt.Fprintf(&b, "Domain emphasis: %s\n", s.Emphasis)

	b.WriteString("Dimensions to score:\n")
	for _, d := range s.Dimensions {
		fmt.Fprintf(&b, "- %s\n", d)
	}

	b.WriteString("Execution instructions:\n")
	for i, inst := range s.Instructions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, inst)
	}

	return b.String()
}
