package types

import "time"

// IdeaSubmission is the immutable input to a single committee evaluation.
// Field validation happens at the caller boundary; the core treats the
// submission as opaque content apart from the projectType hint.
type IdeaSubmission struct {
	Description       string   `json:"description" binding:"required"`
	ProjectType       string   `json:"project_type"`
	TeamSize          string   `json:"team_size"`
	Resources         []string `json:"resources"`
	SuccessDefinition string   `json:"success_definition"`
	ResponseStyle     string   `json:"response_style"`
	MVPScope          string   `json:"mvp_scope"`
	LaunchPlan        string   `json:"launch_plan"`
	GoToMarket        string   `json:"go_to_market"`
}

// ProjectDomain is the closed project-category enumeration used to route
// domain-specific evaluation emphasis.
type ProjectDomain string

const (
	DomainDeFi     ProjectDomain = "decentralized-finance"
	DomainMeme     ProjectDomain = "meme-asset"
	DomainAI       ProjectDomain = "applied-AI"
	DomainSaaS     ProjectDomain = "subscription-software"
	DomainConsumer ProjectDomain = "consumer"
	DomainHardware ProjectDomain = "hardware"
	DomainOther    ProjectDomain = "other"
)

// AllDomains lists every ProjectDomain value, used by property tests and
// the specialization builder.
var AllDomains = []ProjectDomain{
	DomainDeFi, DomainMeme, DomainAI, DomainSaaS,
	DomainConsumer, DomainHardware, DomainOther,
}

// CommitteeRole identifies one of the three fixed analytical perspectives.
type CommitteeRole string

const (
	RoleBear  CommitteeRole = "bear"
	RoleBull  CommitteeRole = "bull"
	RoleJudge CommitteeRole = "judge"
)

// RoleAnalysis is the parsed output of a single bear or bull pass.
// Score semantics differ per role: for bear it is a risk score where
// higher means more unfavorable; for bull it is an upside score where
// higher means more favorable. Dimension sub-scores are on a 1-10 scale.
type RoleAnalysis struct {
	Role       CommitteeRole      `json:"role"`
	Verdict    string             `json:"verdict"`
	Score      float64            `json:"score"`
	Commentary string             `json:"commentary"`
	Dimensions map[string]float64 `json:"dimensions"`
}

// ThemeBreakdown is one of the judge's four fixed thematic sections.
// SubScore is on a 0-10 scale.
type ThemeBreakdown struct {
	SubScore  float64  `json:"sub_score"`
	Strengths []string `json:"strengths"`
	Concerns  []string `json:"concerns"`
}

// JudgeSummary is the judge's headline block.
type JudgeSummary struct {
	Title    string `json:"title"`
	OneLiner string `json:"one_liner"`
	Verdict  string `json:"verdict"`
}

// JudgeSynthesis is the parsed judge output before calibration. The
// StructuredAnalysis field is the raw semi-structured narrative; the
// verifier and disagreement analyzer consume its parsed form.
type JudgeSynthesis struct {
	OverallScore       float64        `json:"overall_score"`
	Summary            JudgeSummary   `json:"summary"`
	Technical          ThemeBreakdown `json:"technical"`
	Tokenomics         ThemeBreakdown `json:"tokenomics"`
	Market             ThemeBreakdown `json:"market"`
	Execution          ThemeBreakdown `json:"execution"`
	Recommendations    []string       `json:"recommendations"`
	StructuredAnalysis string         `json:"structured_analysis"`
}

// VerifierStatus classifies the outcome of the quality-gate pass.
type VerifierStatus string

const (
	VerifierPass     VerifierStatus = "pass"
	VerifierRepaired VerifierStatus = "repaired"
	VerifierHardFail VerifierStatus = "hard_fail"
)

// VerifierOutcome records the result of the check battery and the single
// bounded repair round. InternalWarnings are diagnostic-only and are
// never included in caller-facing payloads.
type VerifierOutcome struct {
	Status           VerifierStatus `json:"status"`
	Issues           []string       `json:"issues,omitempty"`
	Repaired         bool           `json:"repaired"`
	RepairsUsed      int            `json:"repairs_used"`
	ChecksRun        int            `json:"checks_run"`
	ChecksFailed     int            `json:"checks_failed"`
	QualityWarnings  []string       `json:"quality_warnings,omitempty"`
	InternalWarnings []string       `json:"-"`
}

// DisagreementMetrics measures how far apart the three role perspectives
// landed after normalizing all scores to a common 0-100 scale.
type DisagreementMetrics struct {
	OverallScoreStdDev   float64 `json:"overall_score_std_dev"`
	HighDisagreementFlag bool    `json:"high_disagreement_flag"`
	DisagreementNote     string  `json:"disagreement_note,omitempty"`
}

// ResultMeta is the transparency block attached to every CommitteeResult.
type ResultMeta struct {
	ConfidenceLevel       string              `json:"confidence_level"`
	EvidenceCoverage      float64             `json:"evidence_coverage"`
	VerifierStatus        VerifierStatus      `json:"verifier_status"`
	WeightedScore         float64             `json:"weighted_score"`
	CommitteeDisagreement DisagreementMetrics `json:"committee_disagreement"`
}

// CommitteeResult is the assembled, caller-facing evaluation. OverallScore
// is the judge's internally composed score after calibration, distinct
// from the weighted score reported in Meta.
type CommitteeResult struct {
	ID              string         `json:"id"`
	Domain          ProjectDomain  `json:"domain"`
	OverallScore    float64        `json:"overall_score"`
	Summary         JudgeSummary   `json:"summary"`
	Technical       ThemeBreakdown `json:"technical"`
	Tokenomics      ThemeBreakdown `json:"tokenomics"`
	Market          ThemeBreakdown `json:"market"`
	Execution       ThemeBreakdown `json:"execution"`
	Recommendations []string       `json:"recommendations"`
	Meta            ResultMeta     `json:"meta"`
	CreatedAt       time.Time      `json:"created_at"`
}

// QualityRejection is the caller-facing payload when the verifier declares
// hard_fail. It carries the substantive issue list, which distinguishes it
// from a generic transport failure.
type QualityRejection struct {
	Error  string   `json:"error"`
	Issues []string `json:"issues"`
}

// ReflectionRequest is the input to the single-item prediction reflection
// analysis: a past insight claim plus its resolved outcome.
type ReflectionRequest struct {
	Claim      string `json:"claim" binding:"required"`
	Outcome    string `json:"outcome" binding:"required"`
	Resolution string `json:"resolution"`
}

// ReflectionResult is the cached output of a reflection pass.
type ReflectionResult struct {
	ID         string    `json:"id"`
	Grade      string    `json:"grade"`
	Reflection string    `json:"reflection"`
	Lessons    []string  `json:"lessons"`
	CreatedAt  time.Time `json:"created_at"`
}
