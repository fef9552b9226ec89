package committee

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prediktfi/idea-committee/internal/grounding"
	"github.com/prediktfi/idea-committee/internal/types"
)

// submissionBlock renders the submission content appended to every role's
// instruction context.
func submissionBlock(sub types.IdeaSubmission) string {
	var b strings.Builder

	b.WriteString("## Submission\n")
	fmt.Fprintf(&b, "Description: %s\n", sub.Description)
	if sub.ProjectType != "" {
		fmt.Fprintf(&b, "Project type: %s\n", sub.ProjectType)
	}
	if sub.TeamSize != "" {
		fmt.Fprintf(&b, "Team size: %s\n", sub.TeamSize)
	}
	if len(sub.Resources) > 0 {
		fmt.Fprintf(&b, "Resources: %s\n", strings.Join(sub.Resources, ", "))
	}
	if sub.SuccessDefinition != "" {
		fmt.Fprintf(&b, "Success definition: %s\n", sub.SuccessDefinition)
	}
	if sub.MVPScope != "" {
		fmt.Fprintf(&b, "MVP scope: %s\n", sub.MVPScope)
	}
	if sub.LaunchPlan != "" {
		fmt.Fprintf(&b, "Launch plan: %s\n", sub.LaunchPlan)
	}
	if sub.GoToMarket != "" {
		fmt.Fprintf(&b, "Go-to-market: %s\n", sub.GoToMarket)
	}
	if sub.ResponseStyle != "" {
		fmt.Fprintf(&b, "Response style: %s\n", sub.ResponseStyle)
	}

	return b.String()
}

// snapshotBlock renders the optional grounding data with its evidence tag.
// Returns "" when no snapshot is available.
func snapshotBlock(snapshot *grounding.Snapshot) string {
	if snapshot == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Grounding data %s\n", grounding.EvidenceTag)
	if snapshot.Sector != "" {
		fmt.Fprintf(&b, "Sector: %s\n", snapshot.Sector)
	}
	if len(snapshot.Competitors) > 0 {
		fmt.Fprintf(&b, "Competitors: %s\n", strings.Join(snapshot.Competitors, ", "))
	}
	if snapshot.MarketNote != "" {
		fmt.Fprintf(&b, "Market note: %s\n", snapshot.MarketNote)
	}
	fmt.Fprintf(&b, "Reference this data with the %s tag.\n", grounding.EvidenceTag)

	return b.String()
}

// BuildRolePrompt assembles the full instruction context for a bear or
// bull call: the role's specialization block first, then the submission
// content, then optional grounding data.
func BuildRolePrompt(spec Specialization, sub types.IdeaSubmission, snapshot *grounding.Snapshot) string {
	parts := []string{
		spec.Render(),
		submissionBlock(sub),
	}
	if block := snapshotBlock(snapshot); block != "" {
		parts = append(parts, block)
	}

	parts = append(parts, `Respond with a single JSON object:
{"verdict": "...", "score": <0-100>, "commentary": "...", "dimensions": {"<dimension>": <1-10>, ...}}`)

	return strings.Join(parts, "\n")
}

// BuildJudgePrompt assembles the judge's instruction context: its
// specialization block, the submission, the verbatim bear and bull
// outputs, and optional grounding data. The judge's contract is
// reconciliation, not a fresh analysis.
func BuildJudgePrompt(spec Specialization, sub types.IdeaSubmission, bear, bull types.RoleAnalysis, snapshot *grounding.Snapshot) string {
	var b strings.Builder

	b.WriteString(spec.Render())
	b.WriteString("\n")
	b.WriteString(submissionBlock(sub))
	b.WriteString("\n")

	b.WriteString("## Bear analysis (verbatim)\n")
	b.WriteString(renderRoleAnalysis(bear))
	b.WriteString("\n## Bull analysis (verbatim)\n")
	b.WriteString(renderRoleAnalysis(bull))

	if block := snapshotBlock(snapshot); block != "" {
		b.WriteString("\n")
		b.WriteString(block)
	}

	b.WriteString("\n")
	b.WriteString(judgeResponseContract)

	return b.String()
}

// judgeResponseContract fixes the judge's output schema, including the
// line-based structured analysis grammar the verifier parses.
const judgeResponseContract = `Respond with a single JSON object:
{
  "overall_score": <0-100>,
  "summary": {"title": "...", "one_liner": "...", "verdict": "..."},
  "technical": {"sub_score": <0-10>, "strengths": [...], "concerns": [...]},
  "tokenomics": {"sub_score": <0-10>, "strengths": [...], "concerns": [...]},
  "market": {"sub_score": <0-10>, "strengths": [...], "concerns": [...]},
  "execution": {"sub_score": <0-10>, "strengths": [...], "concerns": [...]},
  "recommendations": ["..."],
  "structured_analysis": "..."
}
The structured_analysis value must contain, for each of the four dimensions
(technical-feasibility, tokenomics, market-fit, execution-readiness), a section:
Dimension: <name>
Evidence: [evidence:<source>] <claim>
Reasoning: <one sentence>
Uncertainty: <one sentence>
Sub-score: <x>/10
followed by one final line:
Final composition: technical-feasibility <x>*0.30 + tokenomics <x>*0.20 + market-fit <x>*0.30 + execution-readiness <x>*0.20 = <total>/100 (confidence: <low|medium|high>)`

// BuildRepairPrompt re-invokes the judge with the violated checks listed
// as required fixes. Used for the single bounded repair round.
func BuildRepairPrompt(judgePrompt string, priorOutput string, issues []string) string {
	var b strings.Builder

	b.WriteString(judgePrompt)
	b.WriteString("\n## Required fixes\n")
	b.WriteString("Your previous response failed these quality checks:\n")
	for i, issue := range issues {
		fmt.Fprintf(&b, "%d. %s\n", i+1, issue)
	}
	b.WriteString("Previous response:\n")
	b.WriteString(priorOutput)
	b.WriteString("\nProduce a corrected response in the same JSON schema that resolves every listed check.\n")

	return b.String()
}

// renderRoleAnalysis renders a role output verbatim for the judge prompt.
func renderRoleAnalysis(ra types.RoleAnalysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Verdict: %s\n", ra.Verdict)
	fmt.Fprintf(&b, "Score: %.0f/100\n", ra.Score)
	fmt.Fprintf(&b, "Commentary: %s\n", ra.Commentary)
	b.WriteString("Dimension scores:\n")
	for _, dim := range sortedKeys(ra.Dimensions) {
		fmt.Fprintf(&b, "- %s: %.1f/10\n", dim, ra.Dimensions[dim])
	}

	return b.String()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
