package committee

import (
	"strings"

	"github.com/prediktfi/idea-committee/internal/types"
)

// domainKeywords maps hint substrings to domains. Order matters: earlier
// rules win, so the more specific crypto categories come before the
// generic ones.
var domainKeywords = []struct {
	keywords []string
	domain   types.ProjectDomain
}{
	{[]string{"meme", "memecoin", "dog coin", "pepe", "shitcoin"}, types.DomainMeme},
	{[]string{"defi", "dex", "lending", "yield", "amm", "staking", "liquidity", "perps", "stablecoin"}, types.DomainDeFi},
	{[]string{"ai", "ml", "agent", "llm", "machine learning", "model"}, types.DomainAI},
	{[]string{"saas", "subscription", "b2b software", "api service"}, types.DomainSaaS},
	{[]string{"consumer", "social", "marketplace", "mobile app", "creator"}, types.DomainConsumer},
	{[]string{"hardware", "device", "iot", "robotics", "wearable", "depin"}, types.DomainHardware},
}

// ClassifyDomain maps a free-text projectType hint to a ProjectDomain.
// A supplied override that names a known domain is trusted as-is. The
// function is total: any unmapped input resolves to DomainOther.
func ClassifyDomain(projectType string, override types.ProjectDomain) types.ProjectDomain {
	if override != "" {
		for _, d := range types.AllDomains {
			if override == d {
				return d
			}
		}
	}

	hint := NormalizeProjectType(projectType)
	for _, rule := range domainKeywords {
		for _, kw := range rule.keywords {
			if containsWord(hint, kw) {
				return rule.domain
			}
		}
	}

	return types.DomainOther
}

// NormalizeProjectType lowercases and collapses whitespace in a
// projectType hint, producing the form recorded in the routing trace.
func NormalizeProjectType(projectType string) string {
	return strings.Join(strings.Fields(strings.ToLower(projectType)), " ")
}

// containsWord reports whether the hint contains the keyword on a word
// boundary, so "ai" does not match inside "maintain".
func containsWord(hint, keyword string) bool {
	idx := 0
	for {
		i := strings.Index(hint[idx:], keyword)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(keyword)

		beforeOK := start == 0 || !isAlnum(hint[start-1])
		afterOK := end == len(hint) || !isAlnum(hint[end])
		if beforeOK && afterOK {
			return true
		}

		idx = start + 1
		if idx >= len(hint) {
			return false
		}
	}
}

func isAlnum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
