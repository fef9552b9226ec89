package committee

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prediktfi/idea-committee/internal/types"
)

var allRoles = []types.CommitteeRole{types.RoleBear, types.RoleBull, types.RoleJudge}

// Every (role, domain) pair must produce a non-empty dimension list, a
// domain emphasis string, and a populated routing trace.
func TestBuildSpecializationCoversEveryRoleDomainPair(t *testing.T) {
	for _, role := range allRoles {
		for _, domain := range types.AllDomains {
			t.Run(fmt.Sprintf("%s/%s", role, domain), func(t *testing.T) {
				spec := BuildSpecialization(role, domain, "some project")

				require.NotEmpty(t, spec.Dimensions)
				assert.NotEmpty(t, spec.Emphasis)
				assert.NotEmpty(t, spec.Title)
				assert.Equal(t, role, spec.Role)
				assert.Equal(t, domain, spec.Trace.Domain)
				assert.NotEmpty(t, spec.Trace.RubricProfile)
				assert.Equal(t, "some project", spec.Trace.NormalizedProjectType)
			})
		}
	}
}

func TestBuildSpecializationDimensionMerge(t *testing.T) {
	spec := BuildSpecialization(types.RoleBear, types.DomainMeme, "meme coin")

	// Base dimensions lead, overlay follows, no duplicates.
	require.Greater(t, len(spec.Dimensions), 5)
	assert.Equal(t, "execution-risk", spec.Dimensions[0])
	assert.Contains(t, spec.Dimensions, "community-virality")
	assert.Contains(t, spec.Dimensions, "liquidity-plan")

	seen := make(map[string]int)
	for _, d := range spec.Dimensions {
		seen[d]++
	}
	for d, count := range seen {
		assert.Equal(t, 1, count, "dimension %q duplicated", d)
	}
}

func TestBuildSpecializationOtherDomainHasNoOverlay(t *testing.T) {
	base := BuildSpecialization(types.RoleBull, types.DomainOther, "")
	assert.Len(t, base.Dimensions, 5)
}

func TestRoleWeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, role := range allRoles {
		w := RoleWeight(role)
		assert.Greater(t, w, 0.0)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestRoleWeights(t *testing.T) {
	assert.Equal(t, 0.3, RoleWeight(types.RoleBear))
	assert.Equal(t, 0.3, RoleWeight(types.RoleBull))
	assert.Equal(t, 0.4, RoleWeight(types.RoleJudge))
}

func TestSpecializationRenderIsDeterministic(t *testing.T) {
	first := BuildSpecialization(types.RoleJudge, types.DomainDeFi, "Lending Protocol").Render()
	for i := 0; i < 20; i++ {
		again := BuildSpecialization(types.RoleJudge, types.DomainDeFi, "Lending Protocol").Render()
		assert.Equal(t, first, again)
	}
}

func TestSpecializationRenderContent(t *testing.T) {
	spec := BuildSpecialization(types.RoleJudge, types.DomainMeme, "meme coin")
	rendered := spec.Render()

	assert.Contains(t, rendered, "Judge Synthesizer")
	assert.Contains(t, rendered, "Domain emphasis: "+spec.Emphasis)
	assert.Contains(t, rendered, "rubric=meme-asset")
	for _, d := range spec.Dimensions {
		assert.Contains(t, rendered, "- "+d)
	}
	assert.True(t, strings.Contains(rendered, "Execution instructions:"))
}
