package artifacts

import (
	"fmt"

	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

type phaseDef struct {
	phase          types.RoadmapPhase
	tier           types.Tier
	startMonth     int
	endMonth       int
	investmentRate float64
	resources      []string
}

// phases are ordered; HUMAN-ONLY groups never enter the roadmap
var phases = []phaseDef{
	{
		phase:          types.PhaseAutomate,
		tier:           types.TierAutomate,
		startMonth:     0,
		endMonth:       6,
		investmentRate: 0.40,
		resources:      []string{"conversational AI engineer", "process analyst", "QA lead"},
	},
	{
		phase:          types.PhaseAssist,
		tier:           types.TierAssist,
		startMonth:     6,
		endMonth:       12,
		investmentRate: 0.30,
		resources:      []string{"agent-assist developer", "knowledge manager", "team lead"},
	},
	{
		phase:          types.PhaseAugment,
		tier:           types.TierAugment,
		startMonth:     12,
		endMonth:       18,
		investmentRate: 0.20,
		resources:      []string{"data analyst", "trainer", "workforce planner"},
	},
}

// BuildRoadmap groups opportunities by tier into the three phases. Phases
// without opportunities are omitted.
func BuildRoadmap(opps []types.Opportunity) []types.RoadmapInitiative {
	roadmap := make([]types.RoadmapInitiative, 0, len(phases))

	for _, def := range phases {
		item := types.RoadmapInitiative{
			Phase:      def.phase,
			Tier:       def.tier,
			Timeline:   timeline(def.startMonth, def.endMonth),
			StartMonth: def.startMonth,
			EndMonth:   def.endMonth,
			Resources:  append([]string(nil), def.resources...),
		}
		for _, o := range opps {
			if o.Tier != def.tier {
				continue
			}
			item.SkillGroupIDs = append(item.SkillGroupIDs, o.SkillGroupID)
			item.Savings += o.Savings
		}
		if len(item.SkillGroupIDs) == 0 {
			continue
		}
		item.Investment = item.Savings * def.investmentRate
		roadmap = append(roadmap, item)
	}
	return roadmap
}

func timeline(start, end int) string {
	return fmt.Sprintf("%d-%d months", start, end)
}
