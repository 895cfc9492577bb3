package artifacts

import (
	"sort"

	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/stats"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

// HighHoldThresholdSec is the hold time above which an interaction counts as
// complex
const HighHoldThresholdSec = 60.0

// BuildOperational computes hold and handle time indicators over every
// record of the batch, whatever its status.
func BuildOperational(interactions []types.Interaction) types.OperationalPerformance {
	op := types.OperationalPerformance{
		HighHoldThresholdSec: HighHoldThresholdSec,
		HandleTimeP50BySkill: []types.HandleTimeP50{},
	}
	if len(interactions) == 0 {
		return op
	}

	type components struct{ talk, hold, acw []float64 }
	bySkill := make(map[string]*components)
	highHold := 0
	for _, it := range interactions {
		if it.HoldTime > HighHoldThresholdSec {
			highHold++
		}
		c := bySkill[it.SkillGroupID]
		if c == nil {
			c = &components{}
			bySkill[it.SkillGroupID] = c
		}
		c.talk = append(c.talk, it.TalkTime)
		c.hold = append(c.hold, it.HoldTime)
		c.acw = append(c.acw, it.WrapTime)
	}
	op.HighHoldTimeRatePct = stats.Round(float64(highHold)/float64(len(interactions))*100, 2)

	for id, c := range bySkill {
		op.HandleTimeP50BySkill = append(op.HandleTimeP50BySkill, types.HandleTimeP50{
			SkillGroupID: id,
			TalkP50:      stats.Round(stats.Percentile(c.talk, 50), 2),
			HoldP50:      stats.Round(stats.Percentile(c.hold, 50), 2),
			ACWP50:       stats.Round(stats.Percentile(c.acw, 50), 2),
		})
	}
	sort.Slice(op.HandleTimeP50BySkill, func(i, j int) bool {
		return op.HandleTimeP50BySkill[i].SkillGroupID < op.HandleTimeP50BySkill[j].SkillGroupID
	})
	return op
}
