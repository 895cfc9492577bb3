package aggregator

import (
	"sort"

	"github.com/rs/zerolog"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/stats"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/tier"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

// Aggregator rolls operational queues up into skill groups
type Aggregator struct {
	logger zerolog.Logger
}

// NewAggregator creates a new aggregator
func NewAggregator(logger zerolog.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Rollup groups queues by skill group and combines each group. Groups are
// returned sorted by id.
func (a *Aggregator) Rollup(queues []types.OperationalQueueMetrics) []types.SkillGroupMetrics {
	byGroup := make(map[string][]types.OperationalQueueMetrics)
	for _, q := range queues {
		byGroup[q.SkillGroupID] = append(byGroup[q.SkillGroupID], q)
	}

	ids := make([]string, 0, len(byGroup))
	for id := range byGroup {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	groups := make([]types.SkillGroupMetrics, 0, len(ids))
	for _, id := range ids {
		g := Combine(id, byGroup[id])

		a.logger.Debug().
			Str("skill_group", id).
			Int("queues", len(g.Queues)).
			Int("volume", g.TotalVolume).
			Str("tier", string(g.Tier)).
			Float64("score", g.AgenticScore).
			Msg("skill group rolled up")

		groups = append(groups, g)
	}
	return groups
}

// Combine builds one skill group from its child queues. Rates are averaged
// with the volume each rate was measured over (valid volume, or total volume
// for abandonment), so the result matches a direct computation over the
// union of the underlying interactions.
func Combine(skillGroupID string, children []types.OperationalQueueMetrics) types.SkillGroupMetrics {
	g := types.SkillGroupMetrics{
		SkillGroupID: skillGroupID,
		Queues:       make([]types.OperationalQueueMetrics, len(children)),
	}
	copy(g.Queues, children)

	g.QueueStats = CombineStats(statsOf(children))
	g.Segment = dominantSegment(children)
	g.Classification = tier.Classify(tier.InputFromStats(g.QueueStats))

	// Group priority is the OR of its children
	g.PriorityCandidate = false
	for _, c := range children {
		if c.PriorityCandidate {
			g.PriorityCandidate = true
			break
		}
	}
	return g
}

// CombineStats merges metric aggregates using volume weights
func CombineStats(children []types.QueueStats) types.QueueStats {
	var s types.QueueStats

	n := len(children)
	validW := make([]float64, n)
	totalW := make([]float64, n)
	aht := make([]float64, n)
	cv := make([]float64, n)
	transfer := make([]float64, n)
	fcrReal := make([]float64, n)
	fcrTech := make([]float64, n)
	hold := make([]float64, n)
	repeat := make([]float64, n)
	abandon := make([]float64, n)
	p10 := make([]float64, n)
	p50 := make([]float64, n)
	p90 := make([]float64, n)

	estimated := make(map[string]bool)

	for i, c := range children {
		s.TotalVolume += c.TotalVolume
		s.ValidVolume += c.ValidVolume
		s.AbandonedVolume += c.AbandonedVolume
		s.CostVolume += c.CostVolume
		s.AHTMoments = s.AHTMoments.Add(c.AHTMoments)
		s.PeriodCost += c.PeriodCost
		s.AnnualCost += c.AnnualCost

		validW[i] = float64(c.ValidVolume)
		totalW[i] = float64(c.TotalVolume)
		aht[i] = c.AHT
		cv[i] = c.AHTCV
		transfer[i] = c.TransferRate
		fcrReal[i] = c.FCRReal
		fcrTech[i] = c.FCRTechnical
		hold[i] = c.HoldTimeMean
		repeat[i] = c.RepeatRate7d
		abandon[i] = c.AbandonmentRate
		p10[i] = c.AHTDistribution.P10
		p50[i] = c.AHTDistribution.P50
		p90[i] = c.AHTDistribution.P90

		for _, f := range c.EstimatedFields {
			estimated[f] = true
		}
	}

	s.AHT = stats.WeightedMean(aht, validW)
	// Pool moments when every child carries them; reconciled entities built
	// from coarse aggregates do not.
	if s.AHTMoments.N > 0 && s.AHTMoments.N == s.ValidVolume {
		s.AHTCV = stats.CVFromMoments(s.AHTMoments.N, s.AHTMoments.Sum, s.AHTMoments.SumSq) * 100
	} else {
		s.AHTCV = stats.WeightedMean(cv, validW)
	}
	s.TransferRate = stats.WeightedMean(transfer, validW)
	s.FCRReal = stats.WeightedMean(fcrReal, validW)
	s.FCRTechnical = stats.WeightedMean(fcrTech, validW)
	s.HoldTimeMean = stats.WeightedMean(hold, validW)
	s.RepeatRate7d = stats.WeightedMean(repeat, validW)
	s.AbandonmentRate = stats.WeightedMean(abandon, totalW)
	s.AHTDistribution = types.AHTDistribution{
		P10: stats.WeightedMean(p10, validW),
		P50: stats.WeightedMean(p50, validW),
		P90: stats.WeightedMean(p90, validW),
	}
	s.AHTDistribution.P90P50Ratio = stats.SafeDiv(s.AHTDistribution.P90, s.AHTDistribution.P50)
	s.CPI = stats.SafeDiv(s.PeriodCost, float64(s.CostVolume))

	if len(estimated) > 0 {
		s.EstimatedFields = make([]string, 0, len(estimated))
		for f := range estimated {
			s.EstimatedFields = append(s.EstimatedFields, f)
		}
		sort.Strings(s.EstimatedFields)
	}
	return s
}

func statsOf(children []types.OperationalQueueMetrics) []types.QueueStats {
	out := make([]types.QueueStats, len(children))
	for i, c := range children {
		out[i] = c.QueueStats
	}
	return out
}

// dominantSegment returns the segment carrying the most volume
func dominantSegment(children []types.OperationalQueueMetrics) types.Segment {
	volume := make(map[types.Segment]int)
	for _, c := range children {
		volume[c.Segment] += c.TotalVolume
	}
	best := types.SegmentNone
	bestVol := -1
	for _, seg := range []types.Segment{types.SegmentHigh, types.SegmentMedium, types.SegmentLow, types.SegmentNone} {
		if v, ok := volume[seg]; ok && v > bestVol {
			best, bestVol = seg, v
		}
	}
	return best
}
