package queuemetrics

import (
	"sort"

	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/stats"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/tier"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

// ProductivityFactor is the share of paid time agents spend handling contacts.
// Every cost figure in the model is divided by it.
const ProductivityFactor = 0.70

// DefaultCostPerHour is the fully loaded agent cost used when none is configured
const DefaultCostPerHour = 20.0

// Params carries the run-level inputs of the calculation
type Params struct {
	CostPerHour  float64
	PeriodMonths int
	Segments     *types.SegmentMapping
}

func (p Params) costPerSecond() float64 {
	rate := p.CostPerHour
	if rate <= 0 {
		rate = DefaultCostPerHour
	}
	return rate / 3600
}

// AnnualizationFactor converts a period figure into a twelve month figure
func (p Params) AnnualizationFactor() float64 {
	months := p.PeriodMonths
	if months < 1 {
		months = 1
	}
	return 12 / float64(months)
}

// Compute builds the metrics of one operational queue from its interactions.
// The skill group is taken from the first interaction.
func Compute(queueID string, interactions []types.Interaction, p Params) types.OperationalQueueMetrics {
	m := types.OperationalQueueMetrics{QueueID: queueID}
	if len(interactions) > 0 {
		m.SkillGroupID = interactions[0].SkillGroupID
	}

	m.QueueStats = computeStats(interactions, p)
	m.Segment = p.Segments.Classify(queueID)
	m.Classification = tier.Classify(tier.InputFromStats(m.QueueStats))
	return m
}

// ComputeAll groups interactions by queue and computes each queue, sorted by id
func ComputeAll(interactions []types.Interaction, p Params) []types.OperationalQueueMetrics {
	byQueue := make(map[string][]types.Interaction)
	for _, it := range interactions {
		id := it.QueueID
		if id == "" {
			id = it.SkillGroupID
		}
		byQueue[id] = append(byQueue[id], it)
	}

	ids := make([]string, 0, len(byQueue))
	for id := range byQueue {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]types.OperationalQueueMetrics, 0, len(ids))
	for _, id := range ids {
		out = append(out, Compute(id, byQueue[id], p))
	}
	return out
}

// ComputeStats is the metric computation over any interaction subset,
// without classification. Skill-group totals computed this way must agree
// with the aggregator's rollup.
func ComputeStats(interactions []types.Interaction, p Params) types.QueueStats {
	return computeStats(interactions, p)
}

func computeStats(interactions []types.Interaction, p Params) types.QueueStats {
	var s types.QueueStats

	var (
		handle    []float64
		holdSum   float64
		transfers int
		resolved  int
		repeats   int
	)

	for _, it := range interactions {
		s.TotalVolume++
		if it.Abandoned || it.Status == types.StatusAbandon {
			s.AbandonedVolume++
		}
		if !it.IsValid() {
			continue
		}

		ht := it.HandleTime()
		handle = append(handle, ht)
		s.AHTMoments.N++
		s.AHTMoments.Sum += ht
		s.AHTMoments.SumSq += ht * ht
		holdSum += it.HoldTime

		if it.Transferred {
			transfers++
		}
		if it.Resolved() {
			resolved++
		}
		if it.RepeatContact7d != nil && *it.RepeatContact7d {
			repeats++
		}
	}

	s.ValidVolume = len(handle)
	s.CostVolume = s.TotalVolume - s.AbandonedVolume

	valid := float64(s.ValidVolume)
	s.AHT = stats.Mean(handle)
	s.AHTCV = stats.CoefficientOfVariation(handle) * 100
	s.AHTDistribution = Distribution(handle)
	s.HoldTimeMean = stats.SafeDiv(holdSum, valid)

	s.TransferRate = clampPct(stats.SafeDiv(float64(transfers), valid) * 100)
	s.FCRTechnical = clampPct(100 - s.TransferRate)
	if s.ValidVolume > 0 {
		s.FCRReal = clampPct(stats.SafeDiv(float64(resolved), valid) * 100)
	}
	s.RepeatRate7d = clampPct(stats.SafeDiv(float64(repeats), valid) * 100)
	s.AbandonmentRate = clampPct(stats.SafeDiv(float64(s.AbandonedVolume), float64(s.TotalVolume)) * 100)

	ApplyCost(&s, p)
	return s
}

// ApplyCost fills period cost, annual cost and CPI from cost volume and AHT
func ApplyCost(s *types.QueueStats, p Params) {
	s.PeriodCost = float64(s.CostVolume) * s.AHT * p.costPerSecond() / ProductivityFactor
	s.AnnualCost = s.PeriodCost * p.AnnualizationFactor()
	s.CPI = stats.SafeDiv(s.PeriodCost, float64(s.CostVolume))
}

// Distribution returns P10/P50/P90 of handle times and the P90/P50 ratio
func Distribution(handle []float64) types.AHTDistribution {
	d := types.AHTDistribution{
		P10: stats.Percentile(handle, 10),
		P50: stats.Percentile(handle, 50),
		P90: stats.Percentile(handle, 90),
	}
	d.P90P50Ratio = stats.SafeDiv(d.P90, d.P50)
	return d
}

// HandleTimes returns the handle times of the valid interactions
func HandleTimes(interactions []types.Interaction) []float64 {
	out := make([]float64, 0, len(interactions))
	for _, it := range interactions {
		if it.IsValid() {
			out = append(out, it.HandleTime())
		}
	}
	return out
}

func clampPct(v float64) float64 {
	return stats.Clamp(v, 0, 100)
}
