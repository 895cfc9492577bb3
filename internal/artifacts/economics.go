package artifacts

import (
	"math"

	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/queuemetrics"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/stats"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

const (
	// DiscountRate is the fixed annual rate used for NPV
	DiscountRate = 0.10
	horizonYears = 3

	// share of the P90-P50 gap treated as recoverable waste
	inefficiencyShare = 0.4
)

// EconomyParams are the cost assumptions of the economic model
type EconomyParams struct {
	Cost            queuemetrics.Params
	OverheadRate    float64
	TechCostsAnnual float64
}

// DefaultEconomyParams mirrors the defaults of the external analysis service
func DefaultEconomyParams(cost queuemetrics.Params) EconomyParams {
	return EconomyParams{Cost: cost, OverheadRate: 0.10, TechCostsAnnual: 5000}
}

// PaybackMonths returns ceil(investment/savings*12), 0 without savings
func PaybackMonths(investment, annualSavings float64) int {
	if annualSavings <= 0 || investment <= 0 {
		return 0
	}
	return int(math.Ceil(investment / annualSavings * 12))
}

// ROI3Year returns the three year return on investment in percent
func ROI3Year(investment, annualSavings float64) float64 {
	if investment <= 0 {
		return 0
	}
	return (annualSavings*horizonYears - investment) / investment * 100
}

// NPV discounts three years of savings at DiscountRate
func NPV(investment, annualSavings float64) float64 {
	npv := -investment
	for t := 1; t <= horizonYears; t++ {
		npv += annualSavings / math.Pow(1+DiscountRate, float64(t))
	}
	return npv
}

// BuildEconomicModel projects costs and returns of the roadmap. Savings only
// count what the roadmap phases deliver, HUMAN-ONLY groups stay out.
func BuildEconomicModel(groups []types.SkillGroupMetrics, roadmap []types.RoadmapInitiative, p EconomyParams) types.EconomicModel {
	m := types.EconomicModel{
		CostBySkillGroup: make(map[string]float64, len(groups)),
		SavingsByPhase:   make(map[types.RoadmapPhase]float64, len(roadmap)),
	}

	for _, g := range groups {
		m.CurrentAnnualCost += g.AnnualCost
		m.CostBySkillGroup[g.SkillGroupID] = g.AnnualCost
		m.InefficiencyCost += InefficiencyCost(g.QueueStats, p.Cost)
	}
	for _, r := range roadmap {
		m.AnnualSavings += r.Savings
		m.Investment += r.Investment
		m.SavingsByPhase[r.Phase] += r.Savings
	}

	m.AnnualSavings = stats.Clamp(m.AnnualSavings, 0, m.CurrentAnnualCost)
	m.FutureAnnualCost = m.CurrentAnnualCost - m.AnnualSavings
	m.PaybackMonths = PaybackMonths(m.Investment, m.AnnualSavings)
	m.ROI3Year = ROI3Year(m.Investment, m.AnnualSavings)
	m.NPV = NPV(m.Investment, m.AnnualSavings)
	m.CostBreakdown = BreakdownCost(m.CurrentAnnualCost, p)
	return m
}

// InefficiencyCost is the annual cost of handle time above the median
func InefficiencyCost(s types.QueueStats, cost queuemetrics.Params) float64 {
	gap := s.AHTDistribution.P90 - s.AHTDistribution.P50
	if gap <= 0 {
		return 0
	}
	rate := cost.CostPerHour
	if rate <= 0 {
		rate = queuemetrics.DefaultCostPerHour
	}
	period := gap * float64(s.CostVolume) * inefficiencyShare * rate / 3600 / queuemetrics.ProductivityFactor
	return period * cost.AnnualizationFactor()
}

// BreakdownCost splits annual labor cost into labor, overhead and technology
func BreakdownCost(laborAnnual float64, p EconomyParams) types.CostBreakdown {
	b := types.CostBreakdown{
		LaborAnnual:    laborAnnual,
		OverheadAnnual: laborAnnual * p.OverheadRate,
		TechAnnual:     p.TechCostsAnnual,
	}
	total := b.LaborAnnual + b.OverheadAnnual + b.TechAnnual
	b.LaborPct = stats.Round(stats.SafeDiv(b.LaborAnnual, total)*100, 2)
	b.OverheadPct = stats.Round(stats.SafeDiv(b.OverheadAnnual, total)*100, 2)
	b.TechPct = stats.Round(stats.SafeDiv(b.TechAnnual, total)*100, 2)
	return b
}
