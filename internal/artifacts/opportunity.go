package artifacts

import (
	"sort"

	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/stats"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

const (
	// ownCostSavingsShare applies when no global savings total is known
	ownCostSavingsShare = 0.20

	minRating = 3.0
	maxRating = 10.0
)

// OpportunityWeight ranks a group by cost, unresolved share and readiness.
// readiness is 0-100.
func OpportunityWeight(annualCost, fcr, readiness float64) float64 {
	fcr = stats.Clamp(fcr, 0, 100)
	readiness = stats.Clamp(readiness, 0, 100)
	return annualCost * (1 + (100-fcr)/100) * (0.3 + 0.7*readiness/100)
}

// EstimateOpportunities projects savings per skill group. When totalSavings
// is known it is distributed by weight; otherwise each group saves a fixed
// share of its own annual cost. Output is sorted by savings, then id.
func EstimateOpportunities(groups []types.SkillGroupMetrics, totalSavings *float64) []types.Opportunity {
	opps := make([]types.Opportunity, 0, len(groups))
	weightSum := 0.0

	for _, g := range groups {
		readiness := stats.Clamp(g.AgenticScore*10, 0, 100)
		w := OpportunityWeight(g.AnnualCost, g.FCRReal, readiness)
		weightSum += w
		opps = append(opps, types.Opportunity{
			SkillGroupID: g.SkillGroupID,
			Tier:         g.Tier,
			Readiness:    readiness,
			Weight:       w,
		})
	}

	maxSavings := 0.0
	for i := range opps {
		if totalSavings != nil && *totalSavings > 0 {
			opps[i].Savings = *totalSavings * stats.SafeDiv(opps[i].Weight, weightSum)
		} else {
			opps[i].Savings = groups[i].AnnualCost * ownCostSavingsShare
		}
		if opps[i].Savings > maxSavings {
			maxSavings = opps[i].Savings
		}
	}

	for i := range opps {
		norm := stats.SafeDiv(opps[i].Savings, maxSavings)
		opps[i].Impact = stats.Clamp(minRating+(maxRating-minRating)*norm, minRating, maxRating)
		opps[i].Feasibility = stats.Clamp(opps[i].Readiness/10, minRating, maxRating)
	}

	sort.SliceStable(opps, func(i, j int) bool {
		if opps[i].Savings != opps[j].Savings {
			return opps[i].Savings > opps[j].Savings
		}
		return opps[i].SkillGroupID < opps[j].SkillGroupID
	})
	return opps
}
