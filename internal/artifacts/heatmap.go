package artifacts

import (
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/stats"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

// Heatmap normalization bands. The first bound maps to 100 unless noted.
const (
	ahtBestSec       = 240.0
	ahtWorstSec      = 550.0
	fcrFloorPct      = 50.0 // maps to 0
	fcrCeilPct       = 95.0 // maps to 100
	transferBestPct  = 5.0
	transferWorstPct = 40.0
	cvBestPct        = 30.0
	cvWorstPct       = 150.0
)

// band maps value onto 0-100 using the kernel's clamped linear score
func band(value, lo, hi float64, invert bool) float64 {
	return stats.ClampedLinearScore(value, lo, hi, invert) * 10
}

// BuildHeatmap derives one cell per skill group
func BuildHeatmap(groups []types.SkillGroupMetrics) []types.HeatmapCell {
	cells := make([]types.HeatmapCell, 0, len(groups))
	for _, g := range groups {
		cell := types.HeatmapCell{
			SkillGroupID:     g.SkillGroupID,
			Volume:           g.TotalVolume,
			ValidVolume:      g.ValidVolume,
			CostVolume:       g.CostVolume,
			AHT:              g.AHT,
			FCR:              g.FCRReal,
			AHTScore:         band(g.AHT, ahtBestSec, ahtWorstSec, true),
			FCRScore:         band(g.FCRReal, fcrFloorPct, fcrCeilPct, false),
			TransferScore:    band(g.TransferRate, transferBestPct, transferWorstPct, true),
			VariabilityScore: band(g.AHTCV, cvBestPct, cvWorstPct, true),
			Predictability:   g.Breakdown.Predictability,
			Simplicity:       g.Breakdown.Simplicity,
			Repetitivity:     g.Breakdown.Volume,
			AgenticScore:     g.AgenticScore,
			Tier:             g.Tier,
			AnnualCost:       g.AnnualCost,
			Segment:          g.Segment,
		}
		if g.CostVolume > 0 && g.PeriodCost > 0 {
			cell.CPI = g.PeriodCost / float64(g.CostVolume)
			cell.HasCPI = true
		}
		cells = append(cells, cell)
	}
	return cells
}

// Summarize computes the headline KPIs from the heatmap. GlobalCPI is the
// cost-volume weighted CPI of the cells that have one. AHT and FCR are
// computed over valid records, so they are weighted by valid volume.
func Summarize(cells []types.HeatmapCell, avgCSAT *float64) types.SummaryKPIs {
	var (
		s                    types.SummaryKPIs
		cpiNum, cpiDen       float64
		ahtNum, fcrNum, wSum float64
	)

	for _, c := range cells {
		s.TotalVolume += c.Volume
		s.AnnualCost += c.AnnualCost
		if c.HasCPI {
			cpiNum += c.CPI * float64(c.CostVolume)
			cpiDen += float64(c.CostVolume)
		}
		w := float64(c.ValidVolume)
		ahtNum += c.AHT * w
		fcrNum += c.FCR * w
		wSum += w
	}

	s.GlobalCPI = stats.SafeDiv(cpiNum, cpiDen)
	s.GlobalAHT = stats.SafeDiv(ahtNum, wSum)
	s.GlobalFCR = stats.Clamp(stats.SafeDiv(fcrNum, wSum), 0, 100)
	if avgCSAT != nil {
		v := stats.Clamp(*avgCSAT, 0, 100)
		s.AvgCSAT = &v
	}
	return s
}
