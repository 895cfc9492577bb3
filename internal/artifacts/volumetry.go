package artifacts

import (
	"math"
	"sort"
	"time"

	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/stats"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

// Peak hours are 10:00 to 19:59
const (
	peakStartHour = 10
	peakEndHour   = 20
)

// BuildVolumetry describes how the batch volume is distributed
func BuildVolumetry(interactions []types.Interaction) types.Volumetry {
	v := types.Volumetry{
		VolumeByChannel:    make(map[types.Channel]int),
		ChannelSharePct:    make(map[types.Channel]float64),
		VolumeBySkillGroup: make(map[string]int),
	}

	var peak, offPeak int
	monthly := make(map[string]int)
	for _, it := range interactions {
		v.VolumeByChannel[it.Channel]++
		v.VolumeBySkillGroup[it.SkillGroupID]++
		if it.StartTime.IsZero() {
			continue
		}
		h := it.StartTime.Hour()
		if h >= peakStartHour && h < peakEndHour {
			peak++
		} else {
			offPeak++
		}
		v.Heatmap24x7[weekdayIndex(it.StartTime.Weekday())][h]++
		monthly[it.StartTime.Format("2006-01")]++
	}

	total := float64(len(interactions))
	for ch, n := range v.VolumeByChannel {
		v.ChannelSharePct[ch] = stats.Round(stats.SafeDiv(float64(n), total)*100, 2)
	}
	v.PeakOffPeakRatio = stats.Round(stats.SafeDiv(float64(peak), float64(offPeak)), 3)
	v.Top20ConcentrationPct = top20Concentration(v.VolumeBySkillGroup)
	v.MonthlySeasonalityCV = seasonalityCV(monthly)
	return v
}

// weekdayIndex numbers days from Monday
func weekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// seasonalityCV is the CV in percent of the volume per calendar month
func seasonalityCV(monthly map[string]int) *float64 {
	if len(monthly) < 2 {
		return nil
	}
	counts := make([]float64, 0, len(monthly))
	for _, n := range monthly {
		counts = append(counts, float64(n))
	}
	cv := stats.Round(stats.CoefficientOfVariation(counts)*100, 2)
	return &cv
}

// top20Concentration is the share of volume held by the largest 20% of groups
func top20Concentration(byGroup map[string]int) float64 {
	if len(byGroup) == 0 {
		return 0
	}
	counts := make([]int, 0, len(byGroup))
	total := 0
	for _, n := range byGroup {
		counts = append(counts, n)
		total += n
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))

	topN := int(math.Ceil(0.2 * float64(len(counts))))
	if topN < 1 {
		topN = 1
	}
	top := 0
	for _, n := range counts[:topN] {
		top += n
	}
	return stats.Round(stats.SafeDiv(float64(top), float64(total))*100, 2)
}
