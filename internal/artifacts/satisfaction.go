package artifacts

import (
	"sort"

	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/stats"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

// correlationBand is the |r| above which a correlation is reported as a
// direction
const correlationBand = 0.3

// BuildSatisfaction summarizes the survey columns. AHT here is the handle
// time of each surveyed interaction.
func BuildSatisfaction(interactions []types.Interaction) types.SatisfactionExperience {
	var (
		se        types.SatisfactionExperience
		csat, aht []float64
	)
	skillCSAT := make(map[string][]float64)
	skillAHT := make(map[string][]float64)
	csatMatrix, npsMatrix, cesMatrix := newMatrixAcc(), newMatrixAcc(), newMatrixAcc()

	for _, it := range interactions {
		if it.CSAT != nil {
			csat = append(csat, *it.CSAT)
			aht = append(aht, it.HandleTime())
			skillCSAT[it.SkillGroupID] = append(skillCSAT[it.SkillGroupID], *it.CSAT)
			skillAHT[it.SkillGroupID] = append(skillAHT[it.SkillGroupID], it.HandleTime())
			csatMatrix.add(it, *it.CSAT)
		}
		if it.NPS != nil {
			npsMatrix.add(it, *it.NPS)
		}
		if it.CES != nil {
			cesMatrix.add(it, *it.CES)
		}
	}

	se.CSATBySkillChannel = csatMatrix.means()
	se.NPSBySkillChannel = npsMatrix.means()
	se.CESBySkillChannel = cesMatrix.means()
	se.CSATAHTCorrelation = correlate(aht, csat)

	if len(csat) == 0 {
		return se
	}
	global := stats.Round(stats.Mean(csat), 2)
	se.CSATGlobal = &global

	ahtP40, ahtP60 := stats.Percentile(aht, 40), stats.Percentile(aht, 60)
	csatP40, csatP60 := stats.Percentile(csat, 40), stats.Percentile(csat, 60)
	for id, scores := range skillCSAT {
		row := types.CSATAHTSkill{
			SkillGroupID:   id,
			CSATAvg:        stats.Mean(scores),
			AHTAvg:         stats.Mean(skillAHT[id]),
			Classification: types.SweetSpotNeutral,
		}
		switch {
		case row.AHTAvg <= ahtP40 && row.CSATAvg >= csatP60:
			row.Classification = types.SweetSpotAutomate
		case row.AHTAvg >= ahtP60 && row.CSATAvg >= csatP40:
			row.Classification = types.SweetSpotNeedsHuman
		}
		row.CSATAvg = stats.Round(row.CSATAvg, 2)
		row.AHTAvg = stats.Round(row.AHTAvg, 2)
		se.CSATAHTSkills = append(se.CSATAHTSkills, row)
	}
	sort.Slice(se.CSATAHTSkills, func(i, j int) bool {
		return se.CSATAHTSkills[i].SkillGroupID < se.CSATAHTSkills[j].SkillGroupID
	})
	return se
}

func correlate(aht, csat []float64) types.Correlation {
	c := types.Correlation{N: len(csat)}
	switch {
	case len(csat) == 0:
		c.Interpretation = types.CorrelationNoData
		return c
	case len(csat) < 2:
		c.Interpretation = types.CorrelationInsufficient
		return c
	}

	r, ok := stats.Pearson(aht, csat)
	if !ok {
		c.Interpretation = types.CorrelationNoVariance
		return c
	}
	switch {
	case r < -correlationBand:
		c.Interpretation = types.CorrelationNegative
	case r > correlationBand:
		c.Interpretation = types.CorrelationPositive
	default:
		c.Interpretation = types.CorrelationNeutral
	}
	r = stats.Round(r, 3)
	c.R = &r
	return c
}

type cellAcc struct {
	sum float64
	n   int
}

// matrixAcc accumulates score sums per skill group and channel
type matrixAcc map[string]map[types.Channel]*cellAcc

func newMatrixAcc() matrixAcc {
	return make(matrixAcc)
}

func (m matrixAcc) add(it types.Interaction, score float64) {
	row := m[it.SkillGroupID]
	if row == nil {
		row = make(map[types.Channel]*cellAcc)
		m[it.SkillGroupID] = row
	}
	cell := row[it.Channel]
	if cell == nil {
		cell = &cellAcc{}
		row[it.Channel] = cell
	}
	cell.sum += score
	cell.n++
}

func (m matrixAcc) means() types.ScoreMatrix {
	if len(m) == 0 {
		return nil
	}
	out := make(types.ScoreMatrix, len(m))
	for skill, row := range m {
		out[skill] = make(map[types.Channel]float64, len(row))
		for ch, cell := range row {
			out[skill][ch] = stats.Round(cell.sum/float64(cell.n), 2)
		}
	}
	return out
}
