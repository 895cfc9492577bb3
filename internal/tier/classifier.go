package tier

import (
	"fmt"

	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/stats"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

// Component weights of the agentic score
const (
	WeightPredictability = 0.30
	WeightResolutivity   = 0.25
	WeightVolume         = 0.25
	WeightDataQuality    = 0.10
	WeightSimplicity     = 0.10
)

// Scoring bands
const (
	CVBestPct   = 30.0
	CVWorstPct  = 150.0
	VolumeFloor = 100.0
	VolumeCeil  = 5000.0
	AHTFastSec  = 180.0
	AHTSlowSec  = 900.0

	// neutral score used when a component has no data behind it
	neutralScore = 5.0
)

// Decision thresholds
const (
	MinViableVolume        = 100
	InstabilityCVPct       = 120.0
	InstabilityTransferPct = 30.0
	PriorityStabilityCVPct = 50.0
	AutomateThreshold      = 8.0
	AssistThreshold        = 5.0
	AugmentThreshold       = 2.5
)

// Rule names reported in rationales
const (
	RuleInsufficientVolume = "insufficient volume"
	RuleUnstableProcess    = "unstable process"
	RuleScoreBand          = "score band"
)

// Input is the metrics tuple the classifier scores. Rates and CV are
// percentages, AHT is in seconds.
type Input struct {
	Volume       int
	ValidVolume  int
	CVPercent    float64
	TransferRate float64
	FCRReal      float64
	AHT          float64
}

// InputFromStats builds the classifier input from a queue or group aggregate
func InputFromStats(s types.QueueStats) Input {
	return Input{
		Volume:       s.TotalVolume,
		ValidVolume:  s.ValidVolume,
		CVPercent:    s.AHTCV,
		TransferRate: s.TransferRate,
		FCRReal:      s.FCRReal,
		AHT:          s.AHT,
	}
}

// Breakdown computes the five 0-10 score components
func Breakdown(in Input) types.ScoreBreakdown {
	var b types.ScoreBreakdown

	// Fewer than two valid samples leave CV and AHT without meaning
	if in.ValidVolume >= 2 {
		b.Predictability = stats.ClampedLinearScore(in.CVPercent, CVBestPct, CVWorstPct, true)
	} else {
		b.Predictability = neutralScore
	}
	if in.ValidVolume > 0 {
		b.Simplicity = stats.ClampedLinearScore(in.AHT, AHTFastSec, AHTSlowSec, true)
	} else {
		b.Simplicity = neutralScore
	}

	fcrScore := stats.Clamp(in.FCRReal/10, 0, 10)
	transferScore := stats.Clamp((100-in.TransferRate)/10, 0, 10)
	b.Resolutivity = 0.6*fcrScore + 0.4*transferScore

	b.Volume = stats.ClampedLinearScore(float64(in.Volume), VolumeFloor, VolumeCeil, false)
	b.DataQuality = stats.Clamp(stats.SafeDiv(float64(in.ValidVolume), float64(in.Volume))*10, 0, 10)

	return b
}

// Score returns the weighted sum of a breakdown, in [0,10]
func Score(b types.ScoreBreakdown) float64 {
	s := b.Predictability*WeightPredictability +
		b.Resolutivity*WeightResolutivity +
		b.Volume*WeightVolume +
		b.DataQuality*WeightDataQuality +
		b.Simplicity*WeightSimplicity
	return stats.Clamp(s, 0, 10)
}

// Classify scores the input and applies the tier rules in order:
// minimum volume, instability, then score bands.
func Classify(in Input) types.Classification {
	b := Breakdown(in)
	score := Score(b)

	c := types.Classification{
		AgenticScore: stats.Round(score, 2),
		Breakdown:    b,
	}

	switch {
	case in.Volume < MinViableVolume:
		c.Tier = types.TierHumanOnly
		c.TierRationale = fmt.Sprintf("%s: %d interactions, minimum is %d",
			RuleInsufficientVolume, in.Volume, MinViableVolume)

	case in.CVPercent > InstabilityCVPct || in.TransferRate > InstabilityTransferPct:
		c.Tier = types.TierHumanOnly
		c.TierRationale = fmt.Sprintf("%s: AHT CV %.1f%% (limit %.0f%%), transfer rate %.1f%% (limit %.0f%%)",
			RuleUnstableProcess, in.CVPercent, InstabilityCVPct, in.TransferRate, InstabilityTransferPct)

	default:
		// bands apply to the unrounded score, AgenticScore is for display
		c.Tier = tierForScore(score)
		c.TierRationale = fmt.Sprintf("%s: score %.3f maps to %s", RuleScoreBand, score, c.Tier)
	}

	c.PriorityCandidate = c.Tier == types.TierAutomate && in.CVPercent < PriorityStabilityCVPct
	return c
}

func tierForScore(score float64) types.Tier {
	switch {
	case score >= AutomateThreshold:
		return types.TierAutomate
	case score >= AssistThreshold:
		return types.TierAssist
	case score >= AugmentThreshold:
		return types.TierAugment
	default:
		return types.TierHumanOnly
	}
}
