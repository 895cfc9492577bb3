package ingestion

import (
	"fmt"
	"sort"

	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

// minValidShare below this share of valid records the batch is flagged
const minValidShare = 0.5

// Stats summarizes an ingested batch
type Stats struct {
	Records      int                        `json:"records"`
	ValidRecords int                        `json:"valid_records"`
	Skills       []string                   `json:"skills"`
	StatusCounts map[types.RecordStatus]int `json:"status_counts"`
	DateRange    types.DateRange            `json:"date_range"`
}

// ValidationReport is the outcome of Validate. Valid is false only when the
// batch cannot feed the metrics pass at all; everything else is a warning.
type ValidationReport struct {
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings,omitempty"`
	Stats    Stats    `json:"stats"`
}

// Validate checks a parsed batch before it reaches the metrics pass
func Validate(interactions []types.Interaction) ValidationReport {
	report := ValidationReport{
		Stats: Stats{
			Records:      len(interactions),
			StatusCounts: make(map[types.RecordStatus]int),
		},
	}
	if len(interactions) == 0 {
		report.Warnings = append(report.Warnings, "no interactions")
		return report
	}

	skills := make(map[string]bool)
	var missingSkill, missingStart, negative int
	for _, it := range interactions {
		report.Stats.StatusCounts[it.Status]++
		if it.IsValid() {
			report.Stats.ValidRecords++
		}

		if it.SkillGroupID == "" {
			missingSkill++
		} else {
			skills[it.SkillGroupID] = true
		}

		if it.StartTime.IsZero() {
			missingStart++
		} else {
			r := &report.Stats.DateRange
			if r.From.IsZero() || it.StartTime.Before(r.From) {
				r.From = it.StartTime
			}
			if it.StartTime.After(r.To) {
				r.To = it.StartTime
			}
		}

		if it.TalkTime < 0 || it.HoldTime < 0 || it.WrapTime < 0 {
			negative++
		}
	}

	for s := range skills {
		report.Stats.Skills = append(report.Stats.Skills, s)
	}
	sort.Strings(report.Stats.Skills)

	if missingSkill > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%d records without a skill group", missingSkill))
	}
	if missingStart > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%d records with an unparseable start time", missingStart))
	}
	if negative > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%d records with negative durations", negative))
	}
	if report.Stats.ValidRecords == 0 {
		report.Warnings = append(report.Warnings, "no valid records")
	} else if share := float64(report.Stats.ValidRecords) / float64(len(interactions)); share < minValidShare {
		report.Warnings = append(report.Warnings, fmt.Sprintf("only %.0f%% of records are valid", share*100))
	}

	report.Valid = len(skills) > 0
	return report
}
