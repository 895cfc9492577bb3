package types

import "strings"

// SegmentMapping assigns queues to value segments by case-insensitive
// substring match, checked high, then medium, then low.
type SegmentMapping struct {
	High   []string `json:"high"`
	Medium []string `json:"medium"`
	Low    []string `json:"low"`
}

// AnalysisOptions are the options a run recognizes
type AnalysisOptions struct {
	CostPerHour float64         `json:"cost_per_hour"`
	AvgCSAT     *float64        `json:"avg_csat,omitempty"`
	Segments    *SegmentMapping `json:"segments,omitempty"`
}

// Classify returns the segment of a queue name, SegmentNone when nothing matches
func (m *SegmentMapping) Classify(name string) Segment {
	if m == nil {
		return SegmentNone
	}
	lower := strings.ToLower(name)
	match := func(patterns []string) bool {
		for _, p := range patterns {
			p = strings.ToLower(strings.TrimSpace(p))
			if p != "" && strings.Contains(lower, p) {
				return true
			}
		}
		return false
	}
	switch {
	case match(m.High):
		return SegmentHigh
	case match(m.Medium):
		return SegmentMedium
	case match(m.Low):
		return SegmentLow
	}
	return SegmentNone
}
