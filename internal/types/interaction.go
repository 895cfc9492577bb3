package types

import "time"

// RecordStatus is the quality label the ingestor assigns to each record
type RecordStatus string

const (
	StatusValid   RecordStatus = "valid"
	StatusNoise   RecordStatus = "noise"
	StatusZombie  RecordStatus = "zombie"
	StatusAbandon RecordStatus = "abandon"
)

// ParseRecordStatus normalizes a raw status label. Unknown labels map to valid.
func ParseRecordStatus(s string) RecordStatus {
	switch RecordStatus(s) {
	case StatusNoise, StatusZombie, StatusAbandon:
		return RecordStatus(s)
	default:
		return StatusValid
	}
}

// Channel is the contact medium of an interaction
type Channel string

const (
	ChannelVoice Channel = "voice"
	ChannelChat  Channel = "chat"
	ChannelEmail Channel = "email"
)

// Interaction is one customer contact as delivered by the record ingestor.
// Durations are in seconds.
type Interaction struct {
	ID               string       `json:"interaction_id"`
	StartTime        time.Time    `json:"datetime_start"`
	QueueID          string       `json:"queue_id"`
	SkillGroupID     string       `json:"queue_skill"`
	Channel          Channel      `json:"channel"`
	TalkTime         float64      `json:"duration_talk"`
	HoldTime         float64      `json:"hold_time"`
	WrapTime         float64      `json:"wrap_up_time"`
	AgentID          string       `json:"agent_id"`
	Transferred      bool         `json:"transfer_flag"`
	RepeatContact7d  *bool        `json:"repeat_call_7d,omitempty"`
	ConversationTime float64      `json:"conversation_time"`
	Abandoned        bool         `json:"is_abandoned"`
	Status           RecordStatus `json:"record_status"`

	// FirstContactResolved is the direct resolution flag when the source has one
	FirstContactResolved *bool `json:"fcr_real_flag,omitempty"`

	// Optional survey scores
	CSAT *float64 `json:"csat_score,omitempty"`
	NPS  *float64 `json:"nps_score,omitempty"`
	CES  *float64 `json:"ces_score,omitempty"`
}

// HandleTime returns talk + hold + wrap-up
func (i Interaction) HandleTime() float64 {
	return i.TalkTime + i.HoldTime + i.WrapTime
}

// IsValid reports whether the record counts towards AHT, CV and rates
func (i Interaction) IsValid() bool {
	return i.Status == StatusValid
}

// Resolved reports first-contact resolution using the strongest signal available:
// the direct flag, then the repeat-contact flag, then the transfer flag alone.
func (i Interaction) Resolved() bool {
	if i.FirstContactResolved != nil {
		return *i.FirstContactResolved
	}
	if i.RepeatContact7d != nil {
		return !i.Transferred && !*i.RepeatContact7d
	}
	return !i.Transferred
}

// DateRange is the span covered by a batch of interactions
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Months returns the covered span in whole months, at least 1
func (d DateRange) Months() int {
	if d.From.IsZero() || d.To.IsZero() || !d.To.After(d.From) {
		return 1
	}
	months := (d.To.Year()-d.From.Year())*12 + int(d.To.Month()) - int(d.From.Month())
	if d.To.Day() >= d.From.Day() {
		months++
	}
	if months < 1 {
		return 1
	}
	return months
}
