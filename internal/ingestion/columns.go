package ingestion

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

type column int

const (
	colID column = iota
	colStart
	colQueue
	colSkill
	colChannel
	colTalk
	colHold
	colWrap
	colAgent
	colTransfer
	colRepeat
	colConversation
	colAbandoned
	colStatus
	colFCR
	colCSAT
	colNPS
	colCES
	numColumns
)

// aliases maps every accepted header, normalized, onto a column
var aliases = map[string]column{
	"interaction_id":    colID,
	"id":                colID,
	"call_id":           colID,
	"datetime_start":    colStart,
	"start_time":        colStart,
	"start":             colStart,
	"queue_id":          colQueue,
	"original_queue_id": colQueue,
	"queue":             colQueue,
	"queue_skill":       colSkill,
	"skill":             colSkill,
	"skill_group":       colSkill,
	"channel":           colChannel,
	"duration_talk":     colTalk,
	"talk_time":         colTalk,
	"hold_time":         colHold,
	"wrap_up_time":      colWrap,
	"acw":               colWrap,
	"agent_id":          colAgent,
	"agent":             colAgent,
	"transfer_flag":     colTransfer,
	"transferred":       colTransfer,
	"repeat_call_7d":    colRepeat,
	"repeat_7d":         colRepeat,
	"is_repeat_7d":      colRepeat,
	"conversation_time": colConversation,
	"is_abandoned":      colAbandoned,
	"abandoned_flag":    colAbandoned,
	"abandoned":         colAbandoned,
	"record_status":     colStatus,
	"status":            colStatus,
	"fcr_real_flag":     colFCR,
	"csat_score":        colCSAT,
	"csat":              colCSAT,
	"nps_score":         colNPS,
	"nps":               colNPS,
	"ces_score":         colCES,
	"ces":               colCES,
}

// RequiredColumns must be present in every export
var RequiredColumns = []string{
	"interaction_id",
	"datetime_start",
	"queue_skill",
	"channel",
	"duration_talk",
	"hold_time",
	"wrap_up_time",
	"agent_id",
	"transfer_flag",
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02",
}

// columnMap holds the index of each known column, -1 when absent
type columnMap [numColumns]int

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

func mapColumns(header []string) (columnMap, error) {
	var cols columnMap
	for i := range cols {
		cols[i] = -1
	}
	for i, h := range header {
		if c, ok := aliases[normalizeHeader(h)]; ok && cols[c] == -1 {
			cols[c] = i
		}
	}

	var missing []string
	for _, name := range RequiredColumns {
		if cols[aliases[name]] == -1 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return cols, nil
}

func (m columnMap) has(c column) bool {
	return m[c] >= 0
}

func (m columnMap) cell(row []string, c column) string {
	i := m[c]
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (m columnMap) decode(row []string) types.Interaction {
	it := types.Interaction{
		ID:               m.cell(row, colID),
		StartTime:        parseTime(m.cell(row, colStart)),
		QueueID:          m.cell(row, colQueue),
		SkillGroupID:     m.cell(row, colSkill),
		Channel:          parseChannel(m.cell(row, colChannel)),
		TalkTime:         parseFloat(m.cell(row, colTalk)),
		HoldTime:         parseFloat(m.cell(row, colHold)),
		WrapTime:         parseFloat(m.cell(row, colWrap)),
		AgentID:          m.cell(row, colAgent),
		Transferred:      parseBool(m.cell(row, colTransfer)),
		RepeatContact7d:  parseOptionalBool(m.cell(row, colRepeat)),
		ConversationTime: parseFloat(m.cell(row, colConversation)),
		Abandoned:        parseBool(m.cell(row, colAbandoned)),
		// exports without a status column are treated as all valid
		Status:               types.ParseRecordStatus(strings.ToLower(m.cell(row, colStatus))),
		FirstContactResolved: parseOptionalBool(m.cell(row, colFCR)),
		CSAT:                 parseOptionalFloat(m.cell(row, colCSAT)),
		NPS:                  parseOptionalFloat(m.cell(row, colNPS)),
		CES:                  parseOptionalFloat(m.cell(row, colCES)),
	}
	if it.QueueID == "" {
		it.QueueID = it.SkillGroupID
	}
	return it
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseFloat accepts decimal commas; unparseable values become 0
func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0
	}
	return f
}

// parseOptionalFloat returns nil for empty or unparseable cells, so a
// missing survey answer is not read as a zero score
func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || math.IsNaN(f) {
		return nil
	}
	return &f
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "t", "1", "yes", "y", "si", "sí", "1.0":
		return true
	}
	return false
}

func parseOptionalBool(s string) *bool {
	if s == "" {
		return nil
	}
	v := parseBool(s)
	return &v
}

func parseChannel(s string) types.Channel {
	switch l := strings.ToLower(s); l {
	case "voice", "phone", "call", "voz", "telefono", "teléfono":
		return types.ChannelVoice
	case "chat", "whatsapp", "webchat", "messaging":
		return types.ChannelChat
	case "email", "e-mail", "mail":
		return types.ChannelEmail
	default:
		return types.Channel(l)
	}
}
