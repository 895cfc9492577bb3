package ingestion

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

// csvHeader is the column order EncodeCSV writes. Every name is an alias
// the ingestor accepts.
var csvHeader = []string{
	"interaction_id", "datetime_start", "queue_id", "queue_skill", "channel",
	"duration_talk", "hold_time", "wrap_up_time", "agent_id", "transfer_flag",
	"repeat_call_7d", "conversation_time", "is_abandoned", "record_status",
	"fcr_real_flag", "csat_score", "nps_score", "ces_score",
}

const csvTimeLayout = "2006-01-02 15:04:05"

// EncodeCSV writes interactions as a canonical CSV export
func EncodeCSV(interactions []types.Interaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, it := range interactions {
		start := ""
		if !it.StartTime.IsZero() {
			start = it.StartTime.Format(csvTimeLayout)
		}
		row := []string{
			it.ID, start, it.QueueID, it.SkillGroupID, string(it.Channel),
			formatFloat(it.TalkTime), formatFloat(it.HoldTime), formatFloat(it.WrapTime),
			it.AgentID, strconv.FormatBool(it.Transferred),
			formatOptionalBool(it.RepeatContact7d), formatFloat(it.ConversationTime),
			strconv.FormatBool(it.Abandoned), string(it.Status),
			formatOptionalBool(it.FirstContactResolved),
			formatOptionalFloat(it.CSAT), formatOptionalFloat(it.NPS), formatOptionalFloat(it.CES),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ServicePayload returns the file the analysis service should receive. The
// service only reads CSV, so other formats are re-encoded from the parsed
// interactions and renamed.
func ServicePayload(name string, data []byte, interactions []types.Interaction) (string, []byte, error) {
	if IsCSV(name) {
		return name, data, nil
	}
	encoded, err := EncodeCSV(interactions)
	if err != nil {
		return "", nil, err
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".csv", encoded, nil
}

// IsCSV reports whether name has a delimited text extension
func IsCSV(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".csv" || ext == ".txt"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatOptionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

func formatOptionalBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}
