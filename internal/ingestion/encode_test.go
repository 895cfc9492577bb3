package ingestion

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

func ptr[T any](v T) *T { return &v }

func sampleInteractions() []types.Interaction {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []types.Interaction{
		{
			ID: "X-1", StartTime: start, QueueID: "claims-in", SkillGroupID: "claims", Channel: types.ChannelChat,
			TalkTime: 200.5, HoldTime: 10, WrapTime: 30, AgentID: "A3", Transferred: true,
			RepeatContact7d: ptr(false), Status: types.StatusValid, FirstContactResolved: ptr(true),
			CSAT: ptr(4.5), NPS: ptr(9.0),
		},
		{
			ID: "X-2", StartTime: start.Add(time.Hour), QueueID: "claims", SkillGroupID: "claims", Channel: types.ChannelVoice,
			TalkTime: 400, HoldTime: 20, WrapTime: 60, AgentID: "A4", Abandoned: true,
			Status: types.StatusZombie, CES: ptr(3.0),
		},
	}
}

func TestEncodeCSVRoundTrip(t *testing.T) {
	its := sampleInteractions()
	data, err := EncodeCSV(its)
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}

	got, err := NewIngestor(zerolog.Nop()).ParseReader(context.Background(), "encoded.csv", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to parse encoded csv: %v", err)
	}
	if !reflect.DeepEqual(got, its) {
		t.Errorf("expected %+v, got %+v", its, got)
	}
}

func TestServicePayload(t *testing.T) {
	its := sampleInteractions()
	original := []byte("raw bytes")

	tests := []struct {
		name         string
		file         string
		expectedName string
		passthrough  bool
	}{
		{"csv is sent as is", "calls.csv", "calls.csv", true},
		{"txt is sent as is", "calls.TXT", "calls.TXT", true},
		{"xlsx is re-encoded", "march.xlsx", "march.csv", false},
		{"xlsm is re-encoded", "q1.report.xlsm", "q1.report.csv", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, data, err := ServicePayload(tt.file, original, its)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if name != tt.expectedName {
				t.Errorf("expected name %s, got %s", tt.expectedName, name)
			}
			if tt.passthrough != bytes.Equal(data, original) {
				t.Errorf("expected passthrough=%v, got %q", tt.passthrough, data)
			}
			if !tt.passthrough && !strings.HasPrefix(string(data), "interaction_id,datetime_start,") {
				t.Errorf("expected a csv header, got %q", data)
			}
		})
	}
}

func TestParseSurveyColumns(t *testing.T) {
	data := header + ",csat_score,NPS,ces\n" +
		"I-1,2025-01-06 09:15:00,billing,voice,240,30,40,A1,false,no,VALID,\"4,5\",8,\n" +
		"I-2,2025-01-06 10:15:00,billing,voice,240,30,40,A1,false,no,VALID,n/a,,2\n"

	got, err := NewIngestor(zerolog.Nop()).ParseReader(context.Background(), "survey.csv", strings.NewReader(data))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if got[0].CSAT == nil || *got[0].CSAT != 4.5 || got[0].NPS == nil || *got[0].NPS != 8 || got[0].CES != nil {
		t.Errorf("unexpected survey scores on first record: %+v", got[0])
	}
	if got[1].CSAT != nil || got[1].NPS != nil || got[1].CES == nil || *got[1].CES != 2 {
		t.Errorf("unexpected survey scores on second record: %+v", got[1])
	}
}
