package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
	"github.com/xuri/excelize/v2"
)

func sampleResult() *types.AnalysisResult {
	csat := 81.5
	return &types.AnalysisResult{
		RunID:       "run-7",
		GeneratedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Provenance:  types.ProvenanceFallback,
		Heatmap: []types.HeatmapCell{
			{SkillGroupID: "billing", Volume: 1200, CostVolume: 1100, AHT: 312.456, Tier: types.TierAutomate, CPI: 4.126, HasCPI: true},
			{SkillGroupID: "tech", Volume: 300, Tier: types.TierHumanOnly},
		},
		Opportunities: []types.Opportunity{{SkillGroupID: "billing", Tier: types.TierAutomate, Savings: 1000}},
		Roadmap: []types.RoadmapInitiative{
			{Phase: types.PhaseAutomate, Tier: types.TierAutomate, SkillGroupIDs: []string{"billing", "sales"}, Timeline: "Q1-Q2"},
		},
		Summary:  types.SummaryKPIs{TotalVolume: 1500, AvgCSAT: &csat},
		Warnings: []string{"analysis service not configured: computed locally"},
	}
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.xlsx")
	if err := WriteWorkbook(sampleResult(), path); err != nil {
		t.Fatalf("failed to write workbook: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	expected := []string{SheetSummary, SheetHeatmap, SheetOpportunities, SheetRoadmap}
	if len(sheets) != len(expected) {
		t.Fatalf("expected sheets %v, got %v", expected, sheets)
	}
	for i, name := range expected {
		if sheets[i] != name {
			t.Errorf("expected sheet %d to be %s, got %s", i, name, sheets[i])
		}
	}

	heatmap, err := f.GetRows(SheetHeatmap)
	if err != nil {
		t.Fatalf("failed to read heatmap: %v", err)
	}
	if len(heatmap) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(heatmap))
	}
	if heatmap[1][0] != "billing" || heatmap[1][3] != "312.46" || heatmap[1][11] != "4.13" {
		t.Errorf("unexpected billing row: %v", heatmap[1])
	}
	if len(heatmap[2]) > 11 && heatmap[2][11] != "" {
		t.Errorf("expected an empty CPI for tech, got %q", heatmap[2][11])
	}

	roadmap, err := f.GetRows(SheetRoadmap)
	if err != nil {
		t.Fatalf("failed to read roadmap: %v", err)
	}
	if roadmap[1][2] != "billing, sales" {
		t.Errorf("expected joined skill groups, got %q", roadmap[1][2])
	}

	summary, err := f.GetRows(SheetSummary)
	if err != nil {
		t.Fatalf("failed to read summary: %v", err)
	}
	found := map[string]string{}
	for _, row := range summary[1:] {
		if len(row) >= 2 {
			found[row[0]] = row[1]
		}
	}
	if found["Provenance"] != "fallback" || found["Average CSAT"] != "81.5" || found["Total volume"] != "1500" {
		t.Errorf("unexpected summary: %v", found)
	}
	if found["Warning"] == "" {
		t.Error("expected the warning to be listed")
	}
}

func TestWriteWorkbookBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "result.xlsx")
	if err := WriteWorkbook(sampleResult(), path); err == nil {
		t.Error("expected an error for an unwritable path")
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, expected float64
	}{
		{4.126, 4.13},
		{-4.126, -4.13},
		{0, 0},
	}
	for _, tt := range tests {
		if got := round2(tt.in); got != tt.expected {
			t.Errorf("round2(%v): expected %v, got %v", tt.in, tt.expected, got)
		}
	}
}
