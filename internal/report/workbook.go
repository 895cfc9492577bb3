// Package report renders analysis results as Excel workbooks.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
	"github.com/xuri/excelize/v2"
)

// Sheet names, in workbook order
const (
	SheetSummary       = "Summary"
	SheetHeatmap       = "Heatmap"
	SheetOpportunities = "Opportunities"
	SheetRoadmap       = "Roadmap"
)

var (
	heatmapHeader = []interface{}{
		"Skill group", "Volume", "Cost volume", "AHT (s)", "FCR %", "AHT score", "FCR score",
		"Transfer score", "Variability score", "Agentic score", "Tier", "CPI", "Annual cost", "Segment",
	}
	opportunityHeader = []interface{}{"Skill group", "Tier", "Readiness", "Savings", "Impact", "Feasibility"}
	roadmapHeader     = []interface{}{"Phase", "Tier", "Skill groups", "Timeline", "Investment", "Savings"}
)

// WriteWorkbook saves one sheet per artifact of result at path
func WriteWorkbook(result *types.AnalysisResult, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetHeatmap, SheetOpportunities, SheetRoadmap} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	w := &sheetWriter{f: f, bold: bold}
	w.summary(result)
	w.heatmap(result.Heatmap)
	w.opportunities(result.Opportunities)
	w.roadmap(result.Roadmap)
	if w.err != nil {
		return w.err
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// sheetWriter keeps the first error so the row writers stay flat
type sheetWriter struct {
	f    *excelize.File
	bold int
	err  error
}

func (w *sheetWriter) row(sheet string, n int, values []interface{}) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("write %s row %d: %w", sheet, n, err)
	}
}

func (w *sheetWriter) header(sheet string, values []interface{}) {
	w.row(sheet, 1, values)
	if w.err == nil {
		w.err = w.f.SetRowStyle(sheet, 1, 1, w.bold)
	}
	if w.err == nil {
		w.err = w.f.SetColWidth(sheet, "A", "A", 24)
	}
}

func (w *sheetWriter) summary(r *types.AnalysisResult) {
	s := r.Summary
	rows := [][]interface{}{
		{"Run", r.RunID},
		{"Provenance", string(r.Provenance)},
		{"Generated at", r.GeneratedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Total volume", s.TotalVolume},
		{"Global CPI", round2(s.GlobalCPI)},
		{"Global AHT (s)", round2(s.GlobalAHT)},
		{"Global FCR %", round2(s.GlobalFCR)},
		{"Annual cost", round2(s.AnnualCost)},
	}
	if s.AvgCSAT != nil {
		rows = append(rows, []interface{}{"Average CSAT", round2(*s.AvgCSAT)})
	}
	rows = append(rows,
		[]interface{}{"Annual savings", round2(r.Economics.AnnualSavings)},
		[]interface{}{"Investment", round2(r.Economics.Investment)},
		[]interface{}{"Payback (months)", r.Economics.PaybackMonths},
		[]interface{}{"3 year ROI %", round2(r.Economics.ROI3Year)},
	)
	for _, warning := range r.Warnings {
		rows = append(rows, []interface{}{"Warning", warning})
	}

	w.header(SheetSummary, []interface{}{"Metric", "Value"})
	for i, values := range rows {
		w.row(SheetSummary, i+2, values)
	}
}

func (w *sheetWriter) heatmap(cells []types.HeatmapCell) {
	w.header(SheetHeatmap, heatmapHeader)
	for i, c := range cells {
		var cpi interface{} = ""
		if c.HasCPI {
			cpi = round2(c.CPI)
		}
		w.row(SheetHeatmap, i+2, []interface{}{
			c.SkillGroupID, c.Volume, c.CostVolume, round2(c.AHT), round2(c.FCR),
			round2(c.AHTScore), round2(c.FCRScore), round2(c.TransferScore), round2(c.VariabilityScore),
			round2(c.AgenticScore), string(c.Tier), cpi, round2(c.AnnualCost), string(c.Segment),
		})
	}
}

func (w *sheetWriter) opportunities(opps []types.Opportunity) {
	w.header(SheetOpportunities, opportunityHeader)
	for i, o := range opps {
		w.row(SheetOpportunities, i+2, []interface{}{
			o.SkillGroupID, string(o.Tier), round2(o.Readiness), round2(o.Savings), round2(o.Impact), round2(o.Feasibility),
		})
	}
}

func (w *sheetWriter) roadmap(initiatives []types.RoadmapInitiative) {
	w.header(SheetRoadmap, roadmapHeader)
	for i, in := range initiatives {
		w.row(SheetRoadmap, i+2, []interface{}{
			string(in.Phase), string(in.Tier), strings.Join(in.SkillGroupIDs, ", "), in.Timeline,
			round2(in.Investment), round2(in.Savings),
		})
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
