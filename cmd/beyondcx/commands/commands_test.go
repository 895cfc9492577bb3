package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/ingestion"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/pipeline"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/report"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/synthetic"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
	"github.com/xuri/excelize/v2"
)

// run executes the CLI with a clean flag state and a local-only setup
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DYNAMO_MODE", "none")
	t.Setenv("ANALYSIS_SERVICE_URL", "")
	t.Setenv("LOG_LEVEL", "error")

	for _, fs := range []*pflag.FlagSet{rootCmd.PersistentFlags(), analyzeCmd.Flags(), syntheticCmd.Flags()} {
		fs.VisitAll(func(f *pflag.Flag) {
			f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	_, err := rootCmd.ExecuteContextC(context.Background())
	return out.String(), err
}

func decodeResult(t *testing.T, data []byte) types.AnalysisResult {
	t.Helper()
	var result types.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}
	return result
}

func writeExport(t *testing.T, dir string) string {
	t.Helper()
	data, err := ingestion.EncodeCSV(synthetic.NewGenerator(7).Interactions(400))
	if err != nil {
		t.Fatalf("failed to encode export: %v", err)
	}
	path := filepath.Join(dir, "calls.csv")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write export: %v", err)
	}
	return path
}

func TestSyntheticWritesJSONAndWorkbook(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "result.json")
	xlsxPath := filepath.Join(dir, "result.xlsx")

	out, err := run(t, "synthetic", "--records", "300", "--seed", "3", "--out", jsonPath, "--xlsx", xlsxPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "" {
		t.Errorf("expected nothing on stdout with --out, got %d bytes", len(out))
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("failed to read result: %v", err)
	}
	result := decodeResult(t, data)
	if result.Provenance != types.ProvenanceSynthetic {
		t.Errorf("expected synthetic provenance, got %s", result.Provenance)
	}
	if result.Summary.TotalVolume == 0 || len(result.SkillGroups) == 0 {
		t.Errorf("expected a populated result, got volume %d over %d groups", result.Summary.TotalVolume, len(result.SkillGroups))
	}

	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()
	if idx, err := f.GetSheetIndex(report.SheetHeatmap); err != nil || idx < 0 {
		t.Errorf("expected a %s sheet, got index %d (%v)", report.SheetHeatmap, idx, err)
	}
}

func TestSyntheticRejectsBadRecords(t *testing.T) {
	if _, err := run(t, "synthetic", "--records", "0"); err == nil {
		t.Error("expected an error for zero records")
	}
}

func TestAnalyzeWithoutServiceFallsBack(t *testing.T) {
	path := writeExport(t, t.TempDir())

	out, err := run(t, "analyze", "--file", path, "--cost-per-hour", "25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := decodeResult(t, []byte(out))
	if result.Provenance != types.ProvenanceFallback {
		t.Errorf("expected fallback provenance, got %s", result.Provenance)
	}
	if len(result.SkillGroups) == 0 {
		t.Error("expected skill groups")
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a warning about the missing service")
	}
}

func TestAnalyzeErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeExport(t, dir)
	empty := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(empty, []byte("interaction_id,queue_skill\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	tests := []struct {
		name     string
		args     []string
		expected error
	}{
		{"cached without a service", []string{"analyze", "--file", path, "--cached"}, pipeline.ErrNoInput},
		{"missing file", []string{"analyze", "--file", filepath.Join(dir, "nope.csv")}, os.ErrNotExist},
		{"no usable rows", []string{"analyze", "--file", empty}, nil},
		{"bad cost", []string{"analyze", "--file", path, "--cost-per-hour=-1"}, nil},
		{"no file flag", []string{"analyze"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.expected != nil && !errors.Is(err, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}
