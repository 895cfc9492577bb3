package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrNoRecords is returned for files without data rows
	ErrNoRecords = errors.New("file contains no records")
	// ErrMissingColumns is returned when a required column cannot be found
	ErrMissingColumns = errors.New("required columns missing")
	// ErrUnsupportedFormat is returned for extensions other than csv and xlsx
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrUnreadable is returned when the file content does not match its format
	ErrUnreadable = errors.New("unreadable file")
)

// checkEvery is how many rows are decoded between context checks
const checkEvery = 1000

// Ingestor reads interaction exports
type Ingestor struct {
	logger zerolog.Logger
}

// NewIngestor creates a new ingestor
func NewIngestor(logger zerolog.Logger) *Ingestor {
	return &Ingestor{logger: logger}
}

// Parse reads a CSV or XLSX file from disk
func (in *Ingestor) Parse(ctx context.Context, path string) ([]types.Interaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return in.ParseReader(ctx, filepath.Base(path), f)
}

// ParseReader reads an export from r. The format is chosen by the
// extension of name.
func (in *Ingestor) ParseReader(ctx context.Context, name string, r io.Reader) ([]types.Interaction, error) {
	var (
		rows [][]string
		err  error
	)

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv", ".txt":
		rows, err = readCSV(r)
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, ErrNoRecords
	}

	cols, err := mapColumns(rows[0])
	if err != nil {
		return nil, err
	}

	out := make([]types.Interaction, 0, len(rows)-1)
	var skipped int
	for i, row := range rows[1:] {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if blank(row) {
			skipped++
			continue
		}
		out = append(out, cols.decode(row))
	}
	if len(out) == 0 {
		return nil, ErrNoRecords
	}

	in.logger.Info().
		Str("file", name).
		Int("records", len(out)).
		Int("blank_rows", skipped).
		Bool("has_status", cols.has(colStatus)).
		Msg("interactions parsed")

	return out, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read csv: %w", ErrUnreadable, err)
	}
	// exports from spreadsheet tools may carry a byte order mark
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %w", ErrUnreadable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrNoRecords)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return rows, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
