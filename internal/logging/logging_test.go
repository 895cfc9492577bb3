package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		verbose  bool
		expected zerolog.Level
	}{
		{"verbose wins", "error", true, zerolog.DebugLevel},
		{"named level", "warn", false, zerolog.WarnLevel},
		{"invalid falls back", "loud", false, zerolog.InfoLevel},
		{"empty falls back", "", false, zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Level(tt.level, tt.verbose); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestInitWritesRotatingFile(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	defer func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	}()

	dir := filepath.Join(t.TempDir(), "logs")
	closer, err := Init(zerolog.InfoLevel, dir)
	if err != nil {
		t.Fatalf("failed to init: %v", err)
	}

	log.Info().Str("run_id", "abc").Msg("analysis run completed")
	log.Debug().Msg("hidden")
	if err := closer.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, LogFile))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `"run_id":"abc"`) || !strings.Contains(content, "analysis run completed") {
		t.Errorf("expected structured entry, got %s", content)
	}
	if strings.Contains(content, "hidden") {
		t.Error("expected debug entry filtered out")
	}
}

func TestInitConsoleOnly(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	defer func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	}()

	closer, err := Init(zerolog.WarnLevel, "")
	if err != nil {
		t.Fatalf("failed to init: %v", err)
	}
	if err := closer.Close(); err != nil {
		t.Errorf("expected no-op close, got %v", err)
	}
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Errorf("expected warn level, got %v", zerolog.GlobalLevel())
	}
}
