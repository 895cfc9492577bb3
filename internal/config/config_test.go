package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default values",
			env:  map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Port != "8080" {
					t.Errorf("expected port 8080, got %s", cfg.Port)
				}
				if cfg.LogLevel != "info" {
					t.Errorf("expected log level info, got %s", cfg.LogLevel)
				}
				if cfg.CostPerHour != 20 {
					t.Errorf("expected cost per hour 20, got %v", cfg.CostPerHour)
				}
				if cfg.AvgCSAT != nil || cfg.Segments != nil {
					t.Errorf("expected no CSAT and no segments, got %v %v", cfg.AvgCSAT, cfg.Segments)
				}
				if cfg.AnalysisServiceEnabled() {
					t.Error("expected analysis service disabled")
				}
				if cfg.AnalysisTimeout != 5*time.Minute {
					t.Errorf("expected analysis timeout 5m, got %v", cfg.AnalysisTimeout)
				}
				if cfg.WSReadTimeout != 60*time.Second {
					t.Errorf("expected WSReadTimeout 60s, got %v", cfg.WSReadTimeout)
				}
				if cfg.SkipAuth {
					t.Error("expected auth enabled")
				}
				if cfg.StatusInterval != 30*time.Second {
					t.Errorf("expected status interval 30s, got %v", cfg.StatusInterval)
				}
			},
		},
		{
			name: "custom values",
			env: map[string]string{
				"PORT":                 "9000",
				"LOG_LEVEL":            "debug",
				"COST_PER_HOUR":        "32.5",
				"AVG_CSAT":             "84",
				"SEGMENT_HIGH":         "vip, premium",
				"SEGMENT_LOW":          "retail",
				"PERIOD_MONTHS":        "3",
				"ANALYSIS_SERVICE_URL": "http://analysis:8000/",
				"ANALYSIS_MAX_RETRY":   "15",
				"SKIP_AUTH":            "true",
				"WS_READ_TIMEOUT":      "30",
				"WS_WRITE_TIMEOUT":     "5",
				"ALLOWED_ORIGINS":      "http://example.com, http://test.com",
				"STATUS_INTERVAL":      "0",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Port != "9000" {
					t.Errorf("expected port 9000, got %s", cfg.Port)
				}
				if cfg.CostPerHour != 32.5 {
					t.Errorf("expected cost per hour 32.5, got %v", cfg.CostPerHour)
				}
				if cfg.AvgCSAT == nil || *cfg.AvgCSAT != 84 {
					t.Errorf("expected CSAT 84, got %v", cfg.AvgCSAT)
				}
				if cfg.Segments == nil || len(cfg.Segments.High) != 2 || cfg.Segments.High[1] != "premium" || len(cfg.Segments.Medium) != 0 {
					t.Errorf("unexpected segments: %+v", cfg.Segments)
				}
				if cfg.PeriodMonths != 3 {
					t.Errorf("expected 3 period months, got %d", cfg.PeriodMonths)
				}
				if cfg.AnalysisServiceURL != "http://analysis:8000" {
					t.Errorf("expected trailing slash trimmed, got %s", cfg.AnalysisServiceURL)
				}
				if cfg.AnalysisMaxRetry != 15*time.Second {
					t.Errorf("expected max retry 15s, got %v", cfg.AnalysisMaxRetry)
				}
				if !cfg.SkipAuth {
					t.Error("expected auth skipped")
				}
				if cfg.WSWriteTimeout != 5*time.Second {
					t.Errorf("expected WSWriteTimeout 5s, got %v", cfg.WSWriteTimeout)
				}
				if cfg.StatusInterval != 0 {
					t.Errorf("expected status broadcasts disabled, got %v", cfg.StatusInterval)
				}
				if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://test.com" {
					t.Errorf("unexpected allowed origins: %v", cfg.AllowedOrigins)
				}
				opts := cfg.AnalysisOptions()
				if opts.CostPerHour != 32.5 || opts.Segments != cfg.Segments {
					t.Errorf("unexpected analysis options: %+v", opts)
				}
			},
		},
		{
			name:    "invalid COST_PER_HOUR",
			env:     map[string]string{"COST_PER_HOUR": "cheap"},
			wantErr: true,
		},
		{
			name:    "negative COST_PER_HOUR",
			env:     map[string]string{"COST_PER_HOUR": "-4"},
			wantErr: true,
		},
		{
			name:    "invalid AVG_CSAT",
			env:     map[string]string{"AVG_CSAT": "good"},
			wantErr: true,
		},
		{
			name:    "invalid SKIP_AUTH",
			env:     map[string]string{"SKIP_AUTH": "maybe"},
			wantErr: true,
		},
		{
			name:    "invalid WS_READ_TIMEOUT",
			env:     map[string]string{"WS_READ_TIMEOUT": "invalid"},
			wantErr: true,
		},
		{
			name:    "invalid ANALYSIS_TIMEOUT",
			env:     map[string]string{"ANALYSIS_TIMEOUT": "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestWebSocketConstants(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.PongWait != cfg.WSReadTimeout {
		t.Errorf("PongWait (%v) should equal WSReadTimeout (%v)", cfg.PongWait, cfg.WSReadTimeout)
	}
	if cfg.PingPeriod >= cfg.PongWait {
		t.Errorf("PingPeriod (%v) should be less than PongWait (%v)", cfg.PingPeriod, cfg.PongWait)
	}
	if cfg.WriteWait != cfg.WSWriteTimeout {
		t.Errorf("WriteWait (%v) should equal WSWriteTimeout (%v)", cfg.WriteWait, cfg.WSWriteTimeout)
	}
	if cfg.MaxMessageSize <= 0 {
		t.Errorf("MaxMessageSize should be positive, got %d", cfg.MaxMessageSize)
	}
}

func TestRequestBudget(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		maxRetry time.Duration
		expected time.Duration
	}{
		{"defaults", 5 * time.Minute, time.Minute, 6 * time.Minute},
		{"retries disabled", 30 * time.Second, 0, 30 * time.Second},
		{"negative retry budget", 30 * time.Second, -time.Second, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{AnalysisTimeout: tt.timeout, AnalysisMaxRetry: tt.maxRetry}
			if got := cfg.RequestBudget(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
