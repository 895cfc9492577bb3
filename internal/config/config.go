package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	LogsFolder     string

	// Analysis defaults
	CostPerHour  float64
	AvgCSAT      *float64
	Segments     *types.SegmentMapping
	PeriodMonths int

	// External analysis service
	AnalysisServiceURL      string
	AnalysisServiceUser     string
	AnalysisServicePassword string
	AnalysisTimeout         time.Duration
	AnalysisMaxRetry        time.Duration

	SkipAuth   bool
	OIDCIssuer string

	WSReadTimeout  time.Duration
	WSWriteTimeout time.Duration
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64

	// StatusInterval is how often dashboards get the cache status, 0 disables
	StatusInterval time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:                    getEnv("PORT", "8080"),
		AllowedOrigins:          splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogsFolder:              getEnv("LOGS_FOLDER", "logs"),
		AnalysisServiceURL:      strings.TrimSuffix(getEnv("ANALYSIS_SERVICE_URL", ""), "/"),
		AnalysisServiceUser:     getEnv("ANALYSIS_SERVICE_USER", ""),
		AnalysisServicePassword: getEnv("ANALYSIS_SERVICE_PASSWORD", ""),
		OIDCIssuer:              getEnv("OIDC_ISSUER", ""),
	}

	var err error
	if config.CostPerHour, err = getEnvFloat("COST_PER_HOUR", 20); err != nil {
		return nil, err
	}
	if config.CostPerHour <= 0 {
		return nil, fmt.Errorf("invalid COST_PER_HOUR: must be positive")
	}

	if raw := os.Getenv("AVG_CSAT"); raw != "" {
		csat, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid AVG_CSAT: %w", err)
		}
		config.AvgCSAT = &csat
	}

	high := splitList(os.Getenv("SEGMENT_HIGH"))
	medium := splitList(os.Getenv("SEGMENT_MEDIUM"))
	low := splitList(os.Getenv("SEGMENT_LOW"))
	if len(high)+len(medium)+len(low) > 0 {
		config.Segments = &types.SegmentMapping{High: high, Medium: medium, Low: low}
	}

	if config.PeriodMonths, err = getEnvInt("PERIOD_MONTHS", 0); err != nil {
		return nil, err
	}

	analysisTimeout, err := getEnvInt("ANALYSIS_TIMEOUT", 300)
	if err != nil {
		return nil, err
	}
	config.AnalysisTimeout = time.Duration(analysisTimeout) * time.Second

	maxRetry, err := getEnvInt("ANALYSIS_MAX_RETRY", 60)
	if err != nil {
		return nil, err
	}
	config.AnalysisMaxRetry = time.Duration(maxRetry) * time.Second

	if config.SkipAuth, err = getEnvBool("SKIP_AUTH", false); err != nil {
		return nil, err
	}

	// Parse WebSocket timeouts
	wsReadTimeout, err := getEnvInt("WS_READ_TIMEOUT", 60)
	if err != nil {
		return nil, err
	}
	config.WSReadTimeout = time.Duration(wsReadTimeout) * time.Second

	wsWriteTimeout, err := getEnvInt("WS_WRITE_TIMEOUT", 10)
	if err != nil {
		return nil, err
	}
	config.WSWriteTimeout = time.Duration(wsWriteTimeout) * time.Second

	config.PongWait = config.WSReadTimeout
	config.PingPeriod = (config.PongWait * 9) / 10 // Must be less than pongWait
	config.WriteWait = config.WSWriteTimeout
	config.MaxMessageSize = 512

	statusInterval, err := getEnvInt("STATUS_INTERVAL", 30)
	if err != nil {
		return nil, err
	}
	config.StatusInterval = time.Duration(statusInterval) * time.Second

	return config, nil
}

// AnalysisServiceEnabled reports whether an external service is configured
func (c *Config) AnalysisServiceEnabled() bool {
	return c.AnalysisServiceURL != ""
}

// RequestBudget bounds one synchronous analysis request: a full retry budget
// plus one last attempt that may run for the whole service timeout
func (c *Config) RequestBudget() time.Duration {
	budget := c.AnalysisTimeout
	if c.AnalysisMaxRetry > 0 {
		budget += c.AnalysisMaxRetry
	}
	return budget
}

// AnalysisOptions returns the configured run defaults
func (c *Config) AnalysisOptions() types.AnalysisOptions {
	return types.AnalysisOptions{
		CostPerHour: c.CostPerHour,
		AvgCSAT:     c.AvgCSAT,
		Segments:    c.Segments,
	}
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// splitList splits a comma separated list, dropping empty entries
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
