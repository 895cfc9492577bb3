package storage

import (
	"fmt"
	"os"
	"strconv"
)

// DynamoMode selects where the metrics cache lives
type DynamoMode string

const (
	DynamoModeNone  DynamoMode = "none"
	DynamoModeLocal DynamoMode = "local"
	DynamoModeAWS   DynamoMode = "aws"
)

type DynamoConfig struct {
	Mode DynamoMode
	// Endpoint is only used in local mode
	Endpoint   string
	Region     string
	CacheTable string
	// CreateTable provisions the cache table on startup when it is missing
	CreateTable bool
}

// Remote reports whether a DynamoDB table backs the cache
func (c DynamoConfig) Remote() bool {
	return c.Mode == DynamoModeLocal || c.Mode == DynamoModeAWS
}

// LoadDynamoConfig reads the DYNAMO_* variables. Table creation defaults to
// on for DynamoDB Local only.
func LoadDynamoConfig() (DynamoConfig, error) {
	cfg := DynamoConfig{
		Mode:       DynamoMode(envOr("DYNAMO_MODE", string(DynamoModeNone))),
		Endpoint:   envOr("DYNAMO_ENDPOINT", "http://localhost:8000"),
		Region:     envOr("DYNAMO_REGION", "eu-west-1"),
		CacheTable: envOr("DYNAMO_CACHE_TABLE", "beyondcx-metrics-cache"),
	}

	switch cfg.Mode {
	case DynamoModeNone, DynamoModeLocal, DynamoModeAWS:
	default:
		return DynamoConfig{}, fmt.Errorf("invalid DYNAMO_MODE %q: want none, local or aws", cfg.Mode)
	}

	cfg.CreateTable = cfg.Mode == DynamoModeLocal
	if raw := os.Getenv("DYNAMO_CREATE_TABLE"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return DynamoConfig{}, fmt.Errorf("invalid DYNAMO_CREATE_TABLE: %w", err)
		}
		cfg.CreateTable = v
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
