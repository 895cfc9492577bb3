package storage

import (
	"context"

	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

// Cache keeps the precise metrics of the last analysed file
type Cache interface {
	Save(ctx context.Context, metrics types.CachedMetrics) error
	Get(ctx context.Context) (*types.CachedMetrics, error)
	Clear(ctx context.Context) error
}

// NoopCache is used when DynamoDB is disabled. It never holds anything.
type NoopCache struct{}

func NewNoopCache() *NoopCache { return &NoopCache{} }

func (c *NoopCache) Save(_ context.Context, _ types.CachedMetrics) error {
	return nil
}

func (c *NoopCache) Get(_ context.Context) (*types.CachedMetrics, error) {
	return nil, nil
}

func (c *NoopCache) Clear(_ context.Context) error {
	return nil
}
