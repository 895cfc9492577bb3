package ticker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

// Broadcaster sends raw messages to every connected dashboard
type Broadcaster interface {
	Broadcast(message []byte)
	ClientCount() int
}

// CacheReader reports what the metrics cache holds
type CacheReader interface {
	Get(ctx context.Context) (*types.CachedMetrics, error)
}

// StatusMessage tells dashboards whether a cached re-analysis is possible
type StatusMessage struct {
	Type        string `json:"type"`
	Timestamp   string `json:"timestamp"`
	ServerTime  int64  `json:"serverTime"`
	Cached      bool   `json:"cached"`
	FileName    string `json:"file_name,omitempty"`
	CachedAt    string `json:"cached_at,omitempty"`
	SkillGroups int    `json:"skill_groups,omitempty"`
}

// Ticker periodically broadcasts the cache status
type Ticker struct {
	hub      Broadcaster
	cache    CacheReader
	interval time.Duration
	logger   zerolog.Logger
}

// NewTicker creates a new Ticker
func NewTicker(hub Broadcaster, cache CacheReader, interval time.Duration, logger zerolog.Logger) *Ticker {
	return &Ticker{
		hub:      hub,
		cache:    cache,
		interval: interval,
		logger:   logger.With().Str("component", "status_ticker").Logger(),
	}
}

// Start broadcasts until ctx is done. Ticks with no dashboards connected
// skip the cache read.
func (t *Ticker) Start(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info().Dur("interval", t.interval).Msg("ticker started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("ticker stopped")
			return

		case now := <-ticker.C:
			if t.hub.ClientCount() == 0 {
				continue
			}

			message := t.status(ctx, now)
			data, err := json.Marshal(message)
			if err != nil {
				t.logger.Error().Err(err).Msg("failed to marshal status message")
				continue
			}

			t.hub.Broadcast(data)
			t.logger.Debug().
				Bool("cached", message.Cached).
				Int("clients", t.hub.ClientCount()).
				Msg("broadcasted status")
		}
	}
}

func (t *Ticker) status(ctx context.Context, now time.Time) StatusMessage {
	message := StatusMessage{
		Type:       "status",
		Timestamp:  now.UTC().Format(time.RFC3339),
		ServerTime: now.Unix(),
	}

	cached, err := t.cache.Get(ctx)
	if err != nil {
		t.logger.Warn().Err(err).Msg("failed to read metrics cache")
		return message
	}
	if cached != nil {
		message.Cached = true
		message.FileName = cached.FileName
		message.CachedAt = cached.CachedAt
		message.SkillGroups = len(cached.SkillGroups)
	}
	return message
}
