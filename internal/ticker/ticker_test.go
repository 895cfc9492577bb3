package ticker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

type fakeHub struct {
	mu       sync.Mutex
	clients  int
	messages [][]byte
}

func (h *fakeHub) Broadcast(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, message)
}

func (h *fakeHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clients
}

func (h *fakeHub) sent() [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([][]byte(nil), h.messages...)
}

type fakeCache struct {
	cached *types.CachedMetrics
	err    error
}

func (c *fakeCache) Get(_ context.Context) (*types.CachedMetrics, error) { return c.cached, c.err }

func TestNewTicker(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	hub := &fakeHub{}
	ticker := NewTicker(hub, &fakeCache{}, 1*time.Second, logger)

	if ticker == nil {
		t.Fatal("expected ticker to be created")
	}
	if ticker.hub != hub {
		t.Error("ticker hub not set correctly")
	}
	if ticker.interval != 1*time.Second {
		t.Errorf("expected interval 1s, got %v", ticker.interval)
	}
}

func TestTickerStopsOnCancel(t *testing.T) {
	ticker := NewTicker(&fakeHub{}, &fakeCache{}, 100*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	done := make(chan bool)
	go func() {
		ticker.Start(ctx)
		done <- true
	}()

	<-ctx.Done()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Error("ticker did not stop after context cancel")
	}
}

func TestTickerBroadcastsStatus(t *testing.T) {
	tests := []struct {
		name         string
		clients      int
		cache        *fakeCache
		expectSent   bool
		expectCached bool
	}{
		{"no dashboards", 0, &fakeCache{}, false, false},
		{"empty cache", 1, &fakeCache{}, true, false},
		{"cached metrics", 2, &fakeCache{cached: &types.CachedMetrics{FileName: "calls.csv", SkillGroups: make([]types.CachedSkillMetrics, 3)}}, true, true},
		{"cache error", 1, &fakeCache{err: errors.New("throttled")}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := &fakeHub{clients: tt.clients}
			ticker := NewTicker(hub, tt.cache, 20*time.Millisecond, zerolog.Nop())

			ctx, cancel := context.WithTimeout(context.Background(), 110*time.Millisecond)
			defer cancel()
			ticker.Start(ctx)

			sent := hub.sent()
			if !tt.expectSent {
				if len(sent) != 0 {
					t.Errorf("expected no broadcasts, got %d", len(sent))
				}
				return
			}
			if len(sent) == 0 {
				t.Fatal("expected at least one broadcast")
			}

			var msg StatusMessage
			if err := json.Unmarshal(sent[0], &msg); err != nil {
				t.Fatalf("failed to parse status: %v", err)
			}
			if msg.Type != "status" || msg.ServerTime == 0 {
				t.Errorf("unexpected status message: %+v", msg)
			}
			if msg.Cached != tt.expectCached {
				t.Errorf("expected cached %v, got %v", tt.expectCached, msg.Cached)
			}
			if tt.expectCached && (msg.FileName != "calls.csv" || msg.SkillGroups != 3) {
				t.Errorf("unexpected cache details: %+v", msg)
			}
		})
	}
}
