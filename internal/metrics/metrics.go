package metrics

import (
	"cmp"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

// Metrics holds all application counters
type Metrics struct {
	mu sync.RWMutex

	// Run metrics
	runsByProvenance    map[types.Provenance]int64
	RunErrorsTotal      int64
	UpstreamErrorsTotal int64
	CacheHitsTotal      int64
	CacheMissesTotal    int64
	CacheErrorsTotal    int64
	lastRunDuration     time.Duration
	lastRunSkillGroups  int

	// WebSocket metrics
	WebSocketConnectionsTotal    int64
	WebSocketDisconnectionsTotal int64
	WebSocketMessagesTotal       int64
	WebSocketErrorsTotal         int64
	activeConnections            int64

	// HTTP metrics
	httpRequestsTotal    map[string]map[int]int64 // endpoint -> status -> count
	httpRequestDurations map[string][]float64     // endpoint -> durations

	startTime time.Time
}

var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// New creates a standalone registry
func New() *Metrics {
	return &Metrics{
		runsByProvenance:     make(map[types.Provenance]int64),
		httpRequestsTotal:    make(map[string]map[int]int64),
		httpRequestDurations: make(map[string][]float64),
		startTime:            time.Now(),
	}
}

// RecordRun records a finished analysis run
func (m *Metrics) RecordRun(provenance types.Provenance, duration time.Duration, skillGroups int) {
	m.mu.Lock()
	m.runsByProvenance[provenance]++
	m.lastRunDuration = duration
	m.lastRunSkillGroups = skillGroups
	m.mu.Unlock()
}

// RecordRunError increments the failed run counter
func (m *Metrics) RecordRunError() {
	m.mu.Lock()
	m.RunErrorsTotal++
	m.mu.Unlock()
}

// RecordUpstreamError increments the analysis service error counter
func (m *Metrics) RecordUpstreamError() {
	m.mu.Lock()
	m.UpstreamErrorsTotal++
	m.mu.Unlock()
}

// RecordCacheLookup records the outcome of a remote cache read
func (m *Metrics) RecordCacheLookup(hit bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case err != nil:
		m.CacheErrorsTotal++
	case hit:
		m.CacheHitsTotal++
	default:
		m.CacheMissesTotal++
	}
}

// Runs returns the number of runs recorded for a provenance
func (m *Metrics) Runs(provenance types.Provenance) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runsByProvenance[provenance]
}

// RecordWebSocketConnect increments connection counters
func (m *Metrics) RecordWebSocketConnect() {
	m.mu.Lock()
	m.WebSocketConnectionsTotal++
	m.activeConnections++
	m.mu.Unlock()
}

// RecordWebSocketDisconnect increments disconnection counter
func (m *Metrics) RecordWebSocketDisconnect() {
	m.mu.Lock()
	m.WebSocketDisconnectionsTotal++
	m.activeConnections--
	m.mu.Unlock()
}

// RecordWebSocketMessage increments message counter
func (m *Metrics) RecordWebSocketMessage() {
	m.mu.Lock()
	m.WebSocketMessagesTotal++
	m.mu.Unlock()
}

// RecordWebSocketError increments WebSocket error counter
func (m *Metrics) RecordWebSocketError() {
	m.mu.Lock()
	m.WebSocketErrorsTotal++
	m.mu.Unlock()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint string, statusCode int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpRequestsTotal[endpoint] == nil {
		m.httpRequestsTotal[endpoint] = make(map[int]int64)
	}
	m.httpRequestsTotal[endpoint][statusCode]++

	// Keep last 100 durations
	if len(m.httpRequestDurations[endpoint]) >= 100 {
		m.httpRequestDurations[endpoint] = m.httpRequestDurations[endpoint][1:]
	}
	m.httpRequestDurations[endpoint] = append(m.httpRequestDurations[endpoint], duration.Seconds())
}

// GetActiveConnections returns current WebSocket connections
func (m *Metrics) GetActiveConnections() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeConnections
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		m.mu.RLock()
		defer m.mu.RUnlock()

		emit := func(name string, value float64, labels ...string) {
			fmt.Fprintf(w, "beyondcx_%s%s %s\n", name, labelSet(labels), strconv.FormatFloat(value, 'f', -1, 64))
		}

		emit("uptime_seconds", time.Since(m.startTime).Seconds())

		for _, p := range sortedKeys(m.runsByProvenance) {
			emit("runs_total", float64(m.runsByProvenance[p]), "provenance", string(p))
		}
		emit("run_errors_total", float64(m.RunErrorsTotal))
		emit("upstream_errors_total", float64(m.UpstreamErrorsTotal))
		emit("last_run_duration_seconds", m.lastRunDuration.Seconds())
		emit("last_run_skill_groups", float64(m.lastRunSkillGroups))

		emit("cache_hits_total", float64(m.CacheHitsTotal))
		emit("cache_misses_total", float64(m.CacheMissesTotal))
		emit("cache_errors_total", float64(m.CacheErrorsTotal))

		emit("websocket_connections_total", float64(m.WebSocketConnectionsTotal))
		emit("websocket_disconnections_total", float64(m.WebSocketDisconnectionsTotal))
		emit("websocket_active_connections", float64(m.activeConnections))
		emit("websocket_messages_total", float64(m.WebSocketMessagesTotal))
		emit("websocket_errors_total", float64(m.WebSocketErrorsTotal))

		for _, endpoint := range sortedKeys(m.httpRequestsTotal) {
			byStatus := m.httpRequestsTotal[endpoint]
			for _, status := range sortedKeys(byStatus) {
				emit("http_requests_total", float64(byStatus[status]), "endpoint", endpoint, "status", strconv.Itoa(status))
			}
			if d := m.httpRequestDurations[endpoint]; len(d) > 0 {
				var sum float64
				for _, v := range d {
					sum += v
				}
				emit("http_request_duration_seconds_avg", sum/float64(len(d)), "endpoint", endpoint)
			}
		}
	}
}

// labelSet renders name/value pairs as {a="1",b="2"}
func labelSet(pairs []string) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, pairs[i]+"="+strconv.Quote(pairs[i+1]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
