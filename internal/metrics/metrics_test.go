package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

func TestRecordRun(t *testing.T) {
	m := New()
	m.RecordRun(types.ProvenanceBackend, 2*time.Second, 4)
	m.RecordRun(types.ProvenanceBackend, time.Second, 3)
	m.RecordRun(types.ProvenanceSynthetic, time.Second, 6)

	if got := m.Runs(types.ProvenanceBackend); got != 2 {
		t.Errorf("expected 2 backend runs, got %d", got)
	}
	if got := m.Runs(types.ProvenanceFallback); got != 0 {
		t.Errorf("expected 0 fallback runs, got %d", got)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	m := New()
	m.RecordCacheLookup(true, nil)
	m.RecordCacheLookup(false, nil)
	m.RecordCacheLookup(false, nil)
	m.RecordCacheLookup(true, errors.New("boom"))

	if m.CacheHitsTotal != 1 || m.CacheMissesTotal != 2 || m.CacheErrorsTotal != 1 {
		t.Errorf("expected 1/2/1 hits/misses/errors, got %d/%d/%d", m.CacheHitsTotal, m.CacheMissesTotal, m.CacheErrorsTotal)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordRun(types.ProvenanceFallback, time.Second, 2)
	m.RecordUpstreamError()
	m.RecordWebSocketConnect()
	m.RecordHTTPRequest("/api/analysis", http.StatusOK, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler()(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	expected := []string{
		`beyondcx_runs_total{provenance="fallback"} 1`,
		"beyondcx_upstream_errors_total 1",
		"beyondcx_last_run_skill_groups 2",
		"beyondcx_websocket_active_connections 1",
		`beyondcx_http_requests_total{endpoint="/api/analysis",status="200"} 1`,
		`beyondcx_http_request_duration_seconds_avg{endpoint="/api/analysis"} 0.01`,
	}
	for _, line := range expected {
		if !strings.Contains(body, line) {
			t.Errorf("expected %q in output:\n%s", line, body)
		}
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("expected text/plain, got %s", ct)
	}
}

func TestGetIsSingleton(t *testing.T) {
	if Get() != Get() {
		t.Error("expected the same instance")
	}
}
