package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/api"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/auth"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/config"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/pipeline"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/storage"
)

func TestHealthHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	healthHandler(rec, req)

	// Check status code
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	// Check content type
	contentType := rec.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", contentType)
	}

	var response map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if response["status"] != "ok" {
		t.Errorf("expected status ok, got %s", response["status"])
	}
	if response["service"] != "beyondcx-analytics" {
		t.Errorf("expected service beyondcx-analytics, got %s", response["service"])
	}
}

func testRouter(t *testing.T, skipAuth bool) http.Handler {
	t.Helper()
	cfg := &config.Config{AllowedOrigins: []string{"http://localhost:5173"}, CostPerHour: 20, SkipAuth: skipAuth}

	authenticator, err := auth.New(auth.Options{SkipAuth: skipAuth}, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create authenticator: %v", err)
	}

	cache := storage.NewNoopCache()
	runner := pipeline.New(nil, cache, nil, zerolog.Nop())
	analysis := api.NewAnalysisHandler(runner, cache, cfg.AnalysisOptions(), 0, zerolog.Nop())
	ws := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	return newRouter(cfg, authenticator, analysis, ws, zerolog.Nop())
}

func TestRouter(t *testing.T) {
	tests := []struct {
		name         string
		skipAuth     bool
		method       string
		path         string
		expectedCode int
	}{
		{"health is public", false, http.MethodGet, "/health", http.StatusOK},
		{"metrics are public", false, http.MethodGet, "/metrics", http.StatusOK},
		{"api needs a token", false, http.MethodGet, "/api/cache", http.StatusUnauthorized},
		{"ws needs a token", false, http.MethodGet, "/ws", http.StatusUnauthorized},
		{"cache status", true, http.MethodGet, "/api/cache", http.StatusOK},
		{"admin clears cache", true, http.MethodDelete, "/api/cache", http.StatusOK},
		{"synthetic run", true, http.MethodPost, "/api/analysis/synthetic?records=500", http.StatusOK},
		{"cached without upload", true, http.MethodPost, "/api/analysis/cached", http.StatusNotFound},
		{"upload needs a file", true, http.MethodPost, "/api/analysis", http.StatusBadRequest},
		{"ws reaches handler", true, http.MethodGet, "/ws", http.StatusTeapot},
		{"unknown route", true, http.MethodGet, "/api/agents", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := testRouter(t, tt.skipAuth)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.expectedCode {
				t.Errorf("expected status %d, got %d: %s", tt.expectedCode, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRouterSyntheticResult(t *testing.T) {
	router := testRouter(t, true)

	req := httptest.NewRequest(http.MethodPost, "/api/analysis/synthetic?seed=3&records=1000", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Run-Id") == "" {
		t.Error("expected a run id header")
	}
	if !strings.Contains(rec.Body.String(), `"provenance":"synthetic"`) {
		t.Errorf("expected synthetic provenance in %s", rec.Body.String())
	}
}
