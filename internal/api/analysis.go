package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/analysisclient"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/ingestion"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/pipeline"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/synthetic"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

const (
	maxUploadBytes    = 64 << 20
	maxMemoryBytes    = 32 << 20
	defaultSeed       = 42
	defaultRecords    = 5000
	maxSyntheticCount = 200000
)

// Runner executes analysis runs
type Runner interface {
	Run(ctx context.Context, in pipeline.Input) (*types.AnalysisResult, error)
}

// MetricsCache is the part of the remote cache the API exposes
type MetricsCache interface {
	Get(ctx context.Context) (*types.CachedMetrics, error)
	Clear(ctx context.Context) error
}

// upload is the last file received, kept so the cached route can resend it
type upload struct {
	fileName string
	data     []byte
	mode     analysisclient.Mode
	options  types.AnalysisOptions
}

// AnalysisHandler serves the analysis endpoints
type AnalysisHandler struct {
	runner       Runner
	cache        MetricsCache
	ingestor     *ingestion.Ingestor
	defaults     types.AnalysisOptions
	periodMonths int
	logger       zerolog.Logger

	mu   sync.Mutex
	last *upload
}

// NewAnalysisHandler creates a new AnalysisHandler. defaults fill the
// options a request leaves out.
func NewAnalysisHandler(runner Runner, cache MetricsCache, defaults types.AnalysisOptions, periodMonths int, logger zerolog.Logger) *AnalysisHandler {
	logger = logger.With().Str("component", "analysis_handler").Logger()
	return &AnalysisHandler{
		runner:       runner,
		cache:        cache,
		ingestor:     ingestion.NewIngestor(logger),
		defaults:     defaults,
		periodMonths: periodMonths,
		logger:       logger,
	}
}

// Upload ingests an interaction export and analyses it
// POST /api/analysis
func (h *AnalysisHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	opts, err := h.options(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	interactions, err := h.ingestor.ParseReader(r.Context(), header.Filename, bytes.NewReader(data))
	if err != nil {
		h.logger.Warn().Err(err).Str("file", header.Filename).Msg("rejected upload")
		writeError(w, statusFor(err), err.Error())
		return
	}

	report := ingestion.Validate(interactions)
	if !report.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":    "file contains no usable interactions",
			"warnings": report.Warnings,
			"stats":    report.Stats,
		})
		return
	}

	// re-analyses go straight to the service, which only reads CSV
	payloadName, payload, err := ingestion.ServicePayload(header.Filename, data, interactions)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	mode := analysisclient.ParseMode(r.FormValue("mode"))
	h.remember(&upload{fileName: payloadName, data: payload, mode: mode, options: opts})

	h.run(w, r, pipeline.Input{
		FileName:     header.Filename,
		Data:         data,
		Interactions: interactions,
		Options:      opts,
		Mode:         mode,
		PeriodMonths: h.periodMonths,
	}, report.Warnings)
}

// Cached re-analyses the last upload through the analysis service,
// reconciled with the cached precise metrics
// POST /api/analysis/cached
func (h *AnalysisHandler) Cached(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	last := h.last
	h.mu.Unlock()

	if last == nil {
		writeError(w, http.StatusNotFound, "no previous upload to re-analyse")
		return
	}

	h.run(w, r, pipeline.Input{
		FileName:     last.fileName,
		Data:         last.data,
		Options:      last.options,
		Mode:         last.mode,
		PeriodMonths: h.periodMonths,
	}, nil)
}

// Synthetic analyses a generated batch
// POST /api/analysis/synthetic?seed=N&records=M
func (h *AnalysisHandler) Synthetic(w http.ResponseWriter, r *http.Request) {
	seed, err := queryInt(r, "seed", defaultSeed)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	records, err := queryInt(r, "records", defaultRecords)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if records <= 0 || records > maxSyntheticCount {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("records must be between 1 and %d", maxSyntheticCount))
		return
	}

	gen := synthetic.NewGenerator(int64(seed))
	h.run(w, r, pipeline.Input{
		FileName:     fmt.Sprintf("synthetic-%d.csv", seed),
		Interactions: gen.Interactions(records),
		Options:      h.defaults,
		Synthetic:    true,
	}, nil)
}

// CacheStatus reports whether precise metrics are cached
// GET /api/cache
func (h *AnalysisHandler) CacheStatus(w http.ResponseWriter, r *http.Request) {
	cached, err := h.cache.Get(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read metrics cache")
		writeError(w, http.StatusBadGateway, "metrics cache unavailable")
		return
	}
	if cached == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"cached": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cached":        true,
		"file_name":     cached.FileName,
		"record_count":  cached.RecordCount,
		"cached_at":     cached.CachedAt,
		"cost_per_hour": cached.CostPerHour,
		"skill_groups":  len(cached.SkillGroups),
	})
}

// ClearCache drops the cached metrics and the remembered upload
// DELETE /api/cache
func (h *AnalysisHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Clear(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("failed to clear metrics cache")
		writeError(w, http.StatusBadGateway, "failed to clear cache")
		return
	}
	h.remember(nil)

	h.logger.Info().Msg("metrics cache cleared")
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "cache cleared"})
}

func (h *AnalysisHandler) run(w http.ResponseWriter, r *http.Request, in pipeline.Input, warnings []string) {
	result, err := h.runner.Run(r.Context(), in)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if len(warnings) > 0 {
		result.Warnings = append(warnings, result.Warnings...)
	}
	w.Header().Set("X-Run-Id", result.RunID)
	writeJSON(w, http.StatusOK, result)
}

func (h *AnalysisHandler) remember(u *upload) {
	h.mu.Lock()
	h.last = u
	h.mu.Unlock()
}

// options reads the run options from the form, falling back to the defaults
func (h *AnalysisHandler) options(r *http.Request) (types.AnalysisOptions, error) {
	opts := h.defaults

	if raw := strings.TrimSpace(r.FormValue("cost_per_hour")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			return opts, fmt.Errorf("cost_per_hour must be a positive number")
		}
		opts.CostPerHour = v
	}

	if raw := strings.TrimSpace(r.FormValue("avg_csat")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 100 {
			return opts, fmt.Errorf("avg_csat must be between 0 and 100")
		}
		opts.AvgCSAT = &v
	}

	if raw := strings.TrimSpace(r.FormValue("segments")); raw != "" {
		var segments types.SegmentMapping
		if err := json.Unmarshal([]byte(raw), &segments); err != nil {
			return opts, fmt.Errorf("segments must be a JSON object: %v", err)
		}
		opts.Segments = &segments
	}

	return opts, nil
}

// statusFor maps run and ingestion errors onto HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, analysisclient.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, analysisclient.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, ingestion.ErrNoRecords),
		errors.Is(err, ingestion.ErrMissingColumns),
		errors.Is(err, ingestion.ErrUnsupportedFormat),
		errors.Is(err, ingestion.ErrUnreadable),
		errors.Is(err, pipeline.ErrNoInput):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func queryInt(r *http.Request, key string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", key, raw)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
