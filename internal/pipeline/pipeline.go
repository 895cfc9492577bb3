package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/aggregator"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/analysisclient"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/artifacts"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/ingestion"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/metrics"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/queuemetrics"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/reconcile"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
	"golang.org/x/sync/errgroup"
)

// ErrNoInput is returned when a run has neither a batch nor a service result
// to work from
var ErrNoInput = errors.New("no interactions and no analysis service available")

// AnalysisService is the external analysis backend
type AnalysisService interface {
	Analyze(ctx context.Context, req analysisclient.Request) (map[string]any, error)
}

// RemoteCache keeps the precise per-skill metrics of the last real batch
type RemoteCache interface {
	Save(ctx context.Context, metrics types.CachedMetrics) error
	Get(ctx context.Context) (*types.CachedMetrics, error)
}

// Notifier receives an event after every run
type Notifier interface {
	Notify(event types.RunEvent)
}

// Input describes one run. Interactions is the fresh batch and may be empty
// when only the external service result is available.
type Input struct {
	FileName     string
	Data         []byte
	Interactions []types.Interaction
	Options      types.AnalysisOptions
	Mode         analysisclient.Mode
	// PeriodMonths overrides the span derived from the batch when > 0
	PeriodMonths int
	Synthetic    bool
}

// Pipeline orchestrates one analysis run from input to artifacts
type Pipeline struct {
	service    AnalysisService
	cache      RemoteCache
	notifier   Notifier
	aggregator *aggregator.Aggregator
	reconciler *reconcile.Reconciler
	logger     zerolog.Logger
	now        func() time.Time
}

// New creates a pipeline. service and notifier may be nil; a nil cache
// disables caching.
func New(service AnalysisService, cache RemoteCache, notifier Notifier, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		service:    service,
		cache:      cache,
		notifier:   notifier,
		aggregator: aggregator.NewAggregator(logger),
		reconciler: reconcile.NewReconciler(logger),
		logger:     logger,
		now:        time.Now,
	}
}

// fetched is what the external collaborators returned for a run
type fetched struct {
	raw        map[string]any
	cached     *types.CachedMetrics
	backendErr error
}

// Run executes one analysis
func (p *Pipeline) Run(ctx context.Context, in Input) (*types.AnalysisResult, error) {
	start := p.now()
	runID := uuid.New().String()
	logger := p.logger.With().Str("run_id", runID).Logger()

	result, err := p.run(ctx, runID, in, logger)

	m := metrics.Get()
	if err != nil {
		m.RecordRunError()
		logger.Error().Err(err).Msg("analysis run failed")
		p.notify(types.RunEvent{RunID: runID, Status: "failed", Error: err.Error()})
		return nil, err
	}

	duration := p.now().Sub(start)
	m.RecordRun(result.Provenance, duration, len(result.SkillGroups))
	logger.Info().
		Str("provenance", string(result.Provenance)).
		Int("skill_groups", len(result.SkillGroups)).
		Int("warnings", len(result.Warnings)).
		Dur("duration", duration).
		Msg("analysis run completed")
	p.notify(types.RunEvent{
		RunID:       runID,
		Provenance:  result.Provenance,
		SkillGroups: len(result.SkillGroups),
		Status:      "completed",
	})
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, runID string, in Input, logger zerolog.Logger) (*types.AnalysisResult, error) {
	fresh := len(in.Interactions) > 0

	if in.Synthetic {
		if !fresh {
			return nil, ErrNoInput
		}
		result := p.local(runID, in, nil)
		result.Provenance = types.ProvenanceSynthetic
		return result, nil
	}

	if !fresh && p.service == nil {
		return nil, ErrNoInput
	}

	f, err := p.fetch(ctx, in, !fresh, logger)
	if err != nil {
		return nil, err
	}

	if !fresh {
		if f.backendErr != nil {
			return nil, f.backendErr
		}
		return p.reconciled(runID, in, f, logger), nil
	}

	var snap *reconcile.Snapshot
	var warnings []string
	provenance := types.ProvenanceBackend
	switch {
	case p.service == nil:
		provenance = types.ProvenanceFallback
		warnings = append(warnings, "analysis service not configured: computed locally")
	case f.backendErr != nil:
		provenance = types.ProvenanceFallback
		warnings = append(warnings, fmt.Sprintf("analysis service unavailable: computed locally (%v)", f.backendErr))
	default:
		s, w := reconcile.Resolve(f.raw)
		snap = &s
		warnings = append(warnings, w...)
	}

	result := p.local(runID, in, snap)
	result.Provenance = provenance
	result.Warnings = append(warnings, result.Warnings...)
	for _, w := range warnings {
		logger.Warn().Str("warning", w).Msg("partial analysis")
	}

	p.saveCache(ctx, in, result.SkillGroups, logger)
	return result, nil
}

// fetch calls the analysis service and, when wanted, reads the remote cache
// concurrently. Cache failures degrade to a miss. Service failures are
// returned in backendErr, except authentication failures which always abort.
func (p *Pipeline) fetch(ctx context.Context, in Input, wantCache bool, logger zerolog.Logger) (fetched, error) {
	var f fetched
	g, gctx := errgroup.WithContext(ctx)

	if p.service != nil {
		name, data, err := p.servicePayload(ctx, in)
		if err != nil {
			logger.Warn().Err(err).Str("file", in.FileName).Msg("cannot prepare file for the analysis service")
			f.backendErr = err
		} else {
			g.Go(func() error {
				raw, err := p.service.Analyze(gctx, analysisclient.Request{
					FileName: name,
					Data:     data,
					Economy:  economyFor(in.Options),
					Mode:     in.Mode,
				})
				if err != nil {
					metrics.Get().RecordUpstreamError()
					if errors.Is(err, analysisclient.ErrUnauthorized) {
						return err
					}
					f.backendErr = err
					return nil
				}
				f.raw = raw
				return nil
			})
		}
	}

	if wantCache && p.cache != nil {
		g.Go(func() error {
			cached, err := p.cache.Get(gctx)
			metrics.Get().RecordCacheLookup(cached != nil, err)
			if err != nil {
				logger.Warn().Err(err).Msg("remote cache unavailable, estimating")
				return nil
			}
			f.cached = cached
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fetched{}, err
	}
	return f, nil
}

// servicePayload converts spreadsheet uploads to CSV, the only format the
// analysis service reads. Without a parsed batch the raw file is parsed here.
func (p *Pipeline) servicePayload(ctx context.Context, in Input) (string, []byte, error) {
	if in.FileName == "" || ingestion.IsCSV(in.FileName) {
		return in.FileName, in.Data, nil
	}
	interactions := in.Interactions
	if len(interactions) == 0 {
		parsed, err := ingestion.NewIngestor(p.logger).ParseReader(ctx, in.FileName, bytes.NewReader(in.Data))
		if err != nil {
			return "", nil, err
		}
		interactions = parsed
	}
	return ingestion.ServicePayload(in.FileName, in.Data, interactions)
}

// local builds the hierarchy from the fresh batch. A backend snapshot, when
// present, contributes only totals.
func (p *Pipeline) local(runID string, in Input, snap *reconcile.Snapshot) *types.AnalysisResult {
	dateRange := batchRange(in.Interactions)
	cost := params(in, dateRange)

	queues := queuemetrics.ComputeAll(in.Interactions, cost)
	groups := p.aggregator.Rollup(queues)
	recomputeDistributions(groups, in.Interactions)

	volumetry := artifacts.BuildVolumetry(in.Interactions)
	operational := artifacts.BuildOperational(in.Interactions)
	satisfaction := artifacts.BuildSatisfaction(in.Interactions)
	result := p.assemble(runID, groups, in.Options, cost, snap)
	result.DateRange = dateRange
	result.Volumetry = &volumetry
	result.Operational = &operational
	result.Satisfaction = &satisfaction
	return result
}

// reconciled builds the hierarchy from the external result and cached metrics
func (p *Pipeline) reconciled(runID string, in Input, f fetched, logger zerolog.Logger) *types.AnalysisResult {
	snap, warnings := reconcile.Resolve(f.raw)
	cost := params(in, types.DateRange{})
	if f.cached != nil && in.Options.CostPerHour <= 0 && f.cached.CostPerHour > 0 {
		cost.CostPerHour = f.cached.CostPerHour
	}

	groups, more := p.reconciler.Reconcile(snap, f.cached, cost)
	warnings = append(warnings, more...)
	for _, w := range warnings {
		logger.Warn().Str("warning", w).Msg("partial upstream data")
	}

	result := p.assemble(runID, groups, in.Options, cost, &snap)
	result.Provenance = types.ProvenanceBackend
	result.Warnings = append(warnings, result.Warnings...)
	return result
}

func (p *Pipeline) assemble(runID string, groups []types.SkillGroupMetrics, opts types.AnalysisOptions, cost queuemetrics.Params, snap *reconcile.Snapshot) *types.AnalysisResult {
	var totalSavings, csat *float64
	if snap != nil {
		totalSavings = snap.PotentialSavings
		csat = snap.CSATGlobal
	}
	if opts.AvgCSAT != nil {
		csat = opts.AvgCSAT
	}

	heatmap := artifacts.BuildHeatmap(groups)
	opps := artifacts.EstimateOpportunities(groups, totalSavings)
	roadmap := artifacts.BuildRoadmap(opps)

	return &types.AnalysisResult{
		RunID:         runID,
		GeneratedAt:   p.now().UTC(),
		SkillGroups:   groups,
		Heatmap:       heatmap,
		Opportunities: opps,
		Roadmap:       roadmap,
		Economics:     artifacts.BuildEconomicModel(groups, roadmap, artifacts.DefaultEconomyParams(cost)),
		Summary:       artifacts.Summarize(heatmap, csat),
	}
}

func (p *Pipeline) saveCache(ctx context.Context, in Input, groups []types.SkillGroupMetrics, logger zerolog.Logger) {
	if p.cache == nil {
		return
	}
	entry := cacheEntry(in, groups)
	if err := p.cache.Save(ctx, entry); err != nil {
		logger.Warn().Err(err).Msg("failed to save metrics to remote cache")
		return
	}
	logger.Debug().Int("skill_groups", len(entry.SkillGroups)).Msg("metrics cached")
}

func (p *Pipeline) notify(event types.RunEvent) {
	if p.notifier == nil {
		return
	}
	event.Type = "analysis_run"
	event.Timestamp = p.now().UTC()
	p.notifier.Notify(event)
}

// cacheEntry keeps the precise per-group metrics a later reconciliation can
// use in place of estimates
func cacheEntry(in Input, groups []types.SkillGroupMetrics) types.CachedMetrics {
	entry := types.CachedMetrics{
		FileName:    in.FileName,
		RecordCount: len(in.Interactions),
		CostPerHour: in.Options.CostPerHour,
		SkillGroups: make([]types.CachedSkillMetrics, 0, len(groups)),
	}
	for _, g := range groups {
		measured := g.ValidVolume > 0
		entry.SkillGroups = append(entry.SkillGroups, types.CachedSkillMetrics{
			SkillGroupID: g.SkillGroupID,
			Volume:       g.TotalVolume,
			ValidVolume:  g.ValidVolume,
			AHT:          g.AHT,
			AHTCV:        g.AHTCV,
			AHTMoments:   g.AHTMoments,
			TransferRate: g.TransferRate,
			FCRReal:      g.FCRReal,
			HasCV:        measured,
			HasTransfer:  measured,
			HasFCR:       measured,
		})
	}
	return entry
}

func economyFor(opts types.AnalysisOptions) analysisclient.Economy {
	eco := analysisclient.Economy{LaborCostPerHour: opts.CostPerHour}
	if eco.LaborCostPerHour <= 0 {
		eco.LaborCostPerHour = queuemetrics.DefaultCostPerHour
	}
	if opts.Segments != nil {
		eco.CustomerSegments = make(map[string]string)
		for seg, patterns := range map[types.Segment][]string{
			types.SegmentHigh:   opts.Segments.High,
			types.SegmentMedium: opts.Segments.Medium,
			types.SegmentLow:    opts.Segments.Low,
		} {
			for _, pattern := range patterns {
				eco.CustomerSegments[pattern] = string(seg)
			}
		}
	}
	return eco
}

func params(in Input, dateRange types.DateRange) queuemetrics.Params {
	months := in.PeriodMonths
	if months <= 0 {
		months = dateRange.Months()
	}
	return queuemetrics.Params{
		CostPerHour:  in.Options.CostPerHour,
		PeriodMonths: months,
		Segments:     in.Options.Segments,
	}
}

func batchRange(interactions []types.Interaction) types.DateRange {
	var r types.DateRange
	for _, it := range interactions {
		if it.StartTime.IsZero() {
			continue
		}
		if r.From.IsZero() || it.StartTime.Before(r.From) {
			r.From = it.StartTime
		}
		if it.StartTime.After(r.To) {
			r.To = it.StartTime
		}
	}
	return r
}

// recomputeDistributions replaces the rolled-up percentiles with ones computed
// over each group's own handle times. Percentiles do not pool.
func recomputeDistributions(groups []types.SkillGroupMetrics, interactions []types.Interaction) {
	bySkill := make(map[string][]types.Interaction)
	for _, it := range interactions {
		bySkill[it.SkillGroupID] = append(bySkill[it.SkillGroupID], it)
	}
	for i := range groups {
		groups[i].AHTDistribution = queuemetrics.Distribution(queuemetrics.HandleTimes(bySkill[groups[i].SkillGroupID]))
	}
}

// SkillGroupIDs lists the group ids of a result, sorted
func SkillGroupIDs(r *types.AnalysisResult) []string {
	ids := make([]string, 0, len(r.SkillGroups))
	for _, g := range r.SkillGroups {
		ids = append(ids, g.SkillGroupID)
	}
	sort.Strings(ids)
	return ids
}
