package reconcile

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/aggregator"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/queuemetrics"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/tier"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

// Names used in QueueStats.EstimatedFields
const (
	FieldVolume      = "volume"
	FieldAHT         = "aht_mean"
	FieldCV          = "aht_cv"
	FieldTransfer    = "transfer_rate"
	FieldFCRReal     = "fcr_real"
	FieldFCRTech     = "fcr_technical"
	FieldAbandonment = "abandonment_rate"
)

// Reconciler turns an external result into the local metrics model
type Reconciler struct {
	logger zerolog.Logger
}

// NewReconciler creates a new reconciler
func NewReconciler(logger zerolog.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

// entry is the working set of one skill before it becomes a queue aggregate
type entry struct {
	name         string
	volume       Field
	aht          Field
	cv           Field
	transfer     Field
	fcrReal      Field
	fcrTech      Field
	abandonment  Field
	hold         Field
	validVolume  int
	moments      types.AHTMoments
	hasMoments   bool
	distribution types.AHTDistribution
}

// Reconcile builds one skill group per skill in the snapshot or cache.
// Global figures seed every skill as estimates; per-skill figures from the
// service and then from the cache replace them. Every group is classified
// and rolled up by the same code used for freshly computed queues.
func (r *Reconciler) Reconcile(snap Snapshot, cached *types.CachedMetrics, p queuemetrics.Params) ([]types.SkillGroupMetrics, []string) {
	bySkill := make(map[string]SkillMetrics, len(snap.Skills))
	for _, sm := range snap.Skills {
		bySkill[sm.Name] = sm
	}

	names := snap.SkillNames()
	if cached != nil {
		seen := make(map[string]bool, len(names))
		for _, n := range names {
			seen[n] = true
		}
		for _, c := range cached.SkillGroups {
			if !seen[c.SkillGroupID] {
				names = append(names, c.SkillGroupID)
			}
		}
		sort.Strings(names)
	}

	var (
		warnings  []string
		estimated = make(map[string]int)
		groups    = make([]types.SkillGroupMetrics, 0, len(names))
	)

	for _, name := range names {
		e := r.seed(name, snap)
		if sm, ok := bySkill[name]; ok {
			e.applySkill(sm)
		}
		if c, ok := cached.Lookup(name); ok {
			e.applyCache(c)
		}
		e.fillDerived()

		if e.volume.Or(0) <= 0 {
			warnings = append(warnings, fmt.Sprintf("skill %q has no volume and was skipped", name))
			r.logger.Warn().Str("skill_group", name).Msg("skill without volume skipped")
			continue
		}

		q := e.queue(p)
		for _, f := range q.EstimatedFields {
			estimated[f]++
		}
		groups = append(groups, aggregator.Combine(name, []types.OperationalQueueMetrics{q}))
	}

	fields := make([]string, 0, len(estimated))
	for f := range estimated {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		warnings = append(warnings, fmt.Sprintf("%s estimated for %d of %d skill groups", f, estimated[f], len(groups)))
		r.logger.Warn().
			Str("field", f).
			Int("skill_groups", estimated[f]).
			Msg("metric estimated from global aggregates")
	}

	r.logger.Info().
		Int("skill_groups", len(groups)).
		Bool("cache", cached != nil).
		Msg("external result reconciled")

	return groups, warnings
}

// seed fills every metric with the global estimate
func (r *Reconciler) seed(name string, snap Snapshot) *entry {
	e := &entry{name: name}
	if n, ok := snap.VolumeBySkill[name]; ok {
		e.volume = Estimated(float64(n))
	}
	if snap.HasDistribution {
		e.distribution = snap.Distribution
		if snap.Distribution.P50 > 0 {
			e.aht = Estimated(snap.Distribution.P50)
		}
	}
	e.cv = snap.EstimatedCV()
	e.transfer = snap.EscalationRate.AsEstimate()
	e.fcrReal = snap.FCRRate.AsEstimate()
	e.abandonment = snap.AbandonmentRate.AsEstimate()
	return e
}

func (e *entry) applySkill(sm SkillMetrics) {
	e.volume = e.volume.Offer(sm.Volume)
	e.aht = e.aht.Offer(sm.AHT)
	e.transfer = e.transfer.Offer(sm.TransferRate)
	e.fcrReal = e.fcrReal.Offer(sm.FCRReal)
	e.fcrTech = e.fcrTech.Offer(sm.FCRTechnical)
	e.abandonment = e.abandonment.Offer(sm.AbandonmentRate)
	e.hold = e.hold.Offer(sm.HoldTimeMean)
}

func (e *entry) applyCache(c types.CachedSkillMetrics) {
	if c.Volume > 0 {
		e.volume = e.volume.Offer(Precise(float64(c.Volume)))
		e.validVolume = c.ValidVolume
	}
	if c.AHT > 0 {
		e.aht = e.aht.Offer(Precise(c.AHT))
	}
	if c.HasCV {
		e.cv = e.cv.Offer(Precise(c.AHTCV))
	}
	if c.HasTransfer {
		e.transfer = e.transfer.Offer(Precise(c.TransferRate))
	}
	if c.HasFCR {
		e.fcrReal = e.fcrReal.Offer(Precise(c.FCRReal))
	}
	if c.AHTMoments.N > 0 {
		e.moments = c.AHTMoments
		e.hasMoments = true
	}
}

// fillDerived completes values that follow from others. Technical FCR
// inherits the source of the transfer rate it is derived from.
func (e *entry) fillDerived() {
	if e.transfer.Known() {
		e.fcrTech = e.fcrTech.Offer(Field{Value: 100 - e.transfer.Value, Source: e.transfer.Source})
		if !e.fcrReal.Known() {
			e.fcrReal = Estimated(100 - e.transfer.Value)
		}
	}
}

// queue builds the single-queue aggregate for the skill
func (e *entry) queue(p queuemetrics.Params) types.OperationalQueueMetrics {
	var s types.QueueStats

	s.TotalVolume = int(math.Round(e.volume.Value))
	s.ValidVolume = s.TotalVolume
	if e.validVolume > 0 && e.validVolume <= s.TotalVolume {
		s.ValidVolume = e.validVolume
	}
	s.AbandonmentRate = e.abandonment.Or(0)
	s.AbandonedVolume = int(math.Round(float64(s.TotalVolume) * s.AbandonmentRate / 100))
	s.CostVolume = s.TotalVolume - s.AbandonedVolume

	s.AHT = e.aht.Or(0)
	s.AHTCV = e.cv.Or(0)
	s.AHTDistribution = e.distribution
	if e.hasMoments && e.moments.N == s.ValidVolume {
		s.AHTMoments = e.moments
	}
	s.TransferRate = e.transfer.Or(0)
	s.FCRReal = e.fcrReal.Or(0)
	s.FCRTechnical = e.fcrTech.Or(0)
	s.HoldTimeMean = e.hold.Or(0)

	for _, f := range []struct {
		name  string
		field Field
	}{
		{FieldVolume, e.volume},
		{FieldAHT, e.aht},
		{FieldCV, e.cv},
		{FieldTransfer, e.transfer},
		{FieldFCRReal, e.fcrReal},
		{FieldFCRTech, e.fcrTech},
		{FieldAbandonment, e.abandonment},
	} {
		if f.field.IsEstimated() {
			s.EstimatedFields = append(s.EstimatedFields, f.name)
		}
	}
	sort.Strings(s.EstimatedFields)

	queuemetrics.ApplyCost(&s, p)

	q := types.OperationalQueueMetrics{
		QueueID:      e.name,
		SkillGroupID: e.name,
		QueueStats:   s,
	}
	q.Segment = p.Segments.Classify(e.name)
	q.Classification = tier.Classify(tier.InputFromStats(s))
	return q
}
