package reconcile

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/stats"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

// Candidate key names, in order of preference. The external service has
// renamed most of these at least once.
var (
	keysVolumetry     = []string{"volumetry", "volumetria"}
	keysVolumeBySkill = []string{"volume_by_skill", "volumeBySkill", "skill_volume"}

	keysOperational     = []string{"operational_performance", "operationalPerformance", "performance"}
	keysAHTDistribution = []string{"aht_distribution", "ahtDistribution"}
	keysP10             = []string{"p10", "P10"}
	keysP50             = []string{"p50", "P50", "median"}
	keysP90             = []string{"p90", "P90"}
	keysEscalation      = []string{"escalation_rate", "transfer_rate", "escalationRate"}
	keysFCRRate         = []string{"fcr_rate", "fcr", "fcrRate"}
	keysAbandonment     = []string{"abandonment_rate", "abandon_rate", "abandonmentRate"}
	keysMetricsBySkill  = []string{"metrics_by_skill", "metricsBySkill", "skills"}

	keysSkillName    = []string{"skill", "queue_skill", "skill_name", "name"}
	keysSkillVolume  = []string{"volume", "total", "count"}
	keysSkillAHT     = []string{"aht_mean", "aht", "avg_aht"}
	keysSkillFCRReal = []string{"fcr_real", "fcrReal"}
	keysSkillFCRTech = []string{"fcr_tecnico", "fcr_technical", "fcrTecnico"}
	keysSkillHold    = []string{"hold_time_mean", "hold_time"}

	keysEconomy          = []string{"economy_costs", "economy", "costs"}
	keysPotentialSavings = []string{"potential_savings", "potentialSavings"}
	keysAnnualSavings    = []string{"annual_savings", "savings", "total"}
	keysCPIBySkill       = []string{"cpi_by_skill_channel", "cpiBySkillChannel"}
	keysCPI              = []string{"cpi_total", "cpi"}
	keysCostBreakdown    = []string{"cost_breakdown", "costBreakdown"}

	keysSatisfaction = []string{"customer_satisfaction", "satisfaction"}
	keysCSATGlobal   = []string{"csat_global", "csat", "csat_avg"}

	keysReadiness      = []string{"agentic_readiness", "agenticReadiness"}
	keysFinalScore     = []string{"final_score", "score"}
	keysClassification = []string{"classification"}
	keysLabel          = []string{"label", "name"}
	keysSubScores      = []string{"sub_scores", "subScores"}
)

// SkillMetrics are the per-skill figures the external service reports
type SkillMetrics struct {
	Name            string
	Volume          Field
	AHT             Field
	TransferRate    Field
	FCRReal         Field
	FCRTechnical    Field
	AbandonmentRate Field
	HoldTimeMean    Field
}

// Readiness is the service's own readiness verdict. Informational only.
type Readiness struct {
	Score     *float64
	Label     string
	SubScores map[string]float64
}

// Snapshot is the strict form of an external analysis result
type Snapshot struct {
	VolumeBySkill   map[string]int
	Distribution    types.AHTDistribution
	HasDistribution bool

	// Global rates, precise for the whole batch
	EscalationRate  Field
	FCRRate         Field
	AbandonmentRate Field

	Skills []SkillMetrics

	CPIBySkill       map[string]float64
	CostBreakdown    map[string]float64
	PotentialSavings *float64
	CSATGlobal       *float64
	Readiness        Readiness
}

// EstimatedCV approximates the AHT coefficient of variation, in percent,
// from the spread between median and P90
func (s Snapshot) EstimatedCV() Field {
	if !s.HasDistribution || s.Distribution.P50 <= 0 {
		return Field{}
	}
	cv := (s.Distribution.P90 - s.Distribution.P50) / s.Distribution.P50 * 100
	return Estimated(math.Max(cv, 0))
}

// SkillNames returns every skill the snapshot mentions, sorted
func (s Snapshot) SkillNames() []string {
	seen := make(map[string]bool, len(s.VolumeBySkill)+len(s.Skills))
	for name := range s.VolumeBySkill {
		seen[name] = true
	}
	for _, sm := range s.Skills {
		seen[sm.Name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve maps a raw external result onto a Snapshot. Missing sections are
// reported as warnings; nothing here fails.
func Resolve(raw map[string]any) (Snapshot, []string) {
	var (
		snap     Snapshot
		warnings []string
	)
	if raw == nil {
		return snap, []string{"external result is empty"}
	}
	clean, _ := sanitize(raw).(map[string]any)

	if vol, ok := object(clean, keysVolumetry); ok {
		snap.VolumeBySkill = resolveVolumeBySkill(vol)
	}
	if len(snap.VolumeBySkill) == 0 {
		warnings = append(warnings, "volumetry.volume_by_skill missing")
	}

	op, hasOp := object(clean, keysOperational)
	if !hasOp {
		warnings = append(warnings, "operational_performance missing")
	}

	if dist, ok := object(op, keysAHTDistribution); ok {
		p50, ok50 := numberAt(dist, keysP50)
		p90, ok90 := numberAt(dist, keysP90)
		if ok50 && ok90 {
			snap.HasDistribution = true
			snap.Distribution.P50 = p50
			snap.Distribution.P90 = p90
			snap.Distribution.P10, _ = numberAt(dist, keysP10)
			snap.Distribution.P90P50Ratio = stats.SafeDiv(p90, p50)
		}
	}
	if hasOp && !snap.HasDistribution {
		warnings = append(warnings, "aht_distribution missing: AHT variability cannot be estimated")
	}

	snap.EscalationRate = preciseAt(op, keysEscalation, 0, 100)
	snap.FCRRate = preciseAt(op, keysFCRRate, 0, 100)
	snap.AbandonmentRate = preciseAt(op, keysAbandonment, 0, 100)

	if items, ok := list(op, keysMetricsBySkill); ok {
		snap.Skills = resolveSkills(items)
	}
	if hasOp && len(snap.Skills) == 0 {
		warnings = append(warnings, "metrics_by_skill missing: per-skill rates estimated from global rates")
	}

	if eco, ok := object(clean, keysEconomy); ok {
		snap.PotentialSavings = resolveSavings(eco)
		snap.CPIBySkill = resolveCPIBySkill(eco)
		if cb, ok := object(eco, keysCostBreakdown); ok {
			snap.CostBreakdown = numbers(cb)
		}
	}

	if sat, ok := object(clean, keysSatisfaction); ok {
		if v, ok := numberAt(sat, keysCSATGlobal); ok {
			v = stats.Clamp(v, 0, 100)
			snap.CSATGlobal = &v
		}
	}

	snap.Readiness = resolveReadiness(clean)
	return snap, warnings
}

func resolveVolumeBySkill(vol map[string]any) map[string]int {
	v, ok := first(vol, keysVolumeBySkill)
	if !ok {
		return nil
	}
	out := make(map[string]int)
	switch t := v.(type) {
	case map[string]any:
		for name, n := range t {
			if f, ok := number(n); ok && f > 0 {
				out[name] = int(math.Round(f))
			}
		}
	case []any:
		for _, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			name, okName := text(m, keysSkillName)
			n, okVol := numberAt(m, keysSkillVolume)
			if okName && okVol && n > 0 {
				out[name] += int(math.Round(n))
			}
		}
	}
	return out
}

func resolveSkills(items []any) []SkillMetrics {
	out := make([]SkillMetrics, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, ok := text(m, keysSkillName)
		if !ok {
			continue
		}
		out = append(out, SkillMetrics{
			Name:            name,
			Volume:          preciseAt(m, keysSkillVolume, 0, math.MaxFloat64),
			AHT:             preciseAt(m, keysSkillAHT, 0, math.MaxFloat64),
			TransferRate:    preciseAt(m, keysEscalation, 0, 100),
			FCRReal:         preciseAt(m, keysSkillFCRReal, 0, 100),
			FCRTechnical:    preciseAt(m, keysSkillFCRTech, 0, 100),
			AbandonmentRate: preciseAt(m, keysAbandonment, 0, 100),
			HoldTimeMean:    preciseAt(m, keysSkillHold, 0, math.MaxFloat64),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func resolveSavings(eco map[string]any) *float64 {
	v, ok := first(eco, keysPotentialSavings)
	if !ok {
		return nil
	}
	if m, isMap := v.(map[string]any); isMap {
		v, ok = first(m, keysAnnualSavings)
		if !ok {
			return nil
		}
	}
	f, ok := number(v)
	if !ok || f < 0 {
		return nil
	}
	return &f
}

// resolveCPIBySkill averages the per-channel CPI of each skill, weighted by
// channel volume when reported
func resolveCPIBySkill(eco map[string]any) map[string]float64 {
	items, ok := list(eco, keysCPIBySkill)
	if !ok {
		return nil
	}
	num := make(map[string]float64)
	den := make(map[string]float64)
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, okName := text(m, keysSkillName)
		cpi, okCPI := numberAt(m, keysCPI)
		if !okName || !okCPI {
			continue
		}
		w := 1.0
		if v, ok := numberAt(m, keysSkillVolume); ok && v > 0 {
			w = v
		}
		num[name] += cpi * w
		den[name] += w
	}
	out := make(map[string]float64, len(num))
	for name := range num {
		out[name] = stats.SafeDiv(num[name], den[name])
	}
	return out
}

func resolveReadiness(raw map[string]any) Readiness {
	var r Readiness
	outer, ok := object(raw, keysReadiness)
	if !ok {
		return r
	}
	// the service nests the block under its own name
	inner := outer
	if nested, ok := object(outer, keysReadiness); ok {
		inner = nested
	}

	if v, ok := numberAt(inner, keysFinalScore); ok {
		v = stats.Clamp(v, 0, 10)
		r.Score = &v
	}
	if c, ok := first(inner, keysClassification); ok {
		switch t := c.(type) {
		case string:
			r.Label = t
		case map[string]any:
			r.Label, _ = text(t, keysLabel)
		}
	}
	if subs, ok := object(inner, keysSubScores); ok {
		r.SubScores = make(map[string]float64, len(subs))
		for name, v := range subs {
			if m, isMap := v.(map[string]any); isMap {
				v, _ = first(m, keysFinalScore)
			}
			if f, ok := number(v); ok {
				r.SubScores[name] = f
			}
		}
	}
	return r
}

// sanitize copies the decoded document, dropping NaN and infinite numbers
func sanitize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			if clean := sanitize(item); clean != nil {
				out[k] = clean
			}
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			out = append(out, sanitize(item))
		}
		return out
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		return t
	case string:
		switch strings.ToLower(t) {
		case "nan", "inf", "-inf", "infinity", "-infinity":
			return nil
		}
		return t
	default:
		return v
	}
}

func first(m map[string]any, keys []string) (any, bool) {
	if m == nil {
		return nil, false
	}
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func object(m map[string]any, keys []string) (map[string]any, bool) {
	v, ok := first(m, keys)
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

func list(m map[string]any, keys []string) ([]any, bool) {
	v, ok := first(m, keys)
	if !ok {
		return nil, false
	}
	items, ok := v.([]any)
	return items, ok && len(items) > 0
}

func text(m map[string]any, keys []string) (string, bool) {
	v, ok := first(m, keys)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		t = strings.TrimSpace(t)
		return t, t != ""
	case fmt.Stringer:
		return t.String(), true
	case float64, int, int64:
		return fmt.Sprint(t), true
	}
	return "", false
}

func numberAt(m map[string]any, keys []string) (float64, bool) {
	v, ok := first(m, keys)
	if !ok {
		return 0, false
	}
	return number(v)
}

// preciseAt reads a number as a precise field, clamped into [lo,hi]
func preciseAt(m map[string]any, keys []string, lo, hi float64) Field {
	v, ok := numberAt(m, keys)
	if !ok {
		return Field{}
	}
	return Precise(stats.Clamp(v, lo, hi))
}

func number(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func numbers(m map[string]any) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if f, ok := number(v); ok {
			out[k] = f
		}
	}
	return out
}
