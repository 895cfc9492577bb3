package reconcile

import (
	"encoding/json"
	"math"
	"slices"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/queuemetrics"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/tier"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func decode(t *testing.T, doc string) map[string]any {
	t.Helper()
	var raw map[string]any
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		t.Fatalf("invalid fixture: %v", err)
	}
	return raw
}

const coarseResult = `{
	"volumetry": {"volume_by_skill": {"billing": 2400, "tech": 800}},
	"operational_performance": {
		"aht_distribution": {"p10": 180, "p50": 300, "p90": 420},
		"escalation_rate": 12,
		"fcr_rate": 81,
		"abandonment_rate": 5
	}
}`

func TestFieldOffer(t *testing.T) {
	tests := []struct {
		name      string
		current   Field
		candidate Field
		expected  Field
	}{
		{"estimate fills missing", Field{}, Estimated(3), Estimated(3)},
		{"estimate replaces estimate", Estimated(3), Estimated(4), Estimated(4)},
		{"precise replaces estimate", Estimated(3), Precise(5), Precise(5)},
		{"estimate never replaces precise", Precise(5), Estimated(9), Precise(5)},
		{"missing never replaces", Precise(5), Field{}, Precise(5)},
		{"precise replaces precise", Precise(5), Precise(6), Precise(6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.current.Offer(tt.candidate)
			if got != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestResolveCoarseResult(t *testing.T) {
	snap, warnings := Resolve(decode(t, coarseResult))

	if snap.VolumeBySkill["billing"] != 2400 || snap.VolumeBySkill["tech"] != 800 {
		t.Errorf("unexpected volume by skill: %v", snap.VolumeBySkill)
	}
	if !snap.HasDistribution || snap.Distribution.P50 != 300 || snap.Distribution.P90 != 420 {
		t.Errorf("unexpected distribution: %+v", snap.Distribution)
	}
	if snap.EscalationRate != Precise(12) {
		t.Errorf("expected precise escalation 12, got %+v", snap.EscalationRate)
	}
	if !slices.Contains(warnings, "metrics_by_skill missing: per-skill rates estimated from global rates") {
		t.Errorf("expected a metrics_by_skill warning, got %v", warnings)
	}
	cv := snap.EstimatedCV()
	if !cv.IsEstimated() || !approxEqual(cv.Value, 40, 1e-9) {
		t.Errorf("expected estimated CV 40, got %+v", cv)
	}
}

func TestResolveFallbackKeys(t *testing.T) {
	raw := decode(t, `{
		"volumetria": {"volume_by_skill": [{"queue_skill": "sales", "count": 150}]},
		"operational_performance": {
			"aht_distribution": {"median": 200, "P90": 260},
			"metrics_by_skill": [
				{"skill_name": "sales", "volume": 150, "transfer_rate": 4, "fcr_real": 90, "aht_mean": 210}
			]
		},
		"economy_costs": {
			"potential_savings": {"annual_savings": 12000},
			"cpi_by_skill_channel": [
				{"queue_skill": "sales", "channel": "voice", "cpi_total": 4, "volume": 100},
				{"queue_skill": "sales", "channel": "chat", "cpi_total": 1, "volume": 50}
			]
		},
		"customer_satisfaction": {"csat_global": 87.5},
		"agentic_readiness": {"agentic_readiness": {
			"final_score": 6.4,
			"classification": {"label": "Assist"},
			"sub_scores": {"repetitivity": {"score": 7}, "predictability": 5}
		}}
	}`)
	snap, warnings := Resolve(raw)

	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
	if snap.VolumeBySkill["sales"] != 150 {
		t.Errorf("expected sales volume 150, got %v", snap.VolumeBySkill)
	}
	if snap.Distribution.P50 != 200 || snap.Distribution.P90 != 260 {
		t.Errorf("unexpected distribution: %+v", snap.Distribution)
	}
	if len(snap.Skills) != 1 || snap.Skills[0].Name != "sales" || snap.Skills[0].TransferRate != Precise(4) {
		t.Errorf("unexpected skills: %+v", snap.Skills)
	}
	if snap.PotentialSavings == nil || *snap.PotentialSavings != 12000 {
		t.Errorf("expected potential savings 12000, got %v", snap.PotentialSavings)
	}
	if !approxEqual(snap.CPIBySkill["sales"], 3, 1e-9) {
		t.Errorf("expected volume-weighted CPI 3, got %v", snap.CPIBySkill["sales"])
	}
	if snap.CSATGlobal == nil || *snap.CSATGlobal != 87.5 {
		t.Errorf("expected CSAT 87.5, got %v", snap.CSATGlobal)
	}
	if snap.Readiness.Score == nil || *snap.Readiness.Score != 6.4 || snap.Readiness.Label != "Assist" {
		t.Errorf("unexpected readiness: %+v", snap.Readiness)
	}
	if snap.Readiness.SubScores["repetitivity"] != 7 || snap.Readiness.SubScores["predictability"] != 5 {
		t.Errorf("unexpected sub scores: %v", snap.Readiness.SubScores)
	}
}

func TestResolveDropsNonFiniteNumbers(t *testing.T) {
	raw := map[string]any{
		"operational_performance": map[string]any{
			"escalation_rate":  math.NaN(),
			"fcr_rate":         math.Inf(1),
			"abandonment_rate": "NaN",
		},
	}
	snap, _ := Resolve(raw)
	if snap.EscalationRate.Known() || snap.FCRRate.Known() || snap.AbandonmentRate.Known() {
		t.Errorf("expected non-finite rates to be missing, got %+v %+v %+v",
			snap.EscalationRate, snap.FCRRate, snap.AbandonmentRate)
	}
}

func TestResolveNil(t *testing.T) {
	_, warnings := Resolve(nil)
	if len(warnings) != 1 {
		t.Errorf("expected one warning, got %v", warnings)
	}
}

func TestEstimationParity(t *testing.T) {
	snap, _ := Resolve(decode(t, coarseResult))
	r := NewReconciler(zerolog.Nop())
	groups, warnings := r.Reconcile(snap, nil, queuemetrics.Params{CostPerHour: 20, PeriodMonths: 1})

	if len(groups) != 2 {
		t.Fatalf("expected 2 skill groups, got %d", len(groups))
	}
	if len(warnings) == 0 {
		t.Errorf("expected estimation warnings")
	}

	volumes := map[string]int{"billing": 2400, "tech": 800}
	for _, g := range groups {
		expected := tier.Classify(tier.Input{
			Volume:       volumes[g.SkillGroupID],
			ValidVolume:  volumes[g.SkillGroupID],
			CVPercent:    (420.0 - 300.0) / 300.0 * 100,
			TransferRate: 12,
			FCRReal:      81,
			AHT:          300,
		})
		if g.Tier != expected.Tier {
			t.Errorf("%s: expected tier %s, got %s", g.SkillGroupID, expected.Tier, g.Tier)
		}
		if !approxEqual(g.AgenticScore, expected.AgenticScore, 1e-9) {
			t.Errorf("%s: expected score %v, got %v", g.SkillGroupID, expected.AgenticScore, g.AgenticScore)
		}
		if !slices.Contains(g.EstimatedFields, FieldCV) || !slices.Contains(g.EstimatedFields, FieldTransfer) {
			t.Errorf("%s: expected CV and transfer marked estimated, got %v", g.SkillGroupID, g.EstimatedFields)
		}
		if !slices.Contains(g.EstimatedFields, FieldVolume) {
			t.Errorf("%s: expected volume marked estimated", g.SkillGroupID)
		}
	}
}

func TestPreciseValuesWin(t *testing.T) {
	raw := decode(t, `{
		"volumetry": {"volume_by_skill": {"billing": 2400}},
		"operational_performance": {
			"aht_distribution": {"p50": 300, "p90": 420},
			"escalation_rate": 12,
			"fcr_rate": 81,
			"metrics_by_skill": [
				{"skill": "billing", "volume": 2400, "transfer_rate": 5, "fcr_real": 92, "aht_mean": 320}
			]
		}
	}`)
	snap, _ := Resolve(raw)
	r := NewReconciler(zerolog.Nop())

	groups, _ := r.Reconcile(snap, nil, queuemetrics.Params{CostPerHour: 20, PeriodMonths: 1})
	g := groups[0]
	if g.TransferRate != 5 || g.FCRReal != 92 || g.AHT != 320 {
		t.Errorf("expected per-skill values, got transfer %v fcr %v aht %v", g.TransferRate, g.FCRReal, g.AHT)
	}
	if g.FCRTechnical != 95 {
		t.Errorf("expected technical FCR 95, got %v", g.FCRTechnical)
	}
	if slices.Contains(g.EstimatedFields, FieldTransfer) || slices.Contains(g.EstimatedFields, FieldFCRTech) {
		t.Errorf("expected transfer and technical FCR to be precise, got %v", g.EstimatedFields)
	}
	if !slices.Contains(g.EstimatedFields, FieldCV) {
		t.Errorf("expected CV still estimated, got %v", g.EstimatedFields)
	}

	cached := &types.CachedMetrics{SkillGroups: []types.CachedSkillMetrics{{
		SkillGroupID: "billing",
		Volume:       2400,
		ValidVolume:  2300,
		AHTCV:        35,
		HasCV:        true,
		TransferRate: 7,
		HasTransfer:  true,
	}}}
	groups, _ = r.Reconcile(snap, cached, queuemetrics.Params{CostPerHour: 20, PeriodMonths: 1})
	g = groups[0]
	if g.AHTCV != 35 || g.TransferRate != 7 || g.ValidVolume != 2300 {
		t.Errorf("expected cached values, got cv %v transfer %v valid %d", g.AHTCV, g.TransferRate, g.ValidVolume)
	}
	if len(g.EstimatedFields) != 0 {
		t.Errorf("expected no estimated fields, got %v", g.EstimatedFields)
	}
}

func TestReconcileSkipsSkillsWithoutVolume(t *testing.T) {
	raw := decode(t, `{
		"operational_performance": {
			"metrics_by_skill": [{"skill": "ghost", "transfer_rate": 10}]
		}
	}`)
	snap, _ := Resolve(raw)
	groups, warnings := NewReconciler(zerolog.Nop()).Reconcile(snap, nil, queuemetrics.Params{})
	if len(groups) != 0 {
		t.Errorf("expected no groups, got %d", len(groups))
	}
	if len(warnings) != 1 {
		t.Errorf("expected one warning, got %v", warnings)
	}
}

func TestReconcileFCRFallsBackToTransfer(t *testing.T) {
	raw := decode(t, `{
		"volumetry": {"volume_by_skill": {"sales": 500}},
		"operational_performance": {"escalation_rate": 20}
	}`)
	snap, _ := Resolve(raw)
	groups, _ := NewReconciler(zerolog.Nop()).Reconcile(snap, nil, queuemetrics.Params{CostPerHour: 20})
	if groups[0].FCRReal != 80 {
		t.Errorf("expected FCR 80 from transfer, got %v", groups[0].FCRReal)
	}
}
