package types

import "time"

// HeatmapCell is one visualization row per skill group. Scores are 0-100,
// higher is better.
type HeatmapCell struct {
	SkillGroupID     string  `json:"skill_group_id"`
	Volume           int     `json:"volume"`
	ValidVolume      int     `json:"valid_volume"`
	CostVolume       int     `json:"cost_volume"`
	AHT              float64 `json:"aht_mean"`
	FCR              float64 `json:"fcr_real"`
	AHTScore         float64 `json:"aht_score"`
	FCRScore         float64 `json:"fcr_score"`
	TransferScore    float64 `json:"transfer_score"`
	VariabilityScore float64 `json:"variability_score"`

	// Raw readiness dimensions, 0-10
	Predictability float64 `json:"predictability"`
	Simplicity     float64 `json:"simplicity"`
	Repetitivity   float64 `json:"repetitivity"`

	AgenticScore float64 `json:"agentic_score"`
	Tier         Tier    `json:"tier"`
	CPI          float64 `json:"cpi"`
	HasCPI       bool    `json:"has_cpi"`
	AnnualCost   float64 `json:"annual_cost"`
	Segment      Segment `json:"segment,omitempty"`
}

// SummaryKPIs are the headline figures. They are always derived from the
// heatmap so every view reports the same numbers.
type SummaryKPIs struct {
	TotalVolume int      `json:"total_volume"`
	GlobalCPI   float64  `json:"global_cpi"`
	GlobalAHT   float64  `json:"global_aht"`
	GlobalFCR   float64  `json:"global_fcr"`
	AnnualCost  float64  `json:"annual_cost"`
	AvgCSAT     *float64 `json:"avg_csat,omitempty"`
}

// Opportunity is a savings projection for one skill group
type Opportunity struct {
	SkillGroupID string  `json:"skill_group_id"`
	Tier         Tier    `json:"tier"`
	Readiness    float64 `json:"readiness"`
	Weight       float64 `json:"weight"`
	Savings      float64 `json:"savings"`
	Impact       float64 `json:"impact"`
	Feasibility  float64 `json:"feasibility"`
}

// RoadmapPhase names a roadmap wave
type RoadmapPhase string

const (
	PhaseAutomate RoadmapPhase = "Automate"
	PhaseAssist   RoadmapPhase = "Assist"
	PhaseAugment  RoadmapPhase = "Augment"
)

// RoadmapInitiative is one phase of the automation roadmap
type RoadmapInitiative struct {
	Phase         RoadmapPhase `json:"phase"`
	Tier          Tier         `json:"tier"`
	SkillGroupIDs []string     `json:"skill_group_ids"`
	Timeline      string       `json:"timeline"`
	StartMonth    int          `json:"start_month"`
	EndMonth      int          `json:"end_month"`
	Investment    float64      `json:"investment"`
	Savings       float64      `json:"savings"`
	Resources     []string     `json:"resources"`
}

// CostBreakdown splits the annual cost into labor, overhead and technology
type CostBreakdown struct {
	LaborAnnual    float64 `json:"labor_annual"`
	OverheadAnnual float64 `json:"overhead_annual"`
	TechAnnual     float64 `json:"tech_annual"`
	LaborPct       float64 `json:"labor_pct"`
	OverheadPct    float64 `json:"overhead_pct"`
	TechPct        float64 `json:"tech_pct"`
}

// EconomicModel is the financial projection of the roadmap
type EconomicModel struct {
	CurrentAnnualCost float64 `json:"current_annual_cost"`
	FutureAnnualCost  float64 `json:"future_annual_cost"`
	AnnualSavings     float64 `json:"annual_savings"`
	Investment        float64 `json:"investment"`
	PaybackMonths     int     `json:"payback_months"`
	ROI3Year          float64 `json:"roi_3yr"`
	NPV               float64 `json:"npv"`

	// InefficiencyCost is the annual cost of the slow tail (P90 over P50)
	InefficiencyCost float64 `json:"inefficiency_cost"`

	CostBreakdown    CostBreakdown            `json:"cost_breakdown"`
	CostBySkillGroup map[string]float64       `json:"cost_by_skill_group"`
	SavingsByPhase   map[RoadmapPhase]float64 `json:"savings_by_phase"`
}

// Volumetry describes how volume is spread over channels, hours and groups
type Volumetry struct {
	VolumeByChannel       map[Channel]int     `json:"volume_by_channel"`
	ChannelSharePct       map[Channel]float64 `json:"channel_share_pct"`
	VolumeBySkillGroup    map[string]int      `json:"volume_by_skill_group"`
	PeakOffPeakRatio      float64             `json:"peak_offpeak_ratio"`
	Top20ConcentrationPct float64             `json:"top20_concentration_pct"`

	// Heatmap24x7 counts interactions per weekday (0 is Monday) and hour
	Heatmap24x7          [7][24]int `json:"heatmap_24x7"`
	// MonthlySeasonalityCV is the CV of monthly volume in percent, nil with
	// fewer than two months of data
	MonthlySeasonalityCV *float64   `json:"monthly_seasonality_cv,omitempty"`
}

// HandleTimeP50 is the median of each handle time component of a skill group
type HandleTimeP50 struct {
	SkillGroupID string  `json:"queue_skill"`
	TalkP50      float64 `json:"talk_p50"`
	HoldP50      float64 `json:"hold_p50"`
	ACWP50       float64 `json:"acw_p50"`
}

// OperationalPerformance holds batch level handling indicators
type OperationalPerformance struct {
	// HighHoldTimeRatePct is the share of interactions held longer than
	// HighHoldThresholdSec
	HighHoldTimeRatePct  float64         `json:"high_hold_time_rate"`
	HighHoldThresholdSec float64         `json:"high_hold_threshold_sec"`
	HandleTimeP50BySkill []HandleTimeP50 `json:"talk_hold_acw_p50_by_skill"`
}

// Correlation is a Pearson coefficient with its sample size. R is nil when it
// cannot be computed, Interpretation then says why.
type Correlation struct {
	R              *float64 `json:"r"`
	N              int      `json:"n"`
	Interpretation string   `json:"interpretation_code"`
}

// Correlation interpretation codes
const (
	CorrelationNoData       = "no_data"
	CorrelationInsufficient = "insufficient"
	CorrelationNoVariance   = "no_variance"
	CorrelationNegative     = "negative"
	CorrelationPositive     = "positive"
	CorrelationNeutral      = "neutral"
)

// Sweet spot classes of the CSAT/AHT skill summary
const (
	SweetSpotAutomate   = "ideal_automate"
	SweetSpotNeedsHuman = "requires_human"
	SweetSpotNeutral    = "neutral"
)

// CSATAHTSkill places a skill group on the CSAT versus AHT plane
type CSATAHTSkill struct {
	SkillGroupID   string  `json:"queue_skill"`
	CSATAvg        float64 `json:"csat_avg"`
	AHTAvg         float64 `json:"aht_avg"`
	Classification string  `json:"classification"`
}

// ScoreMatrix maps skill group and channel to an average survey score
type ScoreMatrix map[string]map[Channel]float64

// SatisfactionExperience summarizes the optional survey columns. Every field
// is empty when the export carries no survey data.
type SatisfactionExperience struct {
	CSATGlobal         *float64       `json:"csat_global,omitempty"`
	CSATBySkillChannel ScoreMatrix    `json:"csat_avg_by_skill_channel,omitempty"`
	NPSBySkillChannel  ScoreMatrix    `json:"nps_avg_by_skill_channel,omitempty"`
	CESBySkillChannel  ScoreMatrix    `json:"ces_avg_by_skill_channel,omitempty"`
	CSATAHTCorrelation Correlation    `json:"csat_aht_correlation"`
	CSATAHTSkills      []CSATAHTSkill `json:"csat_aht_skill_summary,omitempty"`
}

// Provenance tells the presentation layer where a result came from
type Provenance string

const (
	ProvenanceSynthetic Provenance = "synthetic"
	ProvenanceBackend   Provenance = "backend"
	ProvenanceFallback  Provenance = "fallback"
)

// AnalysisResult is everything one run exposes
type AnalysisResult struct {
	RunID         string                  `json:"run_id"`
	GeneratedAt   time.Time               `json:"generated_at"`
	Provenance    Provenance              `json:"provenance"`
	DateRange     DateRange               `json:"date_range"`
	SkillGroups   []SkillGroupMetrics     `json:"skill_groups"`
	Heatmap       []HeatmapCell           `json:"heatmap"`
	Opportunities []Opportunity           `json:"opportunities"`
	Roadmap       []RoadmapInitiative     `json:"roadmap"`
	Economics     EconomicModel           `json:"economics"`
	Summary       SummaryKPIs             `json:"summary"`
	Volumetry     *Volumetry              `json:"volumetry,omitempty"`
	Operational   *OperationalPerformance `json:"operational_performance,omitempty"`
	Satisfaction  *SatisfactionExperience `json:"satisfaction_experience,omitempty"`
	Warnings      []string                `json:"warnings,omitempty"`
}

// RunEvent is pushed to dashboards when a run finishes
type RunEvent struct {
	Type        string     `json:"type"`
	RunID       string     `json:"run_id"`
	Provenance  Provenance `json:"provenance,omitempty"`
	SkillGroups int        `json:"skill_groups"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
}
