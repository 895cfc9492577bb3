package types

// Tier is the automation-suitability class of a queue or skill group
type Tier string

const (
	TierAutomate  Tier = "AUTOMATE"
	TierAssist    Tier = "ASSIST"
	TierAugment   Tier = "AUGMENT"
	TierHumanOnly Tier = "HUMAN-ONLY"
)

// Segment is the customer-value band a queue belongs to
type Segment string

const (
	SegmentHigh   Segment = "high"
	SegmentMedium Segment = "medium"
	SegmentLow    Segment = "low"
	SegmentNone   Segment = ""
)

// AHTMoments are the sufficient statistics of the valid handle-time samples.
// Pooling moments keeps the group CV identical to a direct computation.
type AHTMoments struct {
	N     int     `json:"n" dynamodbav:"n"`
	Sum   float64 `json:"sum" dynamodbav:"sum"`
	SumSq float64 `json:"sum_sq" dynamodbav:"sum_sq"`
}

// Add merges another set of moments
func (m AHTMoments) Add(o AHTMoments) AHTMoments {
	return AHTMoments{N: m.N + o.N, Sum: m.Sum + o.Sum, SumSq: m.SumSq + o.SumSq}
}

// AHTDistribution holds handle-time percentiles of the valid subset
type AHTDistribution struct {
	P10         float64 `json:"p10"`
	P50         float64 `json:"p50"`
	P90         float64 `json:"p90"`
	P90P50Ratio float64 `json:"p90_p50_ratio"`
}

// ScoreBreakdown holds the five 0-10 components of the agentic score
type ScoreBreakdown struct {
	Predictability float64 `json:"predictability"`
	Resolutivity   float64 `json:"resolutivity"`
	Volume         float64 `json:"volume"`
	DataQuality    float64 `json:"data_quality"`
	Simplicity     float64 `json:"simplicity"`
}

// Classification is the outcome of scoring one metrics tuple
type Classification struct {
	AgenticScore      float64        `json:"agentic_score"`
	Breakdown         ScoreBreakdown `json:"score_breakdown"`
	Tier              Tier           `json:"tier"`
	TierRationale     string         `json:"tier_rationale"`
	PriorityCandidate bool           `json:"is_priority_candidate"`
}

// QueueStats is the metric shape shared by queues and skill groups.
// Rates and CV are percentages.
type QueueStats struct {
	TotalVolume     int             `json:"total_volume"`
	ValidVolume     int             `json:"valid_volume"`
	AbandonedVolume int             `json:"abandoned_volume"`
	CostVolume      int             `json:"cost_volume"`
	AHT             float64         `json:"aht_mean"`
	AHTCV           float64         `json:"aht_cv"`
	AHTMoments      AHTMoments      `json:"aht_moments"`
	AHTDistribution AHTDistribution `json:"aht_distribution"`
	TransferRate    float64         `json:"transfer_rate"`
	FCRReal         float64         `json:"fcr_real"`
	FCRTechnical    float64         `json:"fcr_technical"`
	HoldTimeMean    float64         `json:"hold_time_mean"`
	AbandonmentRate float64         `json:"abandonment_rate"`
	RepeatRate7d    float64         `json:"repeat_rate_7d"`

	// PeriodCost covers the batch period; AnnualCost scales it to twelve months
	PeriodCost float64 `json:"period_cost"`
	AnnualCost float64 `json:"annual_cost"`
	CPI        float64 `json:"cpi"`

	Segment Segment `json:"segment,omitempty"`

	// EstimatedFields lists metrics derived from coarse aggregates instead of
	// per-entity values
	EstimatedFields []string `json:"estimated_fields,omitempty"`
}

// OperationalQueueMetrics is the aggregate of one routing queue
type OperationalQueueMetrics struct {
	QueueID      string `json:"queue_id"`
	SkillGroupID string `json:"skill_group_id"`
	QueueStats
	Classification
}

// SkillGroupMetrics aggregates every queue sharing a skill-group id
type SkillGroupMetrics struct {
	SkillGroupID string `json:"skill_group_id"`
	QueueStats
	Classification
	Queues []OperationalQueueMetrics `json:"queues"`
}
