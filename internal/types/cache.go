package types

// CachedSkillMetrics is the precise per-skill-group slice kept in the remote
// cache. Zero values mean "not measured".
type CachedSkillMetrics struct {
	SkillGroupID string     `json:"skill_group_id" dynamodbav:"SkillGroupID"`
	Volume       int        `json:"volume" dynamodbav:"Volume"`
	ValidVolume  int        `json:"valid_volume" dynamodbav:"ValidVolume"`
	AHT          float64    `json:"aht_mean" dynamodbav:"AHT"`
	AHTCV        float64    `json:"aht_cv" dynamodbav:"AHTCV"`
	AHTMoments   AHTMoments `json:"aht_moments" dynamodbav:"AHTMoments"`
	TransferRate float64    `json:"transfer_rate" dynamodbav:"TransferRate"`
	FCRReal      float64    `json:"fcr_real" dynamodbav:"FCRReal"`
	HasCV        bool       `json:"has_cv" dynamodbav:"HasCV"`
	HasTransfer  bool       `json:"has_transfer" dynamodbav:"HasTransfer"`
	HasFCR       bool       `json:"has_fcr" dynamodbav:"HasFCR"`
}

// CachedMetrics is the single item the remote cache stores
type CachedMetrics struct {
	CacheKey    string               `json:"-" dynamodbav:"CacheKey"`
	FileName    string               `json:"file_name" dynamodbav:"FileName"`
	RecordCount int                  `json:"record_count" dynamodbav:"RecordCount"`
	CachedAt    string               `json:"cached_at" dynamodbav:"CachedAt"`
	CostPerHour float64              `json:"cost_per_hour" dynamodbav:"CostPerHour"`
	SkillGroups []CachedSkillMetrics `json:"skill_groups" dynamodbav:"SkillGroups"`
}

// Lookup returns the cached slice for a skill group
func (c *CachedMetrics) Lookup(skillGroupID string) (CachedSkillMetrics, bool) {
	if c == nil {
		return CachedSkillMetrics{}, false
	}
	for _, s := range c.SkillGroups {
		if s.SkillGroupID == skillGroupID {
			return s, true
		}
	}
	return CachedSkillMetrics{}, false
}
