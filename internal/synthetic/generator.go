package synthetic

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

// Provider yields interactions with the same shape as ingested ones
type Provider interface {
	Interactions(n int) []types.Interaction
}

// QueueWeight pairs an operational queue with a relative weight
type QueueWeight struct {
	QueueID string
	Weight  float64
}

// SkillProfile describes how one synthetic skill group behaves
type SkillProfile struct {
	SkillGroupID string
	Weight       float64
	Queues       []QueueWeight
	Channels     []types.Channel
	ChannelMix   []float64

	// Handle time in seconds
	AHTMean   float64
	AHTStdDev float64

	TransferProb float64
	RepeatProb   float64
	AbandonProb  float64
	NoiseProb    float64
	ZombieProb   float64
}

// DefaultProfiles covers the usual spread from routine to complex work
func DefaultProfiles() []SkillProfile {
	voiceChat := []types.Channel{types.ChannelVoice, types.ChannelChat, types.ChannelEmail}
	return []SkillProfile{
		{
			SkillGroupID: "billing",
			Weight:       30,
			Queues:       []QueueWeight{{"billing-inbound", 3}, {"billing-chat", 1}},
			Channels:     voiceChat,
			ChannelMix:   []float64{6, 3, 1},
			AHTMean:      320,
			AHTStdDev:    70,
			TransferProb: 0.04,
			RepeatProb:   0.05,
			AbandonProb:  0.04,
			NoiseProb:    0.02,
			ZombieProb:   0.005,
		},
		{
			SkillGroupID: "tech-support",
			Weight:       25,
			Queues:       []QueueWeight{{"tech-l1", 3}, {"tech-l2", 1}},
			Channels:     voiceChat,
			ChannelMix:   []float64{7, 2, 1},
			AHTMean:      620,
			AHTStdDev:    380,
			TransferProb: 0.22,
			RepeatProb:   0.15,
			AbandonProb:  0.08,
			NoiseProb:    0.03,
			ZombieProb:   0.01,
		},
		{
			SkillGroupID: "sales",
			Weight:       20,
			Queues:       []QueueWeight{{"sales-inbound", 4}, {"sales-callback", 1}},
			Channels:     voiceChat,
			ChannelMix:   []float64{8, 2, 0},
			AHTMean:      420,
			AHTStdDev:    150,
			TransferProb: 0.08,
			RepeatProb:   0.07,
			AbandonProb:  0.06,
			NoiseProb:    0.02,
			ZombieProb:   0.005,
		},
		{
			SkillGroupID: "retention",
			Weight:       10,
			Queues:       []QueueWeight{{"retention-save", 2}, {"retention-cancel", 1}},
			Channels:     voiceChat,
			ChannelMix:   []float64{9, 1, 0},
			AHTMean:      780,
			AHTStdDev:    600,
			TransferProb: 0.35,
			RepeatProb:   0.2,
			AbandonProb:  0.1,
			NoiseProb:    0.03,
			ZombieProb:   0.01,
		},
		{
			SkillGroupID: "claims",
			Weight:       10,
			Queues:       []QueueWeight{{"claims", 1}},
			Channels:     voiceChat,
			ChannelMix:   []float64{4, 2, 4},
			AHTMean:      540,
			AHTStdDev:    260,
			TransferProb: 0.15,
			RepeatProb:   0.12,
			AbandonProb:  0.05,
			NoiseProb:    0.02,
			ZombieProb:   0.005,
		},
		{
			SkillGroupID: "vip",
			Weight:       5,
			Queues:       []QueueWeight{{"vip-priority", 1}},
			Channels:     voiceChat,
			ChannelMix:   []float64{1, 0, 0},
			AHTMean:      450,
			AHTStdDev:    120,
			TransferProb: 0.03,
			RepeatProb:   0.04,
			AbandonProb:  0.02,
			NoiseProb:    0.01,
			ZombieProb:   0,
		},
	}
}

// Interactions per hour of day: quiet nights, a morning peak, busy afternoon
var hourWeights = []float64{
	1, 1, 1, 1, 1, 2, 4, 8, 14, 18, 22, 22,
	20, 20, 21, 20, 18, 15, 12, 10, 7, 5, 3, 2,
}

const (
	periodDays = 30
	agentCount = 200
	minHandle  = 30.0
)

// Generator creates reproducible interaction batches
type Generator struct {
	rng      *rand.Rand
	profiles []SkillProfile
	start    time.Time
	seq      int
}

// NewGenerator creates a generator with the default profiles
func NewGenerator(seed int64) *Generator {
	return NewGeneratorWithProfiles(seed, DefaultProfiles())
}

// NewGeneratorWithProfiles creates a generator for custom profiles
func NewGeneratorWithProfiles(seed int64, profiles []SkillProfile) *Generator {
	return &Generator{
		rng:      rand.New(rand.NewSource(seed)),
		profiles: profiles,
		start:    time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Period is the span every generated interaction falls into
func (g *Generator) Period() types.DateRange {
	return types.DateRange{
		From: g.start,
		To:   g.start.AddDate(0, 0, periodDays).Add(-time.Second),
	}
}

// Interactions generates n interactions
func (g *Generator) Interactions(n int) []types.Interaction {
	if n <= 0 || len(g.profiles) == 0 {
		return nil
	}

	weights := make([]float64, len(g.profiles))
	for i, p := range g.profiles {
		weights[i] = p.Weight
	}

	out := make([]types.Interaction, 0, n)
	for i := 0; i < n; i++ {
		p := weightedChoice(g.rng, g.profiles, weights)
		out = append(out, g.interaction(p))
	}
	return out
}

func (g *Generator) interaction(p SkillProfile) types.Interaction {
	g.seq++

	queueWeights := make([]float64, len(p.Queues))
	for i, q := range p.Queues {
		queueWeights[i] = q.Weight
	}
	queue := p.SkillGroupID
	if len(p.Queues) > 0 {
		queue = weightedChoice(g.rng, p.Queues, queueWeights).QueueID
	}

	channel := types.ChannelVoice
	if len(p.Channels) > 0 && len(p.ChannelMix) == len(p.Channels) {
		channel = weightedChoice(g.rng, p.Channels, p.ChannelMix)
	}

	it := types.Interaction{
		ID:           fmt.Sprintf("INT-%07d", g.seq),
		StartTime:    g.startTime(),
		QueueID:      queue,
		SkillGroupID: p.SkillGroupID,
		Channel:      channel,
		AgentID:      fmt.Sprintf("AGT-%05d", g.rng.Intn(agentCount)+1),
		Status:       types.StatusValid,
	}

	roll := g.rng.Float64()
	switch {
	case roll < p.AbandonProb:
		it.Abandoned = true
		it.Status = types.StatusAbandon
		it.ConversationTime = float64(g.rng.Intn(60))
		return it
	case roll < p.AbandonProb+p.NoiseProb:
		it.Status = types.StatusNoise
		it.TalkTime = float64(3 + g.rng.Intn(7))
		it.ConversationTime = it.TalkTime
		return it
	case roll < p.AbandonProb+p.NoiseProb+p.ZombieProb:
		it.Status = types.StatusZombie
		it.TalkTime = float64(4*3600 + g.rng.Intn(3600))
		it.ConversationTime = it.TalkTime
		return it
	}

	handle := p.AHTMean + g.rng.NormFloat64()*p.AHTStdDev
	if handle < minHandle {
		handle = minHandle
	}
	holdShare := 0.05 + g.rng.Float64()*0.1
	it.HoldTime = round1(handle * holdShare)
	it.WrapTime = round1(handle * 0.15)
	it.TalkTime = round1(handle - it.HoldTime - it.WrapTime)
	it.ConversationTime = it.TalkTime + it.HoldTime

	it.Transferred = g.rng.Float64() < p.TransferProb
	repeat := g.rng.Float64() < p.RepeatProb
	it.RepeatContact7d = &repeat
	return it
}

func (g *Generator) startTime() time.Time {
	day := g.rng.Intn(periodDays)
	hour := weightedChoice(g.rng, hourIndexes(), hourWeights)
	sec := g.rng.Intn(3600)
	return g.start.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour + time.Duration(sec)*time.Second)
}

func hourIndexes() []int {
	hours := make([]int, 24)
	for i := range hours {
		hours[i] = i
	}
	return hours
}

// weightedChoice selects an item based on weights
func weightedChoice[T any](rng *rand.Rand, items []T, weights []float64) T {
	var total float64
	for _, w := range weights {
		total += w
	}

	r := rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return items[i]
		}
	}
	return items[len(items)-1]
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
