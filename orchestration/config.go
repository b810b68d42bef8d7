package orchestration

import (
	"time"

	"github.com/trm-os/reasoning-core/agents"
	"github.com/trm-os/reasoning-core/internal/eventbus"
	"github.com/trm-os/reasoning-core/internal/store"
)

// Config is the core's structured configuration record (spec §6.5),
// with an EventBus/Store selector added per SPEC_FULL.md §6 since a
// hosting binary must choose a concrete backend somewhere.
type Config struct {
	MaxBatchConcurrency       int
	DefaultPriorityMethod     string
	RuleEngineDefaultsEnabled bool
	WinScoringWeights         agents.WinWeights
	PerformanceHistoryLimit   int

	EventBus eventbus.Bus
	Store    store.Store

	ActionTokenTTL time.Duration
}

// DefaultConfig returns spec §6.5's documented defaults, with an
// in-process MemoryBus and CacheStore so Engine is usable with zero
// external wiring.
func DefaultConfig() Config {
	return Config{
		MaxBatchConcurrency:       16,
		DefaultPriorityMethod:     "weighted_average",
		RuleEngineDefaultsEnabled: true,
		WinScoringWeights:         agents.WinWeights{"wisdom": 0.4, "intelligence": 0.4, "networking": 0.2},
		PerformanceHistoryLimit:   100,
		EventBus:                  eventbus.NewMemoryBus(),
		Store:                     store.NewCacheStore(30 * time.Minute),
		ActionTokenTTL:            time.Hour,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxBatchConcurrency <= 0 {
		c.MaxBatchConcurrency = 16
	}
	if c.DefaultPriorityMethod == "" {
		c.DefaultPriorityMethod = "weighted_average"
	}
	if c.WinScoringWeights == nil {
		c.WinScoringWeights = agents.WinWeights{"wisdom": 0.4, "intelligence": 0.4, "networking": 0.2}
	}
	if c.PerformanceHistoryLimit <= 0 {
		c.PerformanceHistoryLimit = 100
	}
	if c.EventBus == nil {
		c.EventBus = eventbus.NewMemoryBus()
	}
	if c.Store == nil {
		c.Store = store.NewCacheStore(30 * time.Minute)
	}
	if c.ActionTokenTTL <= 0 {
		c.ActionTokenTTL = time.Hour
	}
	return c
}
