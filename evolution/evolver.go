// Package evolution implements the CapabilityEvolver (C10): performance
// gap analysis, evolution strategy application, and post-evolution
// validation for agents.
package evolution

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trm-os/reasoning-core/agents"
	"github.com/trm-os/reasoning-core/reasoning"
)

// GapType names one of the six performance-gap categories (spec §4.10).
type GapType string

const (
	GapEfficiency            GapType = "efficiency"
	GapQuality               GapType = "quality"
	GapCapabilityPerformance GapType = "capability_performance"
	GapMissingCapability     GapType = "missing_capability"
	GapDomainExpertise       GapType = "domain_expertise"
	GapPerformanceDecline    GapType = "performance_decline"
)

// Severity bands a gap's urgency.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// PerformanceGap is one identified shortfall in an agent's performance
// (spec §4.10).
type PerformanceGap struct {
	ID                    string    `json:"id"`
	GapType               GapType   `json:"gap_type"`
	Description           string    `json:"description"`
	Severity              Severity  `json:"severity"`
	AffectedCapabilities  []string  `json:"affected_capabilities"`
	ImpactScore           float64   `json:"impact_score"` // 0-100
	RecommendedActions    []string  `json:"recommended_actions"`
	IdentifiedAt          time.Time `json:"identified_at"`
}

// PerformanceData is the performanceData input to gap analysis (spec
// §4.10). Unset maps are treated as empty.
type PerformanceData struct {
	Efficiency            float64
	Quality                float64
	CapabilityPerformance map[string]float64
	RequestedButMissing   []string
	DomainPerformance     map[string]float64
}

// HistoricalData supplies the optional historical baseline used by the
// performance-decline gap rule.
type HistoricalData struct {
	AverageEfficiency float64
}

// CapabilityEvolver analyzes performance gaps and applies evolution
// strategies to agents (spec §4.10).
type CapabilityEvolver struct{}

// NewCapabilityEvolver returns a ready-to-use evolver. It holds no
// state: every analysis/evolution call is pure given its inputs.
func NewCapabilityEvolver() *CapabilityEvolver {
	return &CapabilityEvolver{}
}

// AnalyzeGaps runs the six gap-detection rules against data (and,
// optionally, historical) for agent, returning every identified gap.
func (e *CapabilityEvolver) AnalyzeGaps(agent *agents.Agent, data PerformanceData, historical *HistoricalData) []PerformanceGap {
	var gaps []PerformanceGap

	if data.Efficiency < 60 {
		severity := SeverityMedium
		if data.Efficiency < 40 {
			severity = SeverityHigh
		}
		gaps = append(gaps, newGap(GapEfficiency,
			fmt.Sprintf("agent efficiency %.1f below target", data.Efficiency),
			severity, nil, clampScore(80-data.Efficiency),
			[]string{"apply optimization strategy to reduce per-task time"}))
	}

	if data.Quality < 70 {
		severity := SeverityMedium
		if data.Quality < 50 {
			severity = SeverityHigh
		}
		gaps = append(gaps, newGap(GapQuality,
			fmt.Sprintf("agent quality %.1f below target", data.Quality),
			severity, nil, clampScore(90-data.Quality),
			[]string{"apply enhancement strategy to existing capabilities"}))
	}

	for name, value := range data.CapabilityPerformance {
		if value >= 60 {
			continue
		}
		severity := SeverityMedium
		if value < 40 {
			severity = SeverityHigh
		}
		gaps = append(gaps, newGap(GapCapabilityPerformance,
			fmt.Sprintf("capability %q performing at %.1f", name, value),
			severity, []string{name}, clampScore(80-value),
			[]string{fmt.Sprintf("enhance capability %q", name)}))
	}

	for _, name := range data.RequestedButMissing {
		gaps = append(gaps, newGap(GapMissingCapability,
			fmt.Sprintf("capability %q requested but not present", name),
			SeverityHigh, []string{name}, 70,
			[]string{fmt.Sprintf("add capability %q", name)}))
	}

	for domain, value := range data.DomainPerformance {
		if value >= 60 {
			continue
		}
		severity := SeverityMedium
		if value < 40 {
			severity = SeverityHigh
		}
		gaps = append(gaps, newGap(GapDomainExpertise,
			fmt.Sprintf("domain %q expertise at %.1f", domain, value),
			severity, nil, clampScore(80-value),
			[]string{fmt.Sprintf("specialize toward domain %q", domain)}))
	}

	if historical != nil && historical.AverageEfficiency-data.Efficiency > 10 {
		gaps = append(gaps, newGap(GapPerformanceDecline,
			fmt.Sprintf("efficiency declined from historical average %.1f to %.1f", historical.AverageEfficiency, data.Efficiency),
			SeverityHigh, nil, clampScore(historical.AverageEfficiency-data.Efficiency),
			[]string{"apply optimization strategy and investigate root cause"}))
	}

	return gaps
}

func newGap(t GapType, description string, severity Severity, affected []string, impact float64, actions []string) PerformanceGap {
	return PerformanceGap{
		ID:                   uuid.NewString(),
		GapType:              t,
		Description:          description,
		Severity:             severity,
		AffectedCapabilities: affected,
		ImpactScore:          impact,
		RecommendedActions:   actions,
		IdentifiedAt:         time.Now(),
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// strategyForGapType implements spec §4.10's gap-type -> strategy map.
func strategyForGapType(t GapType) string {
	switch t {
	case GapEfficiency:
		return "optimization"
	case GapQuality:
		return "enhancement"
	case GapCapabilityPerformance:
		return "enhancement"
	case GapMissingCapability:
		return "addition"
	case GapDomainExpertise:
		return "specialization"
	case GapPerformanceDecline:
		return "optimization"
	default:
		return "enhancement"
	}
}

// EvolutionResult is the outcome of applying evolution strategies to an
// agent (spec §4.10).
type EvolutionResult struct {
	AgentID                string             `json:"agent_id"`
	EvolutionType          string             `json:"evolution_type"`
	ChangesMade            []string           `json:"changes_made"`
	PerformanceImprovement map[string]float64 `json:"performance_improvement"` // wisdom, intelligence, networking bumps
	Success                bool               `json:"success"`
	Notes                  string             `json:"notes"`
	EvolvedAt              time.Time          `json:"evolved_at"`
}

// EvolveAgentCapabilities applies the strategy selected for each gap's
// type to agent, committing every change via Agent.MutateCapabilities.
func (e *CapabilityEvolver) EvolveAgentCapabilities(agent *agents.Agent, gaps []PerformanceGap) (result EvolutionResult) {
	defer func() {
		if r := recover(); r != nil {
			result = EvolutionResult{
				AgentID:   agent.AgentID,
				Success:   false,
				Notes:     fmt.Sprintf("evolution failed: %v", r),
				EvolvedAt: time.Now(),
			}
		}
	}()

	var changes []string
	var strategies []string
	for _, gap := range gaps {
		strategy := strategyForGapType(gap.GapType)
		strategies = append(strategies, strategy)
		switch strategy {
		case "enhancement":
			changes = append(changes, applyEnhancement(agent, gap.AffectedCapabilities)...)
		case "addition":
			changes = append(changes, applyAddition(agent, gap.AffectedCapabilities)...)
		case "optimization":
			changes = append(changes, applyOptimization(agent, gap.AffectedCapabilities)...)
		case "specialization":
			changes = append(changes, applySpecialization(agent, gap.AffectedCapabilities)...)
		}
	}

	return EvolutionResult{
		AgentID:       agent.AgentID,
		EvolutionType: joinStrategies(strategies),
		ChangesMade:   changes,
		PerformanceImprovement: map[string]float64{
			"wisdom":       2 * float64(len(changes)),
			"intelligence": 3 * float64(len(changes)),
			"networking":   1 * float64(len(changes)),
		},
		Success:   true,
		Notes:     fmt.Sprintf("applied %d change(s) across %d gap(s)", len(changes), len(gaps)),
		EvolvedAt: time.Now(),
	}
}

func joinStrategies(strategies []string) string {
	seen := make(map[string]bool)
	var out string
	for _, s := range strategies {
		if seen[s] {
			continue
		}
		seen[s] = true
		if out != "" {
			out += "+"
		}
		out += s
	}
	if out == "" {
		return "none"
	}
	return out
}

// applyEnhancement raises proficiency of the named capabilities (or all,
// if none named) by +10 (cap 95) and reduces task time 10% (floor 30).
func applyEnhancement(agent *agents.Agent, names []string) []string {
	var changes []string
	agent.MutateCapabilities(func(caps []agents.AgentCapability) []agents.AgentCapability {
		for i := range caps {
			if !affects(names, caps[i].Name) {
				continue
			}
			caps[i].ProficiencyLevel = minF(caps[i].ProficiencyLevel+0.10, 0.95)
			caps[i].EstimatedTimePerTask = maxI(int(float64(caps[i].EstimatedTimePerTask)*0.9), 30)
			changes = append(changes, "enhanced "+caps[i].Name)
		}
		return caps
	})
	return changes
}

// applyAddition adds new capabilities (proficiency 0.75, 90-minute task
// time) for every named capability the agent does not already have.
func applyAddition(agent *agents.Agent, names []string) []string {
	var changes []string
	agent.MutateCapabilities(func(caps []agents.AgentCapability) []agents.AgentCapability {
		existing := make(map[string]bool, len(caps))
		for _, c := range caps {
			existing[c.Name] = true
		}
		for _, name := range names {
			if existing[name] {
				continue
			}
			caps = append(caps, agents.AgentCapability{
				Name:                 name,
				Description:          "Added via capability evolution",
				ProficiencyLevel:     0.75,
				EstimatedTimePerTask: 90,
				WinContribution:      agents.WinWeights{"wisdom": 0.3, "intelligence": 0.5, "networking": 0.2},
			})
			changes = append(changes, "added "+name)
		}
		return caps
	})
	return changes
}

// applyOptimization reduces task times for the named capabilities (or
// all, if none named) by 15%, floored at 30 minutes.
func applyOptimization(agent *agents.Agent, names []string) []string {
	var changes []string
	agent.MutateCapabilities(func(caps []agents.AgentCapability) []agents.AgentCapability {
		for i := range caps {
			if !affects(names, caps[i].Name) {
				continue
			}
			caps[i].EstimatedTimePerTask = maxI(int(float64(caps[i].EstimatedTimePerTask)*0.85), 30)
			changes = append(changes, "optimized "+caps[i].Name)
		}
		return caps
	})
	return changes
}

// applySpecialization boosts proficiency by +15 (cap 90) and appends a
// domain-specific tool marker to the description.
func applySpecialization(agent *agents.Agent, names []string) []string {
	var changes []string
	agent.MutateCapabilities(func(caps []agents.AgentCapability) []agents.AgentCapability {
		for i := range caps {
			if !affects(names, caps[i].Name) {
				continue
			}
			caps[i].ProficiencyLevel = minF(caps[i].ProficiencyLevel+0.15, 0.90)
			caps[i].Description += " [specialized]"
			changes = append(changes, "specialized "+caps[i].Name)
		}
		return caps
	})
	return changes
}

// affects reports whether a capability name is targeted: an empty names
// list means "every capability" (used by efficiency/performance-decline
// gaps, which carry no specific affected-capability list).
func affects(names []string, capName string) bool {
	if len(names) == 0 {
		return true
	}
	for _, n := range names {
		if n == capName {
			return true
		}
	}
	return false
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxI(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ValidationResult is the outcome of ValidateCapabilityImprovements.
type ValidationResult struct {
	Score                   int  `json:"score"` // 0-100
	CapabilityCountIncreased bool `json:"capability_count_increased"`
	MeanProficiencyIncreased bool `json:"mean_proficiency_increased"`
	TensionHandlingImproved  bool `json:"tension_handling_improved"`
}

// ValidateCapabilityImprovements compares before/after capability
// snapshots (and, optionally, how many testTensions each can now
// handle) and scores the evolution out of 100: base 50 + 20 if
// capability count increased + 20 if mean proficiency increased + 10 if
// tension-handling improved (spec §4.10).
func (e *CapabilityEvolver) ValidateCapabilityImprovements(before, after []agents.AgentCapability, beforeAgent, afterAgent *agents.Agent, testTensions []reasoning.Tension) ValidationResult {
	result := ValidationResult{Score: 50}

	if len(after) > len(before) {
		result.CapabilityCountIncreased = true
		result.Score += 20
	}
	if meanProficiency(after) > meanProficiency(before) {
		result.MeanProficiencyIncreased = true
		result.Score += 20
	}

	if len(testTensions) > 0 && beforeAgent != nil && afterAgent != nil {
		beforeHandled := countHandled(beforeAgent, testTensions)
		afterHandled := countHandled(afterAgent, testTensions)
		if afterHandled > beforeHandled {
			result.TensionHandlingImproved = true
			result.Score += 10
		}
	}

	return result
}

func meanProficiency(caps []agents.AgentCapability) float64 {
	if len(caps) == 0 {
		return 0
	}
	var sum float64
	for _, c := range caps {
		sum += c.ProficiencyLevel
	}
	return sum / float64(len(caps))
}

func countHandled(agent *agents.Agent, tensions []reasoning.Tension) int {
	count := 0
	for _, t := range tensions {
		if agent.CanHandleTension(t) {
			count++
		}
	}
	return count
}
