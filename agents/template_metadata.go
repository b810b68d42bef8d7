package agents

import (
	"strings"
	"time"

	"github.com/trm-os/reasoning-core/reasoning"
)

// winScoreTrendLimit bounds TemplatePerformanceMetrics.WinScoreTrend to
// its most recent entries (SPEC_FULL.md §3 supplement, recovered from
// original_source's template performance tracker).
const winScoreTrendLimit = 50

// TemplatePerformanceMetrics tracks running performance statistics for
// one registered template (spec §4.7), supplemented with a bounded
// win-score trend and letter-grade reporting recovered from
// original_source (SPEC_FULL.md §3).
type TemplatePerformanceMetrics struct {
	InstancesCreated  int       `json:"instances_created"`
	TensionsProcessed int       `json:"tensions_processed"`
	SuccessRate       float64   `json:"success_rate"`
	AverageConfidence float64   `json:"average_confidence"`
	LastUsed          time.Time `json:"last_used"`
	WinScoreTrend      []float64 `json:"win_score_trend"`
}

// RecordWinScore appends score to the bounded trend (most recent 50).
func (m *TemplatePerformanceMetrics) RecordWinScore(score float64) {
	m.WinScoreTrend = append(m.WinScoreTrend, score)
	if len(m.WinScoreTrend) > winScoreTrendLimit {
		m.WinScoreTrend = m.WinScoreTrend[len(m.WinScoreTrend)-winScoreTrendLimit:]
	}
}

// Grade reports a letter grade for AverageConfidence scaled to 0-100:
// A+ >= 90, A >= 80, B >= 70, C >= 60, else D.
func (m TemplatePerformanceMetrics) Grade() string {
	score := m.AverageConfidence * 100
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	default:
		return "D"
	}
}

// IsImproving compares the mean of the trend's last 5 entries against
// the mean of the 5 before that; true if the recent window is higher.
func (m TemplatePerformanceMetrics) IsImproving() bool {
	n := len(m.WinScoreTrend)
	if n < 10 {
		return false
	}
	recent := mean(m.WinScoreTrend[n-5:])
	prior := mean(m.WinScoreTrend[n-10 : n-5])
	return recent > prior
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// AgentTemplateMetadata describes one agent template's domain, skill
// set, and optimization weights (spec §3.7).
type AgentTemplateMetadata struct {
	TemplateName           string                       `json:"template_name"`
	PrimaryDomain           string                       `json:"primary_domain"`
	Capabilities            []AgentCapability            `json:"capabilities"`
	DomainExpertise         []string                     `json:"domain_expertise"`
	SupportedTensionTypes   []reasoning.TensionType      `json:"supported_tension_types"`
	PerformanceMetrics      map[string]float64           `json:"performance_metrics"`
	Version                 string                       `json:"version"`
	CreatedAt                time.Time                   `json:"created_at"`
	UpdatedAt                time.Time                   `json:"updated_at"`
	WinOptimizationWeights   WinWeights                   `json:"win_optimization_weights"`
	StrategicAlignment       map[string]any               `json:"strategic_alignment"`
}

// defaultWinOptimizationWeights matches spec §4.6's default W/I/N split.
func defaultWinOptimizationWeights() WinWeights {
	return WinWeights{"wisdom": 0.4, "intelligence": 0.4, "networking": 0.2}
}

// GetCapabilityByName performs a linear scan for a capability by exact
// name match.
func (m AgentTemplateMetadata) GetCapabilityByName(name string) (AgentCapability, bool) {
	for _, c := range m.Capabilities {
		if c.Name == name {
			return c, true
		}
	}
	return AgentCapability{}, false
}

// GetCapabilitiesForTensionType filters capabilities that declare t
// among their related tension types.
func (m AgentTemplateMetadata) GetCapabilitiesForTensionType(t reasoning.TensionType) []AgentCapability {
	var out []AgentCapability
	for _, c := range m.Capabilities {
		if c.HasTensionType(t) {
			out = append(out, c)
		}
	}
	return out
}

// CalculateDomainRelevance returns 1.0 on an exact primary-domain match,
// else the fraction of domainExpertise entries containing domain as a
// case-insensitive substring.
func (m AgentTemplateMetadata) CalculateDomainRelevance(domain string) float64 {
	if strings.EqualFold(m.PrimaryDomain, domain) {
		return 1.0
	}
	if len(m.DomainExpertise) == 0 {
		return 0.0
	}
	lower := strings.ToLower(domain)
	matches := 0
	for _, d := range m.DomainExpertise {
		if strings.Contains(strings.ToLower(d), lower) {
			matches++
		}
	}
	return float64(matches) / float64(len(m.DomainExpertise))
}

// GetAverageProficiency returns the mean proficiencyLevel across
// capabilities, or 0 if there are none.
func (m AgentTemplateMetadata) GetAverageProficiency() float64 {
	if len(m.Capabilities) == 0 {
		return 0
	}
	var sum float64
	for _, c := range m.Capabilities {
		sum += c.ProficiencyLevel
	}
	return sum / float64(len(m.Capabilities))
}

// TaskComplexity scales EstimateTotalTaskTime's multiplier.
type TaskComplexity string

const (
	ComplexityLow    TaskComplexity = "low"
	ComplexityMedium TaskComplexity = "medium"
	ComplexityHigh   TaskComplexity = "high"
)

func complexityMultiplier(c TaskComplexity) float64 {
	switch c {
	case ComplexityLow:
		return 0.7
	case ComplexityHigh:
		return 1.5
	default:
		return 1.0
	}
}

// EstimateTotalTaskTime returns the mean capability task time (minutes)
// scaled by the complexity multiplier (0.7/1.0/1.5).
func (m AgentTemplateMetadata) EstimateTotalTaskTime(complexity TaskComplexity) float64 {
	if len(m.Capabilities) == 0 {
		return 0
	}
	var sum float64
	for _, c := range m.Capabilities {
		sum += float64(c.EstimatedTimePerTask)
	}
	mean := sum / float64(len(m.Capabilities))
	return mean * complexityMultiplier(complexity)
}

// GetWinPotential computes the template's WIN score potential (0-100):
// for each capability, its declared win contribution weighted by
// proficiency is averaged across capabilities per dimension, then the
// three dimensions are combined via winOptimizationWeights (defaulting
// to 0.4/0.4/0.2) and scaled to 0-100.
func (m AgentTemplateMetadata) GetWinPotential() float64 {
	if len(m.Capabilities) == 0 {
		return 0
	}

	var wisdomSum, intelligenceSum, networkingSum float64
	for _, c := range m.Capabilities {
		wisdomSum += c.WinContribution["wisdom"] * c.ProficiencyLevel
		intelligenceSum += c.WinContribution["intelligence"] * c.ProficiencyLevel
		networkingSum += c.WinContribution["networking"] * c.ProficiencyLevel
	}
	n := float64(len(m.Capabilities))
	wisdom := wisdomSum / n
	intelligence := intelligenceSum / n
	networking := networkingSum / n

	weights := m.WinOptimizationWeights
	if weights == nil {
		weights = defaultWinOptimizationWeights()
	}

	total := weights["wisdom"]*wisdom + weights["intelligence"]*intelligence + weights["networking"]*networking
	return total * 100
}
