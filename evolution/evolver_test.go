package evolution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trm-os/reasoning-core/agents"
	"github.com/trm-os/reasoning-core/reasoning"
)

func newTestAgent() *agents.Agent {
	metadata := agents.AgentTemplateMetadata{
		TemplateName:  "test_template",
		PrimaryDomain: "testing",
		Capabilities: []agents.AgentCapability{
			{
				Name:                 "bug_fixing",
				ProficiencyLevel:     0.5,
				EstimatedTimePerTask: 100,
				RelatedTensionTypes:  []reasoning.TensionType{reasoning.TensionTechnicalDebt},
				WinContribution:      agents.WinWeights{"wisdom": 0.4, "intelligence": 0.4, "networking": 0.2},
			},
		},
		DomainExpertise: []string{"testing"},
	}
	return agents.NewAgent(metadata, nil)
}

func TestAnalyzeGaps_EfficiencyAndQuality(t *testing.T) {
	e := NewCapabilityEvolver()
	agent := newTestAgent()

	gaps := e.AnalyzeGaps(agent, PerformanceData{Efficiency: 30, Quality: 40}, nil)

	var sawEfficiency, sawQuality bool
	for _, g := range gaps {
		if g.GapType == GapEfficiency {
			sawEfficiency = true
			assert.Equal(t, SeverityHigh, g.Severity)
		}
		if g.GapType == GapQuality {
			sawQuality = true
			assert.Equal(t, SeverityHigh, g.Severity)
		}
	}
	assert.True(t, sawEfficiency)
	assert.True(t, sawQuality)
}

func TestAnalyzeGaps_MissingCapabilityAndDomain(t *testing.T) {
	e := NewCapabilityEvolver()
	agent := newTestAgent()

	gaps := e.AnalyzeGaps(agent, PerformanceData{
		Efficiency:            80,
		Quality:                80,
		RequestedButMissing:   []string{"deployment_automation"},
		DomainPerformance:     map[string]float64{"infra": 30},
		CapabilityPerformance: map[string]float64{"bug_fixing": 50},
	}, nil)

	var types []GapType
	for _, g := range gaps {
		types = append(types, g.GapType)
	}
	assert.Contains(t, types, GapMissingCapability)
	assert.Contains(t, types, GapDomainExpertise)
	assert.Contains(t, types, GapCapabilityPerformance)
}

func TestAnalyzeGaps_PerformanceDecline(t *testing.T) {
	e := NewCapabilityEvolver()
	agent := newTestAgent()

	gaps := e.AnalyzeGaps(agent, PerformanceData{Efficiency: 70, Quality: 80}, &HistoricalData{AverageEfficiency: 90})

	found := false
	for _, g := range gaps {
		if g.GapType == GapPerformanceDecline {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEvolveAgentCapabilities_Enhancement(t *testing.T) {
	e := NewCapabilityEvolver()
	agent := newTestAgent()
	before := agent.SnapshotCapabilities()

	gaps := []PerformanceGap{
		{GapType: GapCapabilityPerformance, AffectedCapabilities: []string{"bug_fixing"}},
	}
	result := e.EvolveAgentCapabilities(agent, gaps)
	require.True(t, result.Success)
	assert.NotEmpty(t, result.ChangesMade)

	after := agent.SnapshotCapabilities()
	require.Len(t, after, 1)
	assert.Greater(t, after[0].ProficiencyLevel, before[0].ProficiencyLevel)
}

func TestEvolveAgentCapabilities_Addition(t *testing.T) {
	e := NewCapabilityEvolver()
	agent := newTestAgent()

	gaps := []PerformanceGap{
		{GapType: GapMissingCapability, AffectedCapabilities: []string{"deployment_automation"}},
	}
	result := e.EvolveAgentCapabilities(agent, gaps)
	require.True(t, result.Success)

	after := agent.SnapshotCapabilities()
	names := make([]string, 0, len(after))
	for _, c := range after {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "deployment_automation")
}

func TestValidateCapabilityImprovements_ScoresIncrease(t *testing.T) {
	e := NewCapabilityEvolver()
	beforeAgent := newTestAgent()
	before := beforeAgent.SnapshotCapabilities()

	afterAgent := newTestAgent()
	e.EvolveAgentCapabilities(afterAgent, []PerformanceGap{
		{GapType: GapMissingCapability, AffectedCapabilities: []string{"deployment_automation"}},
	})
	after := afterAgent.SnapshotCapabilities()

	result := e.ValidateCapabilityImprovements(before, after, beforeAgent, afterAgent, nil)
	assert.GreaterOrEqual(t, result.Score, 70)
	assert.True(t, result.CapabilityCountIncreased)
}
