package ecosystem

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trm-os/reasoning-core/agents"
	"github.com/trm-os/reasoning-core/reasoning"
)

func snapshot(id string, workload int, capCount int, efficiency float64) AgentSnapshot {
	caps := make([]agents.AgentCapability, capCount)
	for i := range caps {
		caps[i] = agents.AgentCapability{Name: "cap"}
	}
	return AgentSnapshot{AgentID: id, Kind: "template", Capabilities: caps, Workload: workload, Efficiency: efficiency, Quality: efficiency}
}

func TestGenerateHealthReport_FlagsIdleAndUnhealthy(t *testing.T) {
	o := NewEcosystemOptimizer()
	o.RegisterEcosystem("eco1", []AgentSnapshot{
		snapshot("a1", 0, 0, 40),
		snapshot("a2", 2, 5, 80),
	})

	report := o.GenerateHealthReport("eco1")
	assert.NotEmpty(t, report.IssuesIdentified)
	assert.Less(t, report.PerAgentHealth["a1"], report.PerAgentHealth["a2"])
}

func TestGenerateHealthReport_EmptyEcosystemIsHealthy(t *testing.T) {
	o := NewEcosystemOptimizer()
	report := o.GenerateHealthReport("unknown")
	assert.Empty(t, report.IssuesIdentified)
	assert.Equal(t, 100.0, report.WorkloadBalanceScore)
}

func TestOptimizeAgentDistribution_AssignsWithinCapacity(t *testing.T) {
	o := NewEcosystemOptimizer()
	o.RegisterEcosystem("eco1", []AgentSnapshot{
		snapshot("a1", 0, 5, 80),
	})

	tensions := []reasoning.Tension{
		{ID: "t1", Title: "bug in login", Description: "bug fixing required", Priority: reasoning.PriorityHigh},
		{ID: "t2", Title: "data analysis request", Description: "analysis needed", Priority: reasoning.PriorityNormal},
	}

	plan := o.OptimizeAgentDistribution("eco1", tensions)
	assert.LessOrEqual(t, len(plan.Actions), 2)
	for _, a := range plan.Actions {
		assert.Equal(t, "a1", a.AgentID)
	}
}

func TestBalanceWorkloadAcrossAgents_EvenSplit(t *testing.T) {
	o := NewEcosystemOptimizer()
	result := o.BalanceWorkloadAcrossAgents(9)
	assert.GreaterOrEqual(t, result.BalanceScoreImprovement, 0.0)
}
