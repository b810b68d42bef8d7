package templates

import (
	"time"

	"github.com/trm-os/reasoning-core/agents"
	"github.com/trm-os/reasoning-core/reasoning"
)

// IntegrationDefinition builds the integration template: connecting
// external systems and recovering from broken integrations.
func IntegrationDefinition() Definition {
	return Definition{
		Name:           "integration",
		DomainKeywords: []string{"integration", "api", "sync", "connector", "webhook", "pipeline"},
		NewMetadata:    newIntegrationMetadata,
		NewBehavior: func(a *agents.Agent) agents.SpecializedBehavior {
			return &integrationBehavior{agent: a}
		},
	}
}

func newIntegrationMetadata() agents.AgentTemplateMetadata {
	now := time.Now()
	return agents.AgentTemplateMetadata{
		TemplateName:    "integration",
		PrimaryDomain:   "systems_integration",
		DomainExpertise: []string{"integration", "api", "data synchronization", "infrastructure"},
		SupportedTensionTypes: []reasoning.TensionType{
			reasoning.TensionProblem,
			reasoning.TensionResourceConstraint,
		},
		Capabilities: []agents.AgentCapability{
			{
				Name: "api_integration", Description: "Connect a new external API into the platform",
				ProficiencyLevel: 0.82, EstimatedTimePerTask: 120,
				WinContribution: agents.WinWeights{"wisdom": 0.3, "intelligence": 0.5, "networking": 0.2},
			},
			{
				Name: "failure_recovery", Description: "Diagnose and recover from a failed integration call",
				ProficiencyLevel: 0.8, EstimatedTimePerTask: 60,
				RelatedTensionTypes: []reasoning.TensionType{reasoning.TensionProblem},
				WinContribution:     agents.WinWeights{"wisdom": 0.4, "intelligence": 0.5, "networking": 0.1},
			},
			{
				Name: "data_sync_monitoring", Description: "Monitor a sync pipeline for drift and failures",
				ProficiencyLevel: 0.75, EstimatedTimePerTask: 40,
				WinContribution: agents.WinWeights{"wisdom": 0.3, "intelligence": 0.4, "networking": 0.3},
			},
		},
		PerformanceMetrics:     map[string]float64{},
		Version:                "1.0.0",
		CreatedAt:              now,
		UpdatedAt:              now,
		WinOptimizationWeights: agents.WinWeights{"wisdom": 0.3, "intelligence": 0.5, "networking": 0.2},
	}
}

type integrationBehavior struct {
	agent *agents.Agent
}

func (b *integrationBehavior) AnalyzeTensionRequirements(tension reasoning.Tension) agents.TensionRequirements {
	return agents.TensionRequirements{
		Complexity:      "high",
		Urgency:         urgencyFromPriority(tension.Priority),
		RequiredSkills:  []string{"failure_recovery", "data_sync_monitoring"},
		Deliverables:    []string{"restored integration", "monitoring alert"},
		EstimatedEffort: "4-8 hours",
	}
}

func (b *integrationBehavior) GenerateSpecializedSolutions(tension reasoning.Tension, analysis reasoning.TensionAnalysis) []reasoning.GeneratedSolution {
	return []reasoning.GeneratedSolution{
		{
			ID:              tension.ID + "-integration",
			Title:           "Integration recovery plan for " + tension.Title,
			Description:     "Diagnose the failing integration point, restore service, and add monitoring.",
			SolutionType:    reasoning.SolutionTechnologySolution,
			Priority:        reasoning.SolutionPriorityHigh,
			EstimatedImpact: "Restores data flow between systems and prevents silent drift",
			EstimatedEffort: "4-8 hours",
			Steps: []reasoning.SolutionStep{
				{ID: tension.ID + "-int-step-1", Title: "Diagnose failure point", RequiredSkills: []string{"failure_recovery"}},
				{ID: tension.ID + "-int-step-2", Title: "Restore integration", RequiredSkills: []string{"api_integration"}, Dependencies: []string{tension.ID + "-int-step-1"}},
				{ID: tension.ID + "-int-step-3", Title: "Add sync monitoring", RequiredSkills: []string{"data_sync_monitoring"}, Dependencies: []string{tension.ID + "-int-step-2"}},
			},
			ConfidenceScore: 0.72,
			Reasoning:       "Generated by the integration template for a " + string(analysis.TensionType) + " tension",
			CreatedAt:       time.Now(),
		},
	}
}

func (b *integrationBehavior) ExecuteSolution(solution reasoning.GeneratedSolution) agents.ActionResult {
	return agents.ActionResult{
		Status:          agents.ExecutionCompleted,
		ActualResults:   map[string]any{"solution_id": solution.ID, "integration_restored": true},
		EventsGenerated: []string{"DataSyncCompleted"},
	}
}
