package templates

import (
	"time"

	"github.com/trm-os/reasoning-core/agents"
	"github.com/trm-os/reasoning-core/reasoning"
)

// UserInterfaceDefinition builds the UI/UX template: usability
// investigation and design-change proposals for Opportunity/Problem
// tensions describing the user-facing experience.
func UserInterfaceDefinition() Definition {
	return Definition{
		Name:           "user_interface",
		DomainKeywords: []string{"ui", "ux", "design", "usability", "experience", "interface"},
		NewMetadata:    newUserInterfaceMetadata,
		NewBehavior: func(a *agents.Agent) agents.SpecializedBehavior {
			return &userInterfaceBehavior{agent: a}
		},
	}
}

func newUserInterfaceMetadata() agents.AgentTemplateMetadata {
	now := time.Now()
	return agents.AgentTemplateMetadata{
		TemplateName:    "user_interface",
		PrimaryDomain:   "user_experience",
		DomainExpertise: []string{"design", "usability", "interface", "customer experience"},
		SupportedTensionTypes: []reasoning.TensionType{
			reasoning.TensionOpportunity,
			reasoning.TensionProblem,
		},
		Capabilities: []agents.AgentCapability{
			{
				Name: "usability_testing", Description: "Run a structured usability test and capture findings",
				ProficiencyLevel: 0.8, EstimatedTimePerTask: 90,
				RelatedTensionTypes: []reasoning.TensionType{reasoning.TensionProblem},
				WinContribution:     agents.WinWeights{"wisdom": 0.5, "intelligence": 0.3, "networking": 0.2},
			},
			{
				Name: "interaction_design", Description: "Propose an improved interaction flow",
				ProficiencyLevel: 0.78, EstimatedTimePerTask: 75,
				RelatedTensionTypes: []reasoning.TensionType{reasoning.TensionOpportunity},
				WinContribution:     agents.WinWeights{"wisdom": 0.4, "intelligence": 0.4, "networking": 0.2},
			},
			{
				Name: "customer_feedback_synthesis", Description: "Synthesize feedback into actionable design changes",
				ProficiencyLevel: 0.7, EstimatedTimePerTask: 45,
				WinContribution: agents.WinWeights{"wisdom": 0.3, "intelligence": 0.2, "networking": 0.5},
			},
		},
		PerformanceMetrics:     map[string]float64{},
		Version:                "1.0.0",
		CreatedAt:              now,
		UpdatedAt:              now,
		WinOptimizationWeights: agents.WinWeights{"wisdom": 0.45, "intelligence": 0.3, "networking": 0.25},
	}
}

type userInterfaceBehavior struct {
	agent *agents.Agent
}

func (b *userInterfaceBehavior) AnalyzeTensionRequirements(tension reasoning.Tension) agents.TensionRequirements {
	return agents.TensionRequirements{
		Complexity:      "low",
		Urgency:         urgencyFromPriority(tension.Priority),
		RequiredSkills:  []string{"usability_testing", "customer_feedback_synthesis"},
		Deliverables:    []string{"usability findings", "design proposal"},
		EstimatedEffort: "2-4 hours",
	}
}

func (b *userInterfaceBehavior) GenerateSpecializedSolutions(tension reasoning.Tension, analysis reasoning.TensionAnalysis) []reasoning.GeneratedSolution {
	return []reasoning.GeneratedSolution{
		{
			ID:              tension.ID + "-user-interface",
			Title:           "Usability-driven redesign for " + tension.Title,
			Description:     "Gather usability evidence, synthesize feedback, and propose an interaction change.",
			SolutionType:    reasoning.SolutionProcessImprovement,
			Priority:        reasoning.SolutionPriorityMedium,
			EstimatedImpact: "Improves customer satisfaction and task completion rate",
			EstimatedEffort: "2-4 hours",
			Steps: []reasoning.SolutionStep{
				{ID: tension.ID + "-ui-step-1", Title: "Run usability test", RequiredSkills: []string{"usability_testing"}},
				{ID: tension.ID + "-ui-step-2", Title: "Synthesize feedback", RequiredSkills: []string{"customer_feedback_synthesis"}, Dependencies: []string{tension.ID + "-ui-step-1"}},
				{ID: tension.ID + "-ui-step-3", Title: "Propose interaction change", RequiredSkills: []string{"interaction_design"}, Dependencies: []string{tension.ID + "-ui-step-2"}},
			},
			ConfidenceScore: 0.7,
			Reasoning:       "Generated by the user_interface template for a " + string(analysis.TensionType) + " tension",
			CreatedAt:       time.Now(),
		},
	}
}

func (b *userInterfaceBehavior) ExecuteSolution(solution reasoning.GeneratedSolution) agents.ActionResult {
	return agents.ActionResult{
		Status:          agents.ExecutionCompleted,
		ActualResults:   map[string]any{"solution_id": solution.ID, "design_proposal_shared": true},
		EventsGenerated: []string{"DesignUpdated", "UsabilityTestCompleted"},
	}
}
