package templates

import (
	"time"

	"github.com/trm-os/reasoning-core/agents"
	"github.com/trm-os/reasoning-core/reasoning"
)

// ResearchDefinition builds the research template: investigation of
// ideas, strategic misalignment, and open questions that need evidence
// before a solution can be committed to.
func ResearchDefinition() Definition {
	return Definition{
		Name:           "research",
		DomainKeywords: []string{"research", "investigate", "explore", "trend", "knowledge", "strategy"},
		NewMetadata:    newResearchMetadata,
		NewBehavior: func(a *agents.Agent) agents.SpecializedBehavior {
			return &researchBehavior{agent: a}
		},
	}
}

func newResearchMetadata() agents.AgentTemplateMetadata {
	now := time.Now()
	return agents.AgentTemplateMetadata{
		TemplateName:    "research",
		PrimaryDomain:   "research",
		DomainExpertise: []string{"research", "strategy", "market analysis", "competitive intelligence"},
		SupportedTensionTypes: []reasoning.TensionType{
			reasoning.TensionIdea,
			reasoning.TensionStrategicMisalignment,
			reasoning.TensionOpportunity,
		},
		Capabilities: []agents.AgentCapability{
			{
				Name: "literature_review", Description: "Survey existing knowledge and prior art on a topic",
				ProficiencyLevel: 0.82, EstimatedTimePerTask: 90,
				RelatedTensionTypes: []reasoning.TensionType{reasoning.TensionIdea},
				WinContribution:     agents.WinWeights{"wisdom": 0.6, "intelligence": 0.3, "networking": 0.1},
			},
			{
				Name: "trend_analysis", Description: "Identify emerging trends relevant to a strategic question",
				ProficiencyLevel: 0.78, EstimatedTimePerTask: 75,
				RelatedTensionTypes: []reasoning.TensionType{reasoning.TensionStrategicMisalignment},
				WinContribution:     agents.WinWeights{"wisdom": 0.5, "intelligence": 0.4, "networking": 0.1},
			},
			{
				Name: "knowledge_synthesis", Description: "Consolidate findings into a decision-ready brief",
				ProficiencyLevel: 0.8, EstimatedTimePerTask: 60,
				WinContribution: agents.WinWeights{"wisdom": 0.4, "intelligence": 0.3, "networking": 0.3},
			},
		},
		PerformanceMetrics:     map[string]float64{},
		Version:                "1.0.0",
		CreatedAt:              now,
		UpdatedAt:              now,
		WinOptimizationWeights: agents.WinWeights{"wisdom": 0.5, "intelligence": 0.35, "networking": 0.15},
	}
}

type researchBehavior struct {
	agent *agents.Agent
}

func (b *researchBehavior) AnalyzeTensionRequirements(tension reasoning.Tension) agents.TensionRequirements {
	return agents.TensionRequirements{
		Complexity:      "medium",
		Urgency:         urgencyFromPriority(tension.Priority),
		RequiredSkills:  []string{"literature_review", "trend_analysis"},
		Deliverables:    []string{"research brief", "recommendation"},
		EstimatedEffort: "1-2 days",
	}
}

func (b *researchBehavior) GenerateSpecializedSolutions(tension reasoning.Tension, analysis reasoning.TensionAnalysis) []reasoning.GeneratedSolution {
	return []reasoning.GeneratedSolution{
		{
			ID:              tension.ID + "-research",
			Title:           "Research brief for " + tension.Title,
			Description:     "Survey prior art, analyze relevant trends, and synthesize a decision-ready brief.",
			SolutionType:    reasoning.SolutionInvestigation,
			Priority:        reasoning.SolutionPriorityMedium,
			EstimatedImpact: "Provides an evidence base before committing resources",
			EstimatedEffort: "1-2 days",
			Steps: []reasoning.SolutionStep{
				{ID: tension.ID + "-res-step-1", Title: "Review existing knowledge", RequiredSkills: []string{"literature_review"}},
				{ID: tension.ID + "-res-step-2", Title: "Analyze relevant trends", RequiredSkills: []string{"trend_analysis"}, Dependencies: []string{tension.ID + "-res-step-1"}},
				{ID: tension.ID + "-res-step-3", Title: "Synthesize a brief", RequiredSkills: []string{"knowledge_synthesis"}, Dependencies: []string{tension.ID + "-res-step-2"}},
			},
			ConfidenceScore: 0.7,
			Reasoning:       "Generated by the research template for a " + string(analysis.TensionType) + " tension",
			CreatedAt:       time.Now(),
		},
	}
}

func (b *researchBehavior) ExecuteSolution(solution reasoning.GeneratedSolution) agents.ActionResult {
	return agents.ActionResult{
		Status:          agents.ExecutionCompleted,
		ActualResults:   map[string]any{"solution_id": solution.ID, "brief_published": true},
		EventsGenerated: []string{"KnowledgeUpdated", "TrendDetected"},
	}
}
