package templates

import (
	"time"

	"github.com/trm-os/reasoning-core/agents"
	"github.com/trm-os/reasoning-core/reasoning"
)

// DataAnalystDefinition builds the data-analyst template: profiling,
// anomaly detection, and reporting over DataAnalysis-typed tensions.
func DataAnalystDefinition() Definition {
	return Definition{
		Name:           "data_analyst",
		DomainKeywords: []string{"data", "metrics", "analysis", "report", "dashboard", "trend"},
		NewMetadata:    newDataAnalystMetadata,
		NewBehavior: func(a *agents.Agent) agents.SpecializedBehavior {
			return &dataAnalystBehavior{agent: a}
		},
	}
}

func newDataAnalystMetadata() agents.AgentTemplateMetadata {
	now := time.Now()
	return agents.AgentTemplateMetadata{
		TemplateName:    "data_analyst",
		PrimaryDomain:   "data_analysis",
		DomainExpertise: []string{"data", "analytics", "statistics", "reporting"},
		SupportedTensionTypes: []reasoning.TensionType{
			reasoning.TensionDataAnalysis,
			reasoning.TensionProblem,
			reasoning.TensionOpportunity,
		},
		Capabilities: []agents.AgentCapability{
			{
				Name: "data_exploration", Description: "Profile and summarize a dataset",
				ProficiencyLevel: 0.85, EstimatedTimePerTask: 45,
				RelatedTensionTypes: []reasoning.TensionType{reasoning.TensionDataAnalysis},
				WinContribution:     agents.WinWeights{"wisdom": 0.5, "intelligence": 0.4, "networking": 0.1},
			},
			{
				Name: "statistical_analysis", Description: "Apply statistical methods to quantify a pattern",
				ProficiencyLevel: 0.8, EstimatedTimePerTask: 60,
				RelatedTensionTypes: []reasoning.TensionType{reasoning.TensionDataAnalysis},
				WinContribution:     agents.WinWeights{"wisdom": 0.3, "intelligence": 0.6, "networking": 0.1},
			},
			{
				Name: "anomaly_detection", Description: "Identify outliers and irregularities in data",
				ProficiencyLevel: 0.75, EstimatedTimePerTask: 50,
				RelatedTensionTypes: []reasoning.TensionType{reasoning.TensionProblem, reasoning.TensionRisk},
				WinContribution:     agents.WinWeights{"wisdom": 0.4, "intelligence": 0.5, "networking": 0.1},
			},
			{
				Name: "report_generation", Description: "Summarize findings into a stakeholder-facing report",
				ProficiencyLevel: 0.8, EstimatedTimePerTask: 30,
				RelatedTensionTypes: []reasoning.TensionType{reasoning.TensionDataAnalysis},
				WinContribution:     agents.WinWeights{"wisdom": 0.2, "intelligence": 0.3, "networking": 0.5},
			},
		},
		PerformanceMetrics:     map[string]float64{},
		Version:                "1.0.0",
		CreatedAt:              now,
		UpdatedAt:              now,
		WinOptimizationWeights: agents.WinWeights{"wisdom": 0.4, "intelligence": 0.45, "networking": 0.15},
	}
}

type dataAnalystBehavior struct {
	agent *agents.Agent
}

func (b *dataAnalystBehavior) AnalyzeTensionRequirements(tension reasoning.Tension) agents.TensionRequirements {
	return agents.TensionRequirements{
		Complexity:      "medium",
		Urgency:         urgencyFromPriority(tension.Priority),
		RequiredSkills:  []string{"data_exploration", "statistical_analysis"},
		Deliverables:    []string{"analysis report", "dashboard update"},
		EstimatedEffort: "2-4 hours",
	}
}

func (b *dataAnalystBehavior) GenerateSpecializedSolutions(tension reasoning.Tension, analysis reasoning.TensionAnalysis) []reasoning.GeneratedSolution {
	return []reasoning.GeneratedSolution{
		{
			ID:              tension.ID + "-data-analyst",
			Title:           "Data-driven investigation of " + tension.Title,
			Description:     "Profile the relevant dataset, quantify the pattern, and publish a report.",
			SolutionType:    reasoning.SolutionInvestigation,
			Priority:        reasoning.SolutionPriorityMedium,
			EstimatedImpact: "Clarifies root cause with quantitative evidence",
			EstimatedEffort: "2-4 hours",
			Steps: []reasoning.SolutionStep{
				{ID: tension.ID + "-step-1", Title: "Profile dataset", RequiredSkills: []string{"data_exploration"}},
				{ID: tension.ID + "-step-2", Title: "Run statistical analysis", RequiredSkills: []string{"statistical_analysis"}, Dependencies: []string{tension.ID + "-step-1"}},
				{ID: tension.ID + "-step-3", Title: "Publish findings", RequiredSkills: []string{"report_generation"}, Dependencies: []string{tension.ID + "-step-2"}},
			},
			ConfidenceScore: 0.75,
			Reasoning:       "Generated by the data_analyst template for a " + string(analysis.TensionType) + " tension",
			CreatedAt:       time.Now(),
		},
	}
}

func (b *dataAnalystBehavior) ExecuteSolution(solution reasoning.GeneratedSolution) agents.ActionResult {
	return agents.ActionResult{
		Status:          agents.ExecutionCompleted,
		ActualResults:   map[string]any{"solution_id": solution.ID, "report_produced": true},
		EventsGenerated: []string{"ReportGenerated"},
	}
}

func urgencyFromPriority(p reasoning.Priority) string {
	if p == reasoning.PriorityHigh || p == reasoning.PriorityCritical {
		return "high"
	}
	return "low"
}
