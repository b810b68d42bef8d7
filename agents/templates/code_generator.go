package templates

import (
	"time"

	"github.com/trm-os/reasoning-core/agents"
	"github.com/trm-os/reasoning-core/reasoning"
)

// CodeGeneratorDefinition builds the code-generator template: scaffolding,
// bug fixes, and refactors over Problem/TechnicalDebt-typed tensions.
func CodeGeneratorDefinition() Definition {
	return Definition{
		Name:           "code_generator",
		DomainKeywords: []string{"code", "bug", "feature", "refactor", "implementation", "function"},
		NewMetadata:    newCodeGeneratorMetadata,
		NewBehavior: func(a *agents.Agent) agents.SpecializedBehavior {
			return &codeGeneratorBehavior{agent: a}
		},
	}
}

func newCodeGeneratorMetadata() agents.AgentTemplateMetadata {
	now := time.Now()
	return agents.AgentTemplateMetadata{
		TemplateName:    "code_generator",
		PrimaryDomain:   "software_engineering",
		DomainExpertise: []string{"code", "software", "engineering", "refactoring", "debugging"},
		SupportedTensionTypes: []reasoning.TensionType{
			reasoning.TensionProblem,
			reasoning.TensionTechnicalDebt,
			reasoning.TensionIdea,
		},
		Capabilities: []agents.AgentCapability{
			{
				Name: "bug_fixing", Description: "Diagnose and patch a reported defect",
				ProficiencyLevel: 0.85, EstimatedTimePerTask: 60,
				RelatedTensionTypes: []reasoning.TensionType{reasoning.TensionProblem},
				WinContribution:     agents.WinWeights{"wisdom": 0.3, "intelligence": 0.6, "networking": 0.1},
			},
			{
				Name: "refactoring", Description: "Restructure code to reduce technical debt without changing behavior",
				ProficiencyLevel: 0.8, EstimatedTimePerTask: 90,
				RelatedTensionTypes: []reasoning.TensionType{reasoning.TensionTechnicalDebt},
				WinContribution:     agents.WinWeights{"wisdom": 0.5, "intelligence": 0.4, "networking": 0.1},
			},
			{
				Name: "feature_implementation", Description: "Implement a new capability from a requirements idea",
				ProficiencyLevel: 0.75, EstimatedTimePerTask: 120,
				RelatedTensionTypes: []reasoning.TensionType{reasoning.TensionIdea},
				WinContribution:     agents.WinWeights{"wisdom": 0.2, "intelligence": 0.6, "networking": 0.2},
			},
			{
				Name: "code_review", Description: "Review a change for correctness and maintainability",
				ProficiencyLevel: 0.8, EstimatedTimePerTask: 30,
				WinContribution: agents.WinWeights{"wisdom": 0.4, "intelligence": 0.3, "networking": 0.3},
			},
		},
		PerformanceMetrics:     map[string]float64{},
		Version:                "1.0.0",
		CreatedAt:              now,
		UpdatedAt:              now,
		WinOptimizationWeights: agents.WinWeights{"wisdom": 0.3, "intelligence": 0.55, "networking": 0.15},
	}
}

type codeGeneratorBehavior struct {
	agent *agents.Agent
}

func (b *codeGeneratorBehavior) AnalyzeTensionRequirements(tension reasoning.Tension) agents.TensionRequirements {
	return agents.TensionRequirements{
		Complexity:      "medium",
		Urgency:         urgencyFromPriority(tension.Priority),
		RequiredSkills:  []string{"bug_fixing", "code_review"},
		Deliverables:    []string{"patch", "test coverage"},
		EstimatedEffort: "1-2 days",
	}
}

func (b *codeGeneratorBehavior) GenerateSpecializedSolutions(tension reasoning.Tension, analysis reasoning.TensionAnalysis) []reasoning.GeneratedSolution {
	solutionType := reasoning.SolutionImmediateAction
	if analysis.TensionType == reasoning.TensionTechnicalDebt {
		solutionType = reasoning.SolutionProcessImprovement
	}
	return []reasoning.GeneratedSolution{
		{
			ID:              tension.ID + "-code-generator",
			Title:           "Implementation plan for " + tension.Title,
			Description:     "Diagnose root cause, implement a fix, and add regression coverage.",
			SolutionType:    solutionType,
			Priority:        reasoning.SolutionPriorityMedium,
			EstimatedImpact: "Removes the defect and reduces recurrence risk",
			EstimatedEffort: "1-2 days",
			Steps: []reasoning.SolutionStep{
				{ID: tension.ID + "-cg-step-1", Title: "Reproduce and isolate the defect", RequiredSkills: []string{"bug_fixing"}},
				{ID: tension.ID + "-cg-step-2", Title: "Implement the fix", RequiredSkills: []string{"feature_implementation"}, Dependencies: []string{tension.ID + "-cg-step-1"}},
				{ID: tension.ID + "-cg-step-3", Title: "Add regression tests and review", RequiredSkills: []string{"code_review"}, Dependencies: []string{tension.ID + "-cg-step-2"}},
			},
			ConfidenceScore: 0.75,
			Reasoning:       "Generated by the code_generator template for a " + string(analysis.TensionType) + " tension",
			CreatedAt:       time.Now(),
		},
	}
}

func (b *codeGeneratorBehavior) ExecuteSolution(solution reasoning.GeneratedSolution) agents.ActionResult {
	return agents.ActionResult{
		Status:          agents.ExecutionCompleted,
		ActualResults:   map[string]any{"solution_id": solution.ID, "patch_submitted": true},
		EventsGenerated: []string{"CodeReviewRequested"},
	}
}
