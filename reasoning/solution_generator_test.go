package reasoning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSolutions_ProducesPrimarySolution(t *testing.T) {
	g := NewSolutionGenerator()
	analysis := TensionAnalysis{
		TensionType:       TensionProblem,
		ImpactLevel:       ImpactHigh,
		UrgencyLevel:      UrgencyHigh,
		ConfidenceScore:   0.9,
		KeyThemes:         []string{"Technology"},
		SuggestedPriority: 1,
	}

	solutions := g.GenerateSolutions(analysis, "Login bug", "Users hit a bug on login")
	require.NotEmpty(t, solutions)
	assert.LessOrEqual(t, len(solutions), 5)
	for _, s := range solutions {
		assert.NotEmpty(t, s.Steps)
		for i, step := range s.Steps {
			if i == 0 {
				assert.Empty(t, step.Dependencies)
			} else {
				assert.NotEmpty(t, step.Dependencies)
			}
		}
	}
}

func TestGenerateSolutions_AddsEscalationForCriticalPriority(t *testing.T) {
	g := NewSolutionGenerator()
	analysis := TensionAnalysis{
		TensionType:       TensionProblem,
		ImpactLevel:       ImpactCritical,
		UrgencyLevel:      UrgencyCritical,
		ConfidenceScore:   0.9,
		KeyThemes:         []string{"Technology"},
		SuggestedPriority: 2,
	}

	solutions := g.GenerateSolutions(analysis, "Production down", "The system crashed")
	found := false
	for _, s := range solutions {
		if s.SolutionType == SolutionEscalation {
			found = true
		}
	}
	assert.True(t, found)
}

func TestGenerateSolutions_SortedByPriorityDescending(t *testing.T) {
	g := NewSolutionGenerator()
	analysis := TensionAnalysis{
		TensionType:       TensionProblem,
		ImpactLevel:       ImpactCritical,
		UrgencyLevel:      UrgencyCritical,
		ConfidenceScore:   0.9,
		KeyThemes:         []string{"Technology", "Business", "Security"},
		SuggestedPriority: 2,
	}

	solutions := g.GenerateSolutions(analysis, "Security breach", "A breach occurred")
	for i := 1; i < len(solutions); i++ {
		assert.GreaterOrEqual(t, solutions[i-1].Priority, solutions[i].Priority)
	}
}

func TestEffortEstimate_RendersStepCountAsDecimal(t *testing.T) {
	steps := []SolutionStep{{ID: "1"}, {ID: "2"}}
	assert.Equal(t, "Low effort (2 steps)", effortEstimate(steps))
}
