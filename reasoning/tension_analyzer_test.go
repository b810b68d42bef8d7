package reasoning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeTension_ClassifiesProblem(t *testing.T) {
	a := NewTensionAnalyzer()
	result := a.AnalyzeTension("API gateway is broken", "The production API server crashed with a critical error and customers cannot log in.", "Open")

	assert.Equal(t, TensionProblem, result.TensionType)
	assert.Equal(t, ImpactCritical, result.ImpactLevel)
	assert.Equal(t, UrgencyCritical, result.UrgencyLevel)
	assert.Equal(t, 2, result.SuggestedPriority)
	assert.Contains(t, result.KeyThemes, "Technology")
	assert.NotEmpty(t, result.Reasoning)
}

func TestAnalyzeTension_ClassifiesOpportunity(t *testing.T) {
	a := NewTensionAnalyzer()
	result := a.AnalyzeTension("Improve onboarding flow", "We could optimize the signup process to improve conversion.", "Open")

	assert.Equal(t, TensionOpportunity, result.TensionType)
}

func TestAnalyzeTension_UnknownWhenNoSignal(t *testing.T) {
	a := NewTensionAnalyzer()
	result := a.AnalyzeTension("", "", "Open")

	assert.Equal(t, TensionUnknown, result.TensionType)
	assert.Equal(t, 0.5, result.ConfidenceScore)
	assert.Equal(t, []string{"General"}, result.KeyThemes)
}

func TestAnalyzeTension_ConfidenceNeverExceedsCap(t *testing.T) {
	a := NewTensionAnalyzer()
	result := a.AnalyzeTension("Error error error failure failure broken", "issue issue problem not working", "Open")

	require.LessOrEqual(t, result.ConfidenceScore, 0.95)
}

func TestAnalyzeTension_EntitiesCappedAtFive(t *testing.T) {
	a := NewTensionAnalyzer()
	result := a.AnalyzeTension("Alpha Beta Gamma Delta Epsilon Zeta Eta", "", "Open")

	assert.LessOrEqual(t, len(result.ExtractedEntities), 5)
}

func TestAnalyzeTension_NeverPanicsOnEmptyInput(t *testing.T) {
	a := NewTensionAnalyzer()
	require.NotPanics(t, func() {
		a.AnalyzeTension("", "", "")
	})
}
