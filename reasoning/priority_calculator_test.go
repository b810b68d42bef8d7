package reasoning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func highImpactAnalysis() TensionAnalysis {
	return TensionAnalysis{
		TensionType:       TensionProblem,
		ImpactLevel:       ImpactCritical,
		UrgencyLevel:      UrgencyCritical,
		ConfidenceScore:   0.9,
		KeyThemes:         []string{"Security"},
		SuggestedPriority: 2,
	}
}

func TestCalculate_ScoreWithinBounds(t *testing.T) {
	c := NewPriorityCalculator()
	for _, method := range []PriorityMethod{
		MethodWeightedAverage, MethodEisenhowerMatrix, MethodRiceFramework, MethodValueComplexity, MethodRiskAdjusted,
	} {
		result := c.Calculate(highImpactAnalysis(), "Security breach", "Critical vulnerability found", nil, method)
		assert.GreaterOrEqual(t, result.FinalScore, 0.0)
		assert.LessOrEqual(t, result.FinalScore, 100.0)
		assert.Equal(t, method, result.CalculationMethod)
	}
}

func TestCalculate_UnknownMethodDefaultsToWeightedAverage(t *testing.T) {
	c := NewPriorityCalculator()
	result := c.Calculate(highImpactAnalysis(), "Security breach", "Critical vulnerability found", nil, PriorityMethod("nonsense"))
	assert.Equal(t, MethodWeightedAverage, result.CalculationMethod)
}

func TestDetermineBusinessContext_DetectsSecurityIncident(t *testing.T) {
	analysis := highImpactAnalysis()
	ctx := determineBusinessContext(analysis, "Security breach", "Critical vulnerability found")
	assert.Equal(t, "security_incident", ctx)
}

func TestApplyContextAdjustments_BoostsRiskForSecurityIncident(t *testing.T) {
	base := priorityFactors{riskLevel: 0.3, urgency: 0.3}
	adjusted := applyContextAdjustments(base, "security_incident")
	assert.Greater(t, adjusted.riskLevel, base.riskLevel)
	assert.Greater(t, adjusted.urgency, base.urgency)
}

func TestNormalizePriority_Bands(t *testing.T) {
	level, label := normalizePriority(85)
	assert.Equal(t, 2, level)
	assert.Equal(t, LevelCritical, label)

	level, label = normalizePriority(65)
	assert.Equal(t, 1, level)
	assert.Equal(t, LevelHigh, label)

	level, label = normalizePriority(45)
	assert.Equal(t, 0, level)
	assert.Equal(t, LevelMedium, label)

	level, label = normalizePriority(10)
	assert.Equal(t, 0, level)
	assert.Equal(t, LevelLow, label)
}

func TestCalculate_RecommendationsDeduped(t *testing.T) {
	c := NewPriorityCalculator()
	result := c.Calculate(highImpactAnalysis(), "Security breach", "Critical vulnerability found", nil, MethodWeightedAverage)
	seen := make(map[string]bool)
	for _, r := range result.Recommendations {
		assert.False(t, seen[r], "duplicate recommendation: %s", r)
		seen[r] = true
	}
}
