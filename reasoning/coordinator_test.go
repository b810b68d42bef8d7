package reasoning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessTension_FullPipelineSucceeds(t *testing.T) {
	coordinator := NewReasoningCoordinator(4)
	result := coordinator.ProcessTension(ReasoningRequest{
		Title:       "Production API outage",
		Description: "The payment API server crashed with a critical error, customers cannot check out.",
	})

	require.True(t, result.Success)
	require.NotNil(t, result.Analysis)
	assert.NotEmpty(t, result.Solutions)
	assert.NotNil(t, result.PriorityCalculation)
	assert.NotEmpty(t, result.Recommendations)
	assert.LessOrEqual(t, len(result.Recommendations), 10)
}

func TestProcessTension_SkipsDependentStagesWithoutAnalysis(t *testing.T) {
	coordinator := NewReasoningCoordinator(4)
	result := coordinator.ProcessTension(ReasoningRequest{
		Title:             "Some tension",
		Description:       "Some description",
		RequestedServices: []RequestedService{ServiceRules},
	})

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Errors)
}

func TestProcessTension_OnlyAnalysisRequested(t *testing.T) {
	coordinator := NewReasoningCoordinator(4)
	result := coordinator.ProcessTension(ReasoningRequest{
		Title:             "Some tension",
		Description:       "Some description",
		RequestedServices: []RequestedService{ServiceAnalysis},
	})

	assert.True(t, result.Success)
	require.NotNil(t, result.Analysis)
	assert.Nil(t, result.PriorityCalculation)
	assert.Empty(t, result.Solutions)
}

func TestProcessBatch_ProcessesAllRequestsConcurrently(t *testing.T) {
	coordinator := NewReasoningCoordinator(2)
	requests := make([]ReasoningRequest, 0, 10)
	for i := 0; i < 10; i++ {
		requests = append(requests, ReasoningRequest{
			Title:       "Tension",
			Description: "Some broken system issue",
		})
	}

	results := coordinator.ProcessBatch(context.Background(), requests)
	require.Len(t, results, 10)
	for _, r := range results {
		assert.True(t, r.Success)
	}

	stats := coordinator.GetPerformanceStats()
	assert.Equal(t, int64(10), stats.TotalProcessed)
	assert.Equal(t, int64(10), stats.SuccessfulProcessing)
}

func TestValidateComponents_AllHealthy(t *testing.T) {
	coordinator := NewReasoningCoordinator(4)
	results := coordinator.ValidateComponents()
	for name, healthy := range results {
		assert.True(t, healthy, "component %s reported unhealthy", name)
	}
}

func TestConsolidateRecommendations_Deduplicates(t *testing.T) {
	coordinator := NewReasoningCoordinator(4)
	result := coordinator.ProcessTension(ReasoningRequest{
		Title:       "Security breach detected",
		Description: "A critical vulnerability was found in production, data may have leaked.",
	})

	seen := make(map[string]bool)
	for _, r := range result.Recommendations {
		assert.False(t, seen[r], "duplicate recommendation %q", r)
		seen[r] = true
	}
}
