package orchestration

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trm-os/reasoning-core/agents"
	"github.com/trm-os/reasoning-core/reasoning"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	return e
}

// Scenario 1 — Critical API outage.
func TestScenario_CriticalAPIOutage(t *testing.T) {
	e := newTestEngine(t)
	result, err := e.ProcessTension(context.Background(), reasoning.ReasoningRequest{
		Title:       "API Server Down",
		Description: "The main API server is not responding and showing error messages",
	})
	require.NoError(t, err)

	require.NotNil(t, result.Analysis)
	assert.Equal(t, reasoning.TensionProblem, result.Analysis.TensionType)
	assert.Contains(t, []reasoning.ImpactLevel{reasoning.ImpactHigh, reasoning.ImpactCritical}, result.Analysis.ImpactLevel)
	assert.Contains(t, []reasoning.UrgencyLevel{reasoning.UrgencyHigh, reasoning.UrgencyCritical}, result.Analysis.UrgencyLevel)
	assert.Contains(t, result.Analysis.KeyThemes, "Technology")
	assert.GreaterOrEqual(t, result.Analysis.SuggestedPriority, 1)

	var foundCritical bool
	for _, rr := range result.RuleResults {
		if strings.Contains(strings.ToLower(rr.RuleName), "critical") {
			foundCritical = true
		}
	}
	assert.True(t, foundCritical, "expected critical-tension-escalation rule to match")

	var foundActionable bool
	for _, sol := range result.Solutions {
		if sol.SolutionType == reasoning.SolutionImmediateAction || sol.SolutionType == reasoning.SolutionTechnologySolution {
			foundActionable = true
		}
	}
	assert.True(t, foundActionable)

	require.NotNil(t, result.PriorityCalculation)
	assert.GreaterOrEqual(t, result.PriorityCalculation.FinalScore, 70.0)
}

// Scenario 2 — Low-stakes UX suggestion.
func TestScenario_LowStakesUXSuggestion(t *testing.T) {
	e := newTestEngine(t)
	result, err := e.ProcessTension(context.Background(), reasoning.ReasoningRequest{
		Title:       "Improve User Experience",
		Description: "We could enhance the user interface to improve customer satisfaction and engagement",
	})
	require.NoError(t, err)

	require.NotNil(t, result.Analysis)
	assert.Equal(t, reasoning.TensionOpportunity, result.Analysis.TensionType)
	assert.LessOrEqual(t, result.Analysis.ImpactLevel, reasoning.ImpactMedium)
	assert.GreaterOrEqual(t, result.Analysis.ConfidenceScore, 0.3)
	assert.True(t, strings.Contains(strings.ToLower(result.Analysis.Reasoning), "opportunity"))

	for _, rr := range result.RuleResults {
		assert.NotContains(t, strings.ToLower(rr.RuleName), "critical")
	}
}

// Scenario 3 — Security vulnerability.
func TestScenario_SecurityVulnerability(t *testing.T) {
	e := newTestEngine(t)
	result, err := e.ProcessTension(context.Background(), reasoning.ReasoningRequest{
		Title:       "Potential Security Vulnerability",
		Description: "Security audit revealed potential vulnerability in authentication system",
	})
	require.NoError(t, err)

	require.NotNil(t, result.Analysis)
	assert.Contains(t, result.Analysis.KeyThemes, "Security")
	assert.Contains(t, []reasoning.ImpactLevel{reasoning.ImpactHigh, reasoning.ImpactCritical}, result.Analysis.ImpactLevel)
	assert.GreaterOrEqual(t, result.Analysis.SuggestedPriority, 1)

	var foundSecurityRule bool
	for _, rr := range result.RuleResults {
		if strings.Contains(strings.ToLower(rr.RuleName), "security") {
			foundSecurityRule = true
		}
	}
	assert.True(t, foundSecurityRule)

	var foundSecurityRecommendation bool
	for _, rec := range result.Recommendations {
		if strings.Contains(strings.ToLower(rec), "security") {
			foundSecurityRecommendation = true
		}
	}
	assert.True(t, foundSecurityRecommendation)
}

// Scenario 4 — Template match for data analysis.
func TestScenario_TemplateMatchForDataAnalysis(t *testing.T) {
	e := newTestEngine(t)
	tension := reasoning.Tension{
		ID:          "t-data-1",
		Title:       "Sales Data Analysis Required",
		Description: "Review quarterly sales data to identify trends and patterns",
		Type:        reasoning.TensionDataAnalysis,
	}

	matches := e.registry.MatchTensionToTemplates(tension, 3)
	require.NotEmpty(t, matches)
	assert.Equal(t, "data_analyst", matches[0].TemplateName)

	agent, match, err := e.registry.CreateBestMatchAgent(tension)
	require.NoError(t, err)
	assert.Equal(t, "data_analyst", match.TemplateName)
	assert.Equal(t, "data_analyst", agent.Metadata.TemplateName)
}

// Scenario 5 — Composite agent creation.
func TestScenario_CompositeAgentCreation(t *testing.T) {
	e := newTestEngine(t)
	creator := agents.NewAdvancedAgentCreator()

	dataAnalyst, err := e.registry.CreateAgentFromTemplate("data_analyst", "")
	require.NoError(t, err)
	codeGenerator, err := e.registry.CreateAgentFromTemplate("code_generator", "")
	require.NoError(t, err)

	composite, err := creator.CreateCompositeAgent([]*agents.Agent{dataAnalyst, codeGenerator}, map[string]any{"complexity": "high"})
	require.NoError(t, err)

	maxIndividual := len(dataAnalyst.Capabilities)
	if len(codeGenerator.Capabilities) > maxIndividual {
		maxIndividual = len(codeGenerator.Capabilities)
	}
	assert.GreaterOrEqual(t, len(composite.Capabilities), maxIndividual)
	assert.LessOrEqual(t, len(composite.Capabilities), len(dataAnalyst.Capabilities)+len(codeGenerator.Capabilities))

	dataTension := reasoning.Tension{ID: "dt", Title: "data analysis", Description: "analyze metrics and trends", Type: reasoning.TensionDataAnalysis}
	codeTension := reasoning.Tension{ID: "ct", Title: "bug report", Description: "bug fixing needed in production", Type: reasoning.TensionTechnicalDebt}
	assert.True(t, composite.CanHandleTension(dataTension) || composite.CanHandleTension(codeTension))

	solutions := composite.GenerateSpecializedSolutions(dataTension, reasoning.TensionAnalysis{TensionType: reasoning.TensionDataAnalysis})
	assert.NotEmpty(t, solutions)
}

// DispatchToBestMatch authorizes the agent before running its quantum
// cycle; the Act phase must actually complete instead of failing at the
// gate check (previously the gate authorized per-template capability
// names while the Act phase checked the fixed quantum action names, so
// every dispatched cycle silently ended in ExecutionFailed).
func TestDispatchToBestMatch_ActPhaseCompletesAfterAuthorization(t *testing.T) {
	e := newTestEngine(t)
	tension := reasoning.Tension{
		ID:          "dispatch-1",
		Title:       "Sales Data Analysis Required",
		Description: "Review quarterly sales data to identify trends and patterns",
		Type:        reasoning.TensionDataAnalysis,
	}

	result, err := e.DispatchToBestMatch(tension)
	require.NoError(t, err)
	assert.Equal(t, agents.ExecutionCompleted, result.Action.Status)
}

// Scenario 6 — Ecosystem health with idle agents.
func TestScenario_EcosystemHealthWithIdleAgents(t *testing.T) {
	e := newTestEngine(t)

	busy, err := e.registry.CreateAgentFromTemplate("data_analyst", "")
	require.NoError(t, err)
	busy.ActiveTensions["t1"] = reasoning.Tension{ID: "t1"}
	busy.ActiveTensions["t2"] = reasoning.Tension{ID: "t2"}
	busy.ActiveTensions["t3"] = reasoning.Tension{ID: "t3"}

	_, err = e.registry.CreateAgentFromTemplate("code_generator", "")
	require.NoError(t, err)
	_, err = e.registry.CreateAgentFromTemplate("user_interface", "")
	require.NoError(t, err)

	report := e.HealthReport()
	assert.Less(t, report.WorkloadBalanceScore, 60.0)

	var foundIdleIssue bool
	for _, issue := range report.IssuesIdentified {
		if strings.Contains(strings.ToLower(issue), "idle") {
			foundIdleIssue = true
		}
	}
	assert.True(t, foundIdleIssue)
	assert.NotEmpty(t, report.Recommendations)
}
