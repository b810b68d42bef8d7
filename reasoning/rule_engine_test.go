package reasoning

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRuleEngine_PreloadsDefaultRules(t *testing.T) {
	e := NewRuleEngine()
	summary := e.RulesSummary()
	assert.Equal(t, 5, summary["total_rules"])
	assert.Equal(t, 5, summary["enabled_rules"])
}

func TestEvaluateRules_CriticalEscalation(t *testing.T) {
	e := NewRuleEngine()
	ctx := map[string]any{
		"title": "Outage",
		"analysis": map[string]any{
			"suggested_priority": 2,
			"impact_level":       4,
			"key_themes":         []string{"Technology"},
		},
	}
	matches := e.EvaluateRules(ctx, "")
	require.NotEmpty(t, matches)
	assert.Equal(t, "critical_tension_escalation", matches[0].RuleID)
}

func TestEvaluateRules_OrderedByPriority(t *testing.T) {
	e := NewRuleEngine()
	ctx := map[string]any{
		"title": "Security gap found in Technology stack, technical debt",
		"analysis": map[string]any{
			"suggested_priority": 2,
			"impact_level":       4,
			"tension_type":       string(TensionProblem),
			"key_themes":         []string{"Security", "Business", "Technology"},
		},
	}
	matches := e.EvaluateRules(ctx, "")
	require.GreaterOrEqual(t, len(matches), 2)
	for i := 1; i < len(matches); i++ {
		assert.LessOrEqual(t, matches[i-1].Priority, matches[i].Priority)
	}
}

func TestAddRule_RejectsDuplicateID(t *testing.T) {
	e := NewRuleEngine()
	_, err := e.AddRule(BusinessRule{
		ID:   "critical_tension_escalation",
		Name: "dup",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestAddRule_RejectsMissingName(t *testing.T) {
	e := NewRuleEngine()
	_, err := e.AddRule(BusinessRule{ID: "new_rule"})
	require.Error(t, err)
}

func TestRemoveRule_ThenGetRuleMissing(t *testing.T) {
	e := NewRuleEngine()
	e.RemoveRule("opportunity_prioritization")
	_, ok := e.GetRule("opportunity_prioritization")
	assert.False(t, ok)
}

func TestDetectRuleConflicts_FindsOpposedActions(t *testing.T) {
	e := NewRuleEngine()
	_, err := e.AddRule(BusinessRule{
		ID:       "test_escalate",
		Name:     "Test Escalate",
		Priority: 10,
		Enabled:  true,
		Conditions: []RuleCondition{
			{Field: "analysis.impact_level", Operator: OpGreaterThan, Value: 3},
		},
		Actions: []RuleAction{
			{ActionType: "escalate_tension"},
		},
	})
	require.NoError(t, err)

	_, err = e.AddRule(BusinessRule{
		ID:       "test_deescalate",
		Name:     "Test De-escalate",
		Priority: 11,
		Enabled:  true,
		Conditions: []RuleCondition{
			{Field: "analysis.impact_level", Operator: OpGreaterThan, Value: 3},
		},
		Actions: []RuleAction{
			{ActionType: "de_escalate_tension"},
		},
	})
	require.NoError(t, err)

	conflicts := e.DetectRuleConflicts()
	found := false
	for _, c := range conflicts {
		if (c.RuleAID == "test_escalate" && c.RuleBID == "test_deescalate") ||
			(c.RuleAID == "test_deescalate" && c.RuleBID == "test_escalate") {
			found = true
		}
	}
	assert.True(t, found, "expected a conflict between opposed escalate/de-escalate rules")
}

func TestEvaluateCondition_Operators(t *testing.T) {
	ctx := map[string]any{"analysis": map[string]any{"impact_level": 3, "key_themes": []string{"Security"}}}

	assert.True(t, evaluateCondition(RuleCondition{Field: "analysis.impact_level", Operator: OpGreaterThan, Value: 2}, ctx))
	assert.False(t, evaluateCondition(RuleCondition{Field: "analysis.impact_level", Operator: OpLessThan, Value: 2}, ctx))
	assert.True(t, evaluateCondition(RuleCondition{Field: "analysis.key_themes", Operator: OpContains, Value: "Security"}, ctx))
	assert.False(t, evaluateCondition(RuleCondition{Field: "analysis.missing_field", Operator: OpEquals, Value: "x"}, ctx))
}
