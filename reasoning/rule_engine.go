package reasoning

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrInvalidInput is returned for validation failures at the system
// boundary: a missing required field, a duplicate rule id, a rule that
// fails validateRule.
var ErrInvalidInput = errors.New("invalid input")

// RuleType classifies what a BusinessRule is for.
type RuleType string

const (
	RuleTypeCondition  RuleType = "Condition"
	RuleTypeAction     RuleType = "Action"
	RuleTypeValidation RuleType = "Validation"
	RuleTypeEscalation RuleType = "Escalation"
)

// OperatorType enumerates the comparison operators a RuleCondition may use.
type OperatorType string

const (
	OpEquals      OperatorType = "Equals"
	OpNotEquals   OperatorType = "NotEquals"
	OpGreaterThan OperatorType = "GreaterThan"
	OpLessThan    OperatorType = "LessThan"
	OpContains    OperatorType = "Contains"
	OpNotContains OperatorType = "NotContains"
	OpIn          OperatorType = "In"
	OpNotIn       OperatorType = "NotIn"
)

// RuleCondition tests a single dotted-path field within a context map.
type RuleCondition struct {
	Field    string       `json:"field"`
	Operator OperatorType `json:"operator"`
	Value    any          `json:"value"`
}

// RuleAction is a side-effect-free action descriptor executed when a rule
// matches; executing it produces a RuleActionResult rather than mutating
// anything directly.
type RuleAction struct {
	ActionType string         `json:"action_type"`
	Parameters map[string]any `json:"parameters"`
}

// RuleActionResult is the structured, side-effect-free record produced by
// executing a RuleAction.
type RuleActionResult struct {
	ActionType string         `json:"action_type"`
	Parameters map[string]any `json:"parameters"`
	Context    map[string]any `json:"context"`
	Executed   bool           `json:"executed"`
}

// BusinessRule is a declarative (conditions, actions) pair evaluated
// against a context map. All conditions within a rule combine with AND.
type BusinessRule struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	RuleType    RuleType        `json:"rule_type"`
	Conditions  []RuleCondition `json:"conditions"`
	Actions     []RuleAction    `json:"actions"`
	Priority    int             `json:"priority"` // lower = evaluated first
	Enabled     bool            `json:"enabled"`
}

// RuleMatchRecord is emitted for every rule whose conditions all held true.
type RuleMatchRecord struct {
	RuleID      string              `json:"rule_id"`
	RuleName    string              `json:"rule_name"`
	Priority    int                 `json:"priority"`
	ActionResults []RuleActionResult `json:"action_results"`
}

// RuleValidationResult is returned by ValidateRule.
type RuleValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// RuleConflict names two rules that share a condition field and carry
// opposed action types.
type RuleConflict struct {
	RuleAID string `json:"rule_a_id"`
	RuleBID string `json:"rule_b_id"`
	Field   string `json:"field"`
	Reason  string `json:"reason"`
}

var opposedActionPairs = [][2]string{
	{"escalate_tension", "de_escalate_tension"},
	{"assign_to_team", "unassign_from_team"},
	{"increase_priority", "decrease_priority"},
}

// RuleEngine holds a mutable set of BusinessRules and evaluates them
// against a context map. Mutation (AddRule/RemoveRule) is exclusive;
// evaluation takes a consistent snapshot under a shared lock, matching the
// spec's shared-resource policy for this component.
type RuleEngine struct {
	mu    sync.RWMutex
	rules map[string]BusinessRule
}

// NewRuleEngine constructs a RuleEngine preloaded with the five default
// rules (spec §4.2): critical-tension escalation, security handling,
// high-impact business tensions, technical-debt tagging, opportunity
// prioritization.
func NewRuleEngine() *RuleEngine {
	e := &RuleEngine{rules: make(map[string]BusinessRule)}
	for _, r := range defaultRules() {
		e.rules[r.ID] = r
	}
	return e
}

func defaultRules() []BusinessRule {
	return []BusinessRule{
		{
			ID:          "critical_tension_escalation",
			Name:        "Critical Tension Escalation",
			Description: "Escalate tensions with critical suggested priority and high impact",
			RuleType:    RuleTypeEscalation,
			Conditions: []RuleCondition{
				{Field: "analysis.suggested_priority", Operator: OpGreaterThan, Value: 1},
				{Field: "analysis.impact_level", Operator: OpGreaterThan, Value: 3},
			},
			Actions: []RuleAction{
				{ActionType: "escalate_tension", Parameters: map[string]any{"level": "critical"}},
			},
			Priority: 1,
			Enabled:  true,
		},
		{
			ID:          "security_tension_handling",
			Name:        "Security Tension Handling",
			Description: "Route tensions touching the Security theme to the security team",
			RuleType:    RuleTypeCondition,
			Conditions: []RuleCondition{
				{Field: "analysis.key_themes", Operator: OpContains, Value: "Security"},
			},
			Actions: []RuleAction{
				{ActionType: "assign_to_team", Parameters: map[string]any{"team": "security"}},
			},
			Priority: 2,
			Enabled:  true,
		},
		{
			ID:          "high_business_impact",
			Name:        "High Business Impact",
			Description: "Flag high-impact business tensions for leadership visibility",
			RuleType:    RuleTypeCondition,
			Conditions: []RuleCondition{
				{Field: "analysis.key_themes", Operator: OpContains, Value: "Business"},
				{Field: "analysis.impact_level", Operator: OpGreaterThan, Value: 2},
			},
			Actions: []RuleAction{
				{ActionType: "notify_leadership", Parameters: map[string]any{}},
			},
			Priority: 3,
			Enabled:  true,
		},
		{
			ID:          "tech_debt_identification",
			Name:        "Technical Debt Identification",
			Description: "Tag Problem tensions mentioning technical debt in a Technology theme",
			RuleType:    RuleTypeCondition,
			Conditions: []RuleCondition{
				{Field: "analysis.tension_type", Operator: OpEquals, Value: string(TensionProblem)},
				{Field: "analysis.key_themes", Operator: OpContains, Value: "Technology"},
				{Field: "title", Operator: OpContains, Value: "technical debt"},
			},
			Actions: []RuleAction{
				{ActionType: "tag_tension", Parameters: map[string]any{"tag": "technical_debt"}},
			},
			Priority: 4,
			Enabled:  true,
		},
		{
			ID:          "opportunity_prioritization",
			Name:        "Opportunity Prioritization",
			Description: "Route opportunity tensions through the innovation backlog",
			RuleType:    RuleTypeCondition,
			Conditions: []RuleCondition{
				{Field: "analysis.tension_type", Operator: OpEquals, Value: string(TensionOpportunity)},
			},
			Actions: []RuleAction{
				{ActionType: "assign_to_team", Parameters: map[string]any{"team": "innovation"}},
			},
			Priority: 5,
			Enabled:  true,
		},
	}
}

// AddRule validates, then registers a new rule. If id is empty, one is
// generated.
func (e *RuleEngine) AddRule(rule BusinessRule) (BusinessRule, error) {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.rules[rule.ID]; exists {
		return BusinessRule{}, fmt.Errorf("%w: duplicate rule id %q", ErrInvalidInput, rule.ID)
	}
	result := e.validateRuleLocked(rule)
	if !result.Valid {
		return BusinessRule{}, fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(result.Errors, "; "))
	}
	e.rules[rule.ID] = rule
	return rule, nil
}

// RemoveRule deletes a rule by id. No error if it does not exist.
func (e *RuleEngine) RemoveRule(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.rules, id)
}

// GetRule returns a rule by id.
func (e *RuleEngine) GetRule(id string) (BusinessRule, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.rules[id]
	return r, ok
}

// EvaluateRules evaluates all enabled rules (optionally filtered by
// ruleType) against context, in ascending priority order, and returns a
// match record for every rule whose conditions all held. filterByType may
// be the empty string to mean "all types".
func (e *RuleEngine) EvaluateRules(context map[string]any, filterByType RuleType) []RuleMatchRecord {
	e.mu.RLock()
	snapshot := make([]BusinessRule, 0, len(e.rules))
	for _, r := range e.rules {
		if !r.Enabled {
			continue
		}
		if filterByType != "" && r.RuleType != filterByType {
			continue
		}
		snapshot = append(snapshot, r)
	}
	e.mu.RUnlock()

	sort.SliceStable(snapshot, func(i, j int) bool {
		return snapshot[i].Priority < snapshot[j].Priority
	})

	var results []RuleMatchRecord
	for _, r := range snapshot {
		if !evaluateConditions(r.Conditions, context) {
			continue
		}
		actionResults := make([]RuleActionResult, 0, len(r.Actions))
		for _, action := range r.Actions {
			actionResults = append(actionResults, executeAction(action, context))
		}
		results = append(results, RuleMatchRecord{
			RuleID:        r.ID,
			RuleName:      r.Name,
			Priority:      r.Priority,
			ActionResults: actionResults,
		})
	}
	return results
}

func evaluateConditions(conditions []RuleCondition, context map[string]any) bool {
	for _, c := range conditions {
		if !evaluateCondition(c, context) {
			return false
		}
	}
	return true
}

func evaluateCondition(c RuleCondition, context map[string]any) bool {
	fieldValue, ok := getFieldValue(context, c.Field)
	if !ok {
		return false
	}

	switch c.Operator {
	case OpEquals:
		return fmt.Sprint(fieldValue) == fmt.Sprint(c.Value)
	case OpNotEquals:
		return fmt.Sprint(fieldValue) != fmt.Sprint(c.Value)
	case OpGreaterThan:
		a, aok := toFloat(fieldValue)
		b, bok := toFloat(c.Value)
		return aok && bok && a > b
	case OpLessThan:
		a, aok := toFloat(fieldValue)
		b, bok := toFloat(c.Value)
		return aok && bok && a < b
	case OpContains:
		return strings.Contains(strings.ToLower(stringForm(fieldValue)), strings.ToLower(stringForm(c.Value)))
	case OpNotContains:
		return !strings.Contains(strings.ToLower(stringForm(fieldValue)), strings.ToLower(stringForm(c.Value)))
	case OpIn:
		return containsValue(c.Value, fieldValue)
	case OpNotIn:
		return !containsValue(c.Value, fieldValue)
	default:
		return false
	}
}

// getFieldValue resolves a dotted-path field (e.g. "analysis.impact_level")
// against a context map. Slices of strings satisfy Contains-style lookups
// directly (e.g. analysis.key_themes is []string).
func getFieldValue(context map[string]any, field string) (any, bool) {
	parts := strings.Split(field, ".")
	var current any = context
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func stringForm(v any) string {
	switch t := v.(type) {
	case []string:
		return strings.Join(t, ",")
	default:
		return fmt.Sprint(v)
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func containsValue(collection, needle any) bool {
	switch c := collection.(type) {
	case []string:
		needleStr := fmt.Sprint(needle)
		for _, v := range c {
			if v == needleStr {
				return true
			}
		}
		return false
	case []any:
		for _, v := range c {
			if fmt.Sprint(v) == fmt.Sprint(needle) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func executeAction(action RuleAction, context map[string]any) RuleActionResult {
	return RuleActionResult{
		ActionType: action.ActionType,
		Parameters: action.Parameters,
		Context:    context,
		Executed:   true,
	}
}

// ValidateRule checks a rule for structural validity without registering
// it. Missing id/name or a duplicate id are errors; empty condition/action
// lists are warnings only.
func (e *RuleEngine) ValidateRule(rule BusinessRule) RuleValidationResult {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.validateRuleLocked(rule)
}

func (e *RuleEngine) validateRuleLocked(rule BusinessRule) RuleValidationResult {
	result := RuleValidationResult{Valid: true}
	if rule.ID == "" {
		result.Valid = false
		result.Errors = append(result.Errors, "rule id is required")
	} else if _, exists := e.rules[rule.ID]; exists {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("duplicate rule id %q", rule.ID))
	}
	if rule.Name == "" {
		result.Valid = false
		result.Errors = append(result.Errors, "rule name is required")
	}
	if len(rule.Conditions) == 0 {
		result.Warnings = append(result.Warnings, "rule has no conditions")
	}
	if len(rule.Actions) == 0 {
		result.Warnings = append(result.Warnings, "rule has no actions")
	}
	return result
}

// DetectRuleConflicts reports, advisory-only, pairs of enabled rules that
// share a condition field and carry opposed action types. It never blocks
// evaluation (see DESIGN.md Open Question: rule conflict policy).
func (e *RuleEngine) DetectRuleConflicts() []RuleConflict {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := make([]BusinessRule, 0, len(e.rules))
	for _, r := range e.rules {
		if !r.Enabled {
			continue
		}
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })

	var conflicts []RuleConflict
	for i := 0; i < len(rules); i++ {
		for j := i + 1; j < len(rules); j++ {
			field, ok := sharedConditionField(rules[i], rules[j])
			if !ok {
				continue
			}
			if pairOpposed, reason := actionsOpposed(rules[i], rules[j]); pairOpposed {
				conflicts = append(conflicts, RuleConflict{
					RuleAID: rules[i].ID,
					RuleBID: rules[j].ID,
					Field:   field,
					Reason:  reason,
				})
			}
		}
	}
	return conflicts
}

func sharedConditionField(a, b BusinessRule) (string, bool) {
	fields := make(map[string]bool, len(a.Conditions))
	for _, c := range a.Conditions {
		fields[c.Field] = true
	}
	for _, c := range b.Conditions {
		if fields[c.Field] {
			return c.Field, true
		}
	}
	return "", false
}

func actionsOpposed(a, b BusinessRule) (bool, string) {
	for _, pair := range opposedActionPairs {
		aHas, bHas := false, false
		for _, act := range a.Actions {
			if act.ActionType == pair[0] {
				aHas = true
			}
		}
		for _, act := range b.Actions {
			if act.ActionType == pair[1] {
				bHas = true
			}
		}
		if aHas && bHas {
			return true, fmt.Sprintf("opposed actions %q/%q", pair[0], pair[1])
		}
		// symmetric check
		aHas, bHas = false, false
		for _, act := range a.Actions {
			if act.ActionType == pair[1] {
				aHas = true
			}
		}
		for _, act := range b.Actions {
			if act.ActionType == pair[0] {
				bHas = true
			}
		}
		if aHas && bHas {
			return true, fmt.Sprintf("opposed actions %q/%q", pair[1], pair[0])
		}
	}
	return false, ""
}

// RulesSummary returns a compact snapshot of the ruleset for diagnostics.
func (e *RuleEngine) RulesSummary() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()

	enabled, disabled := 0, 0
	for _, r := range e.rules {
		if r.Enabled {
			enabled++
		} else {
			disabled++
		}
	}
	return map[string]any{
		"total_rules":    len(e.rules),
		"enabled_rules":  enabled,
		"disabled_rules": disabled,
	}
}
