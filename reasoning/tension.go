// Package reasoning implements the four-stage cognitive pipeline — tension
// classification, rule evaluation, solution generation, and priority
// calculation — plus the coordinator that orchestrates them end to end.
package reasoning

import "time"

// TensionType classifies the nature of an organizational tension.
type TensionType string

const (
	TensionProblem                 TensionType = "Problem"
	TensionOpportunity             TensionType = "Opportunity"
	TensionRisk                    TensionType = "Risk"
	TensionConflict                TensionType = "Conflict"
	TensionIdea                    TensionType = "Idea"
	TensionResourceConstraint      TensionType = "Resource_Constraint"
	TensionProcessImprovement      TensionType = "Process_Improvement"
	TensionCommunicationBreakdown  TensionType = "Communication_Breakdown"
	TensionStrategicMisalignment   TensionType = "Strategic_Misalignment"
	TensionTechnicalDebt           TensionType = "Technical_Debt"
	TensionDataAnalysis            TensionType = "Data_Analysis"
	TensionUnknown                 TensionType = "Unknown"
)

// Priority is the tension's externally-visible priority label, distinct
// from the 0-2 suggestedPriority integer produced by analysis.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityNormal   Priority = "Normal"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// Tension is a unit of organizational work: a problem, opportunity, risk,
// conflict, or idea requiring resolution. Tensions are owned by an external
// tension store; this package only ever holds read-only references.
type Tension struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Type        TensionType `json:"type"`
	Priority    Priority    `json:"priority"`
	Status      string      `json:"status"` // free-form; "Open"/"In-Progress"/"Closed" conventional
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ImpactLevel is an ordinal 1-4 assessment of how broadly a tension affects
// the organization.
type ImpactLevel int

const (
	ImpactLow      ImpactLevel = 1
	ImpactMedium   ImpactLevel = 2
	ImpactHigh     ImpactLevel = 3
	ImpactCritical ImpactLevel = 4
)

func (l ImpactLevel) String() string {
	switch l {
	case ImpactLow:
		return "Low"
	case ImpactMedium:
		return "Medium"
	case ImpactHigh:
		return "High"
	case ImpactCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// UrgencyLevel is an ordinal 1-4 assessment of how soon a tension demands
// attention.
type UrgencyLevel int

const (
	UrgencyLow      UrgencyLevel = 1
	UrgencyMedium   UrgencyLevel = 2
	UrgencyHigh     UrgencyLevel = 3
	UrgencyCritical UrgencyLevel = 4
)

func (l UrgencyLevel) String() string {
	switch l {
	case UrgencyLow:
		return "Low"
	case UrgencyMedium:
		return "Medium"
	case UrgencyHigh:
		return "High"
	case UrgencyCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// TensionAnalysis is the output of the TensionAnalyzer (C1): the classified
// type, assessed impact/urgency, extracted themes/entities, and a suggested
// priority with supporting reasoning text.
type TensionAnalysis struct {
	TensionType        TensionType  `json:"tension_type"`
	ImpactLevel        ImpactLevel  `json:"impact_level"`
	UrgencyLevel       UrgencyLevel `json:"urgency_level"`
	ConfidenceScore    float64      `json:"confidence_score"` // 0.0-0.95
	KeyThemes          []string     `json:"key_themes"`
	ExtractedEntities  []string     `json:"extracted_entities"`
	SuggestedPriority  int          `json:"suggested_priority"` // 0=Normal, 1=High, 2=Critical
	Reasoning          string       `json:"reasoning"`
}
