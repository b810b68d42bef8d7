package reasoning

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SolutionType classifies a GeneratedSolution's nature.
type SolutionType string

const (
	SolutionImmediateAction     SolutionType = "ImmediateAction"
	SolutionInvestigation       SolutionType = "Investigation"
	SolutionProcessImprovement  SolutionType = "ProcessImprovement"
	SolutionTechnologySolution  SolutionType = "TechnologySolution"
	SolutionTraining            SolutionType = "Training"
	SolutionPolicyChange        SolutionType = "PolicyChange"
	SolutionEscalation          SolutionType = "Escalation"
)

// SolutionPriority ranks a GeneratedSolution for sort purposes; higher
// value sorts first.
type SolutionPriority int

const (
	SolutionPriorityLow SolutionPriority = iota
	SolutionPriorityMedium
	SolutionPriorityHigh
	SolutionPriorityCritical
)

// SolutionStep is one step within a GeneratedSolution's plan. Dependencies
// reference prior step ids within the same solution, forming a DAG.
type SolutionStep struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	EstimatedEffort string   `json:"estimated_effort"`
	RequiredSkills  []string `json:"required_skills"`
	Dependencies    []string `json:"dependencies"`
}

// GeneratedSolution is a ranked, templated candidate resolution for an
// analyzed tension.
type GeneratedSolution struct {
	ID                string           `json:"id"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	SolutionType      SolutionType     `json:"solution_type"`
	Priority          SolutionPriority `json:"priority"`
	EstimatedImpact   string           `json:"estimated_impact"`
	EstimatedEffort   string           `json:"estimated_effort"`
	SuccessCriteria   []string         `json:"success_criteria"`
	Steps             []SolutionStep   `json:"steps"`
	RequiredResources []string         `json:"required_resources"`
	Risks             []string         `json:"risks"`
	Alternatives      []string         `json:"alternatives"`
	ConfidenceScore   float64          `json:"confidence_score"`
	Reasoning         string           `json:"reasoning"`
	CreatedAt         time.Time        `json:"created_at"`
}

type stepSkeleton struct {
	title       string
	description string
	skills      []string
}

// SolutionGenerator produces ranked, templated solution candidates for an
// analyzed tension.
type SolutionGenerator struct {
	problemTemplates     map[string][]stepSkeleton
	opportunityTemplates map[string][]stepSkeleton
	riskTemplate         []stepSkeleton
	conflictTemplate     []stepSkeleton
	ideaTemplate         []stepSkeleton
	genericTemplate      []stepSkeleton
	themeTemplates       map[string][]stepSkeleton
}

// NewSolutionGenerator builds a generator with its default template
// library.
func NewSolutionGenerator() *SolutionGenerator {
	return &SolutionGenerator{
		problemTemplates: map[string][]stepSkeleton{
			"bug-fix": {
				{"Reproduce the issue", "Confirm the reported defect occurs consistently", []string{"debugging"}},
				{"Identify root cause", "Trace the defect to its source", []string{"debugging", "analysis"}},
				{"Implement fix", "Apply a targeted code change", []string{"development"}},
				{"Verify fix", "Confirm the defect no longer reproduces", []string{"testing"}},
			},
			"system-recovery": {
				{"Stabilize the system", "Restore service to a safe operating state", []string{"operations"}},
				{"Diagnose the outage", "Determine what triggered the failure", []string{"debugging"}},
				{"Apply remediation", "Deploy the fix or rollback", []string{"operations", "development"}},
				{"Post-incident review", "Document cause and prevention steps", []string{"analysis"}},
			},
			"perf-opt": {
				{"Profile the bottleneck", "Measure where time/resources are spent", []string{"performance"}},
				{"Design optimization", "Plan a targeted performance improvement", []string{"architecture"}},
				{"Implement optimization", "Apply the planned change", []string{"development"}},
				{"Validate improvement", "Confirm measurable gains", []string{"testing"}},
			},
			"generic-problem": {
				{"Assess the problem", "Gather context and scope the issue", []string{"analysis"}},
				{"Plan resolution", "Define a concrete remediation approach", []string{"planning"}},
				{"Execute resolution", "Carry out the planned fix", []string{"execution"}},
			},
		},
		opportunityTemplates: map[string][]stepSkeleton{
			"process": {
				{"Map current process", "Document the existing workflow", []string{"analysis"}},
				{"Identify improvement", "Pinpoint the highest-leverage change", []string{"process design"}},
				{"Pilot the change", "Trial the improvement on a small scope", []string{"execution"}},
				{"Roll out broadly", "Scale the validated improvement", []string{"change management"}},
			},
			"technology": {
				{"Evaluate options", "Survey candidate technical approaches", []string{"research"}},
				{"Prototype solution", "Build a minimal proof of concept", []string{"development"}},
				{"Deploy solution", "Ship the validated capability", []string{"development", "operations"}},
			},
		},
		riskTemplate: []stepSkeleton{
			{"Assess risk exposure", "Quantify likelihood and impact", []string{"risk analysis"}},
			{"Define mitigation", "Plan controls to reduce exposure", []string{"planning"}},
			{"Implement controls", "Put mitigations in place", []string{"execution"}},
			{"Monitor residual risk", "Track the risk going forward", []string{"monitoring"}},
		},
		conflictTemplate: []stepSkeleton{
			{"Clarify positions", "Surface each party's concerns", []string{"facilitation"}},
			{"Identify common ground", "Find shared objectives", []string{"facilitation"}},
			{"Negotiate resolution", "Agree a path forward", []string{"negotiation"}},
		},
		ideaTemplate: []stepSkeleton{
			{"Evaluate feasibility", "Assess whether the idea is viable", []string{"analysis"}},
			{"Define a pilot", "Scope a small-scale trial", []string{"planning"}},
			{"Run the pilot", "Execute and gather results", []string{"execution"}},
		},
		genericTemplate: []stepSkeleton{
			{"Assess the tension", "Gather context", []string{"analysis"}},
			{"Plan a response", "Define next steps", []string{"planning"}},
			{"Execute the plan", "Carry out the response", []string{"execution"}},
		},
		themeTemplates: map[string][]stepSkeleton{
			"Technology": {
				{"Technical assessment", "Evaluate the technical dimension", []string{"engineering"}},
				{"Implement technical change", "Apply the required technical work", []string{"development"}},
			},
			"Business": {
				{"Business case review", "Assess business impact and alignment", []string{"analysis"}},
				{"Stakeholder alignment", "Secure buy-in from affected stakeholders", []string{"communication"}},
			},
			"Security": {
				{"Security assessment", "Evaluate the security dimension", []string{"security"}},
				{"Apply security controls", "Remediate the identified exposure", []string{"security", "operations"}},
			},
		},
	}
}

// GenerateSolutions produces up to five ranked solutions for an analyzed
// tension.
func (g *SolutionGenerator) GenerateSolutions(analysis TensionAnalysis, title, description string) []GeneratedSolution {
	var solutions []GeneratedSolution

	primary := g.generatePrimarySolution(analysis, title, description)
	solutions = append(solutions, primary)

	for _, theme := range analysis.KeyThemes {
		if skeletons, ok := g.themeTemplates[theme]; ok {
			solutions = append(solutions, g.generateThemeBasedSolution(theme, skeletons, analysis))
		}
	}

	if analysis.SuggestedPriority >= 2 {
		solutions = append(solutions, g.generateEscalationSolution(analysis))
	}

	sort.SliceStable(solutions, func(i, j int) bool {
		if solutions[i].Priority != solutions[j].Priority {
			return solutions[i].Priority > solutions[j].Priority
		}
		return solutions[i].ConfidenceScore > solutions[j].ConfidenceScore
	})

	if len(solutions) > 5 {
		solutions = solutions[:5]
	}
	return solutions
}

func (g *SolutionGenerator) generatePrimarySolution(analysis TensionAnalysis, title, description string) GeneratedSolution {
	var skeletons []stepSkeleton
	var solutionType SolutionType

	lower := strings.ToLower(title + " " + description)

	switch analysis.TensionType {
	case TensionProblem:
		switch {
		case strings.Contains(lower, "bug"):
			skeletons, solutionType = g.problemTemplates["bug-fix"], SolutionImmediateAction
		case strings.Contains(lower, "outage") || strings.Contains(lower, "down"):
			skeletons, solutionType = g.problemTemplates["system-recovery"], SolutionImmediateAction
		case strings.Contains(lower, "performance") || strings.Contains(lower, "slow"):
			skeletons, solutionType = g.problemTemplates["perf-opt"], SolutionTechnologySolution
		default:
			skeletons, solutionType = g.problemTemplates["generic-problem"], SolutionInvestigation
		}
	case TensionOpportunity:
		if strings.Contains(lower, "process") || strings.Contains(lower, "workflow") {
			skeletons, solutionType = g.opportunityTemplates["process"], SolutionProcessImprovement
		} else {
			skeletons, solutionType = g.opportunityTemplates["technology"], SolutionTechnologySolution
		}
	case TensionRisk:
		skeletons, solutionType = g.riskTemplate, SolutionPolicyChange
	case TensionConflict:
		skeletons, solutionType = g.conflictTemplate, SolutionProcessImprovement
	case TensionIdea:
		skeletons, solutionType = g.ideaTemplate, SolutionInvestigation
	default:
		skeletons, solutionType = g.genericTemplate, SolutionInvestigation
	}

	steps := buildSteps(skeletons)
	confidence := analysis.ConfidenceScore * 0.8

	return GeneratedSolution{
		ID:                uuid.NewString(),
		Title:             "Primary solution for " + title,
		Description:       "Templated resolution derived from tension type " + string(analysis.TensionType),
		SolutionType:      solutionType,
		Priority:          priorityFromSuggested(analysis.SuggestedPriority),
		EstimatedImpact:   impactEstimate(analysis.ImpactLevel),
		EstimatedEffort:   effortEstimate(steps),
		SuccessCriteria:   successCriteria(analysis),
		Steps:             steps,
		RequiredResources: requiredResources(analysis),
		Risks:             identifyRisks(analysis),
		Alternatives:      suggestAlternatives(analysis),
		ConfidenceScore:   confidence,
		Reasoning:         generateSolutionReasoning(analysis, "primary"),
		CreatedAt:         time.Now(),
	}
}

func (g *SolutionGenerator) generateThemeBasedSolution(theme string, skeletons []stepSkeleton, analysis TensionAnalysis) GeneratedSolution {
	var solutionType SolutionType
	switch theme {
	case "Technology":
		solutionType = SolutionTechnologySolution
	case "Business":
		solutionType = SolutionProcessImprovement
	case "Security":
		solutionType = SolutionPolicyChange
	default:
		solutionType = SolutionInvestigation
	}

	steps := buildSteps(skeletons)
	return GeneratedSolution{
		ID:                uuid.NewString(),
		Title:             theme + "-focused solution",
		Description:       "Theme-based alternative addressing the " + theme + " dimension",
		SolutionType:      solutionType,
		Priority:          priorityFromSuggested(analysis.SuggestedPriority),
		EstimatedImpact:   impactEstimate(analysis.ImpactLevel),
		EstimatedEffort:   effortEstimate(steps),
		SuccessCriteria:   successCriteria(analysis),
		Steps:             steps,
		RequiredResources: requiredResources(analysis),
		Risks:             identifyRisks(analysis),
		Alternatives:      suggestAlternatives(analysis),
		ConfidenceScore:   0.7,
		Reasoning:         generateSolutionReasoning(analysis, "theme:"+theme),
		CreatedAt:         time.Now(),
	}
}

func (g *SolutionGenerator) generateEscalationSolution(analysis TensionAnalysis) GeneratedSolution {
	skeletons := []stepSkeleton{
		{"Notify stakeholders", "Alert relevant leadership and teams immediately", []string{"communication"}},
		{"Align on response", "Agree the escalation response plan", []string{"coordination"}},
		{"Allocate resources", "Commit the people/budget needed to resolve", []string{"resource management"}},
	}
	steps := buildSteps(skeletons)
	return GeneratedSolution{
		ID:                uuid.NewString(),
		Title:             "Escalation response",
		Description:       "Immediate escalation path for a critical-priority tension",
		SolutionType:      SolutionEscalation,
		Priority:          SolutionPriorityCritical,
		EstimatedImpact:   impactEstimate(analysis.ImpactLevel),
		EstimatedEffort:   effortEstimate(steps),
		SuccessCriteria:   successCriteria(analysis),
		Steps:             steps,
		RequiredResources: requiredResources(analysis),
		Risks:             identifyRisks(analysis),
		Alternatives:      suggestAlternatives(analysis),
		ConfidenceScore:   0.9,
		Reasoning:         generateSolutionReasoning(analysis, "escalation"),
		CreatedAt:         time.Now(),
	}
}

func buildSteps(skeletons []stepSkeleton) []SolutionStep {
	steps := make([]SolutionStep, 0, len(skeletons))
	var prevID string
	for i, s := range skeletons {
		id := uuid.NewString()
		var deps []string
		if prevID != "" {
			deps = []string{prevID}
		}
		steps = append(steps, SolutionStep{
			ID:              id,
			Title:           s.title,
			Description:     s.description,
			EstimatedEffort: estimateStepEffort(s.title),
			RequiredSkills:  s.skills,
			Dependencies:    deps,
		})
		prevID = id
		_ = i
	}
	return steps
}

func estimateStepEffort(stepTitle string) string {
	lower := strings.ToLower(stepTitle)
	switch {
	case strings.Contains(lower, "immediate") || strings.Contains(lower, "quick") || strings.Contains(lower, "assess"):
		return "1-2 hours"
	case strings.Contains(lower, "develop") || strings.Contains(lower, "implement") || strings.Contains(lower, "create"):
		return "1-2 days"
	case strings.Contains(lower, "analyze") || strings.Contains(lower, "investigate") || strings.Contains(lower, "profile"):
		return "2-4 hours"
	default:
		return "4-8 hours"
	}
}

func priorityFromSuggested(suggested int) SolutionPriority {
	switch suggested {
	case 2:
		return SolutionPriorityCritical
	case 1:
		return SolutionPriorityHigh
	default:
		return SolutionPriorityMedium
	}
}

func impactEstimate(impact ImpactLevel) string {
	return "Addresses a " + impact.String() + "-impact tension"
}

func effortEstimate(steps []SolutionStep) string {
	switch {
	case len(steps) <= 2:
		return fmt.Sprintf("Low effort (%d steps)", len(steps))
	case len(steps) <= 4:
		return "Medium effort"
	default:
		return "High effort"
	}
}

func successCriteria(analysis TensionAnalysis) []string {
	criteria := []string{"Tension no longer reproduces or recurs"}
	if analysis.ImpactLevel >= ImpactHigh {
		criteria = append(criteria, "Stakeholders confirm impact has been mitigated")
	}
	return criteria
}

func requiredResources(analysis TensionAnalysis) []string {
	resources := []string{"Assigned owner"}
	for _, theme := range analysis.KeyThemes {
		switch theme {
		case "Technology":
			resources = append(resources, "Engineering time")
		case "Security":
			resources = append(resources, "Security review")
		case "Business":
			resources = append(resources, "Business stakeholder time")
		}
	}
	return resources
}

func identifyRisks(analysis TensionAnalysis) []string {
	var risks []string
	if analysis.UrgencyLevel >= UrgencyHigh {
		risks = append(risks, "Delay compounds the tension's impact")
	}
	if len(risks) == 0 {
		risks = append(risks, "No significant execution risk identified")
	}
	return risks
}

func suggestAlternatives(analysis TensionAnalysis) []string {
	if analysis.TensionType == TensionProblem {
		return []string{"Temporary workaround pending a permanent fix"}
	}
	return []string{"Defer pending further information"}
}

func generateSolutionReasoning(analysis TensionAnalysis, kind string) string {
	return "Generated a " + kind + " solution for a " + string(analysis.TensionType) +
		" tension with impact " + analysis.ImpactLevel.String() +
		" and urgency " + analysis.UrgencyLevel.String() + "."
}
