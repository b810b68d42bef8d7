package agents

import (
	"strings"
	"time"

	"github.com/trm-os/reasoning-core/reasoning"
)

// WinScore is the {wisdom, intelligence, networking, total} output of the
// WIN scoring formula (spec §4.8), all components on [0, 100].
type WinScore struct {
	Wisdom       float64 `json:"wisdom"`
	Intelligence float64 `json:"intelligence"`
	Networking   float64 `json:"networking"`
	Total        float64 `json:"total"`
}

// WinInputs are the six raw sub-scores (each expected on [0, 100]) that
// feed CalculateWinScore.
type WinInputs struct {
	ContextUnderstanding float64
	RootCauseAnalysis    float64
	SolutionQuality      float64
	Efficiency           float64
	Collaboration        float64
	KnowledgeSharing     float64
}

// CalculateWinScore applies the fixed WIN formula:
//
//	Wisdom       = 0.6*contextUnderstanding + 0.4*rootCauseAnalysis
//	Intelligence = 0.7*solutionQuality + 0.3*efficiency
//	Networking   = 0.5*collaboration + 0.5*knowledgeSharing
//	Total        = 0.4*Wisdom + 0.4*Intelligence + 0.2*Networking
func CalculateWinScore(in WinInputs) WinScore {
	wisdom := 0.6*in.ContextUnderstanding + 0.4*in.RootCauseAnalysis
	intelligence := 0.7*in.SolutionQuality + 0.3*in.Efficiency
	networking := 0.5*in.Collaboration + 0.5*in.KnowledgeSharing
	total := 0.4*wisdom + 0.4*intelligence + 0.2*networking
	return WinScore{Wisdom: wisdom, Intelligence: intelligence, Networking: networking, Total: total}
}

// domainRelevanceThreshold is the minimum domainRelevance for
// CanHandleTension to accept a tension (spec §4.8).
const domainRelevanceThreshold = 0.6

// domainKeywordFallback maps a TensionType to a small keyword set used
// when no capability declares an explicit relatedTensionTypes match.
var domainKeywordFallback = map[reasoning.TensionType][]string{
	reasoning.TensionProblem:                {"bug", "error", "fix", "broken", "issue"},
	reasoning.TensionOpportunity:            {"improve", "optimize", "growth", "opportunity"},
	reasoning.TensionRisk:                   {"risk", "threat", "vulnerability", "exposure"},
	reasoning.TensionConflict:               {"conflict", "disagreement", "dispute"},
	reasoning.TensionIdea:                   {"idea", "proposal", "suggestion"},
	reasoning.TensionResourceConstraint:     {"resource", "capacity", "budget", "staffing"},
	reasoning.TensionProcessImprovement:     {"process", "workflow", "procedure"},
	reasoning.TensionCommunicationBreakdown: {"communication", "miscommunication", "handoff"},
	reasoning.TensionStrategicMisalignment:  {"strategy", "alignment", "direction"},
	reasoning.TensionTechnicalDebt:          {"technical debt", "refactor", "legacy"},
	reasoning.TensionDataAnalysis:           {"data", "analysis", "metrics", "report"},
}

// CalculateDomainRelevance scores how relevant a tension type and
// description are to a capability set, per spec §4.8:
//  1. If any capability explicitly declares tensionType among its
//     relatedTensionTypes, relevance scales 0.7-1.0 by their mean
//     proficiency.
//  2. Otherwise fall back to keyword matching over capability
//     names/descriptions, scaling 0.5-0.9 by match ratio.
//  3. Apply up to a +0.2 boost if domainExpertise words overlap with the
//     tension description.
func CalculateDomainRelevance(capabilities []AgentCapability, domainExpertise []string, tensionType reasoning.TensionType, description string) float64 {
	var relevance float64

	var matched []AgentCapability
	for _, c := range capabilities {
		if c.HasTensionType(tensionType) {
			matched = append(matched, c)
		}
	}

	if len(matched) > 0 {
		var sum float64
		for _, c := range matched {
			sum += c.ProficiencyLevel
		}
		meanProficiency := sum / float64(len(matched))
		relevance = 0.7 + 0.3*meanProficiency
	} else {
		keywords := domainKeywordFallback[tensionType]
		if len(keywords) > 0 && len(capabilities) > 0 {
			hits := 0
			for _, kw := range keywords {
				for _, c := range capabilities {
					if c.describesKeyword(kw) {
						hits++
						break
					}
				}
			}
			ratio := float64(hits) / float64(len(keywords))
			relevance = 0.5 + 0.4*ratio
		}
	}

	if relevance > 0 && len(domainExpertise) > 0 && description != "" {
		lowerDesc := strings.ToLower(description)
		overlap := 0
		for _, word := range domainExpertise {
			if strings.Contains(lowerDesc, strings.ToLower(word)) {
				overlap++
			}
		}
		if overlap > 0 {
			boost := 0.2 * float64(overlap) / float64(len(domainExpertise))
			if boost > 0.2 {
				boost = 0.2
			}
			relevance += boost
		}
	}

	if relevance > 1.0 {
		relevance = 1.0
	}
	return relevance
}

// CanHandleTension reports whether a capability set's domain relevance
// for the tension clears domainRelevanceThreshold.
func CanHandleTension(capabilities []AgentCapability, domainExpertise []string, tension reasoning.Tension) bool {
	relevance := CalculateDomainRelevance(capabilities, domainExpertise, tension.Type, tension.Description)
	return relevance >= domainRelevanceThreshold
}

// SensedData is the Sense phase's output: the raw tension wrapped with a
// timestamp and any additional potential tensions detected alongside it.
type SensedData struct {
	Tension           reasoning.Tension   `json:"tension"`
	SensedAt          time.Time           `json:"sensed_at"`
	PotentialTensions []reasoning.Tension `json:"potential_tensions"`
}

// OntologyAlignment is the Perceive phase's per-tension output.
type OntologyAlignment struct {
	TensionType     reasoning.TensionType `json:"tension_type"`
	DomainRelevance float64               `json:"domain_relevance"`
	ComplexityLevel string                `json:"complexity_level"`
}

// PotentialAction is one Orient-phase candidate with its predicted WIN
// impact.
type PotentialAction struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	PredictedWin     WinScore `json:"predicted_win"`
	PredictedConfidence float64 `json:"predicted_confidence"`
}

// Decision is the Decide phase's output: the chosen action.
type Decision struct {
	SelectedAction  PotentialAction `json:"selected_action"`
	Reasoning       string          `json:"reasoning"`
	ExpectedWinScore float64        `json:"expected_win_score"`
	Confidence      float64         `json:"confidence"`
}

// ExecutionStatus names the Act phase's outcome.
type ExecutionStatus string

const (
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
)

// ActionResult is the Act phase's output.
type ActionResult struct {
	Status          ExecutionStatus `json:"status"`
	ActualResults   map[string]any  `json:"actual_results"`
	EventsGenerated []string        `json:"events_generated"`
}

// FeedbackResult is the Feedback phase's output.
type FeedbackResult struct {
	ActualWinScore     WinScore `json:"actual_win_score"`
	LearningInsights   []string `json:"learning_insights"`
	SuggestedAdjustments []string `json:"suggested_adjustments"`
}

// CycleResult aggregates all six quantum-cycle phase outputs for one
// tension.
type CycleResult struct {
	Sensed    SensedData                    `json:"sensed"`
	Perceived map[string]OntologyAlignment  `json:"perceived"`
	Oriented  map[string][]PotentialAction  `json:"oriented"`
	Decision  Decision                      `json:"decision"`
	Action    ActionResult                  `json:"action"`
	Feedback  FeedbackResult                `json:"feedback"`
}

// ActionGate is consulted by actPhase before executing the cycle's
// selected action; a non-nil error blocks execution and the cycle
// reports ExecutionFailed. A nil gate runs the agent ungated.
// orchestration.Engine passes security.Gate.Check as an explicit
// parameter here rather than a process-global, so constructing a
// second Engine never repoints an already-running agent's gate.
type ActionGate func(agentID, action string) error

// runQuantumCycle drives the six phases (Sense -> Perceive -> Orient ->
// Decide -> Act -> Feedback) strictly in order for one tension against
// one agent, per spec §4.8/§5.
func runQuantumCycle(a *Agent, tension reasoning.Tension, gate ActionGate) CycleResult {
	sensed := sensePhase(tension)
	perceived := perceivePhase(a, sensed)
	oriented := orientPhase(a, perceived)
	decision := decidePhase(oriented)
	action := actPhase(a, decision, gate)
	feedback := feedbackPhase(action)
	return CycleResult{
		Sensed:    sensed,
		Perceived: perceived,
		Oriented:  oriented,
		Decision:  decision,
		Action:    action,
		Feedback:  feedback,
	}
}

func sensePhase(tension reasoning.Tension) SensedData {
	return SensedData{Tension: tension, SensedAt: time.Now()}
}

func perceivePhase(a *Agent, sensed SensedData) map[string]OntologyAlignment {
	alignments := make(map[string]OntologyAlignment)
	tensions := append([]reasoning.Tension{sensed.Tension}, sensed.PotentialTensions...)
	for _, t := range tensions {
		relevance := CalculateDomainRelevance(a.Capabilities, a.Metadata.DomainExpertise, t.Type, t.Description)
		alignments[t.ID] = OntologyAlignment{
			TensionType:     t.Type,
			DomainRelevance: relevance,
			ComplexityLevel: complexityLevelForText(t.Description),
		}
	}
	return alignments
}

func complexityLevelForText(text string) string {
	switch {
	case len(text) > 300:
		return "high"
	case len(text) > 100:
		return "medium"
	default:
		return "low"
	}
}

func orientPhase(a *Agent, perceived map[string]OntologyAlignment) map[string][]PotentialAction {
	oriented := make(map[string][]PotentialAction, len(perceived))
	for tensionID, alignment := range perceived {
		oriented[tensionID] = generatePotentialActions(a, alignment)
	}
	return oriented
}

// Quantum cycle action names, stable across every agent template: the
// Orient phase only ever proposes these two, so anything that gates or
// authorizes an agent's Act phase (security.Gate, orchestration.Engine)
// keys on these exact strings rather than a per-template capability
// name.
const (
	ActionDirectResolution   = "direct_resolution"
	ActionEscalateForSupport = "escalate_for_support"
)

func generatePotentialActions(a *Agent, alignment OntologyAlignment) []PotentialAction {
	proficiency := 0.5
	if avg := averageProficiency(a.Capabilities); avg > 0 {
		proficiency = avg
	}

	contextScore := alignment.DomainRelevance * 100
	qualityScore := proficiency * 100

	directAction := PotentialAction{
		Name:        ActionDirectResolution,
		Description: "Apply owned capabilities directly to resolve the tension",
		PredictedWin: CalculateWinScore(WinInputs{
			ContextUnderstanding: contextScore,
			RootCauseAnalysis:    qualityScore,
			SolutionQuality:      qualityScore,
			Efficiency:           80,
			Collaboration:        40,
			KnowledgeSharing:     40,
		}),
		PredictedConfidence: alignment.DomainRelevance,
	}

	escalateAction := PotentialAction{
		Name:        ActionEscalateForSupport,
		Description: "Defer to a better-suited template or human operator",
		PredictedWin: CalculateWinScore(WinInputs{
			ContextUnderstanding: contextScore * 0.6,
			RootCauseAnalysis:    40,
			SolutionQuality:      50,
			Efficiency:           50,
			Collaboration:        90,
			KnowledgeSharing:     70,
		}),
		PredictedConfidence: 1 - alignment.DomainRelevance,
	}

	return []PotentialAction{directAction, escalateAction}
}

func averageProficiency(capabilities []AgentCapability) float64 {
	if len(capabilities) == 0 {
		return 0
	}
	var sum float64
	for _, c := range capabilities {
		sum += c.ProficiencyLevel
	}
	return sum / float64(len(capabilities))
}

// decidePhase picks, across all tensions considered this cycle, the
// single action with the highest predicted WIN total, breaking ties by
// confidence.
func decidePhase(oriented map[string][]PotentialAction) Decision {
	var best PotentialAction
	found := false
	for _, actions := range oriented {
		for _, action := range actions {
			if !found {
				best, found = action, true
				continue
			}
			if action.PredictedWin.Total > best.PredictedWin.Total ||
				(action.PredictedWin.Total == best.PredictedWin.Total && action.PredictedConfidence > best.PredictedConfidence) {
				best = action
			}
		}
	}
	if !found {
		return Decision{Reasoning: "no candidate actions available"}
	}
	return Decision{
		SelectedAction:   best,
		Reasoning:        "selected " + best.Name + " for highest predicted WIN score",
		ExpectedWinScore: best.PredictedWin.Total,
		Confidence:       best.PredictedConfidence,
	}
}

func actPhase(a *Agent, decision Decision, gate ActionGate) ActionResult {
	if decision.SelectedAction.Name == "" {
		return ActionResult{Status: ExecutionFailed, ActualResults: map[string]any{"reason": "no action selected"}}
	}
	if gate != nil {
		if err := gate(a.AgentID, decision.SelectedAction.Name); err != nil {
			return ActionResult{
				Status:          ExecutionFailed,
				ActualResults:   map[string]any{"reason": "blocked by action gate: " + err.Error()},
				EventsGenerated: []string{"action_blocked"},
			}
		}
	}
	return ActionResult{
		Status: ExecutionCompleted,
		ActualResults: map[string]any{
			"action":     decision.SelectedAction.Name,
			"confidence": decision.Confidence,
		},
		EventsGenerated: []string{decision.SelectedAction.Name + "_completed"},
	}
}

func feedbackPhase(action ActionResult) FeedbackResult {
	successScore := 60.0
	if action.Status == ExecutionCompleted {
		successScore = 85.0
	}
	win := CalculateWinScore(WinInputs{
		ContextUnderstanding: successScore,
		RootCauseAnalysis:    successScore,
		SolutionQuality:      successScore,
		Efficiency:           successScore,
		Collaboration:        successScore,
		KnowledgeSharing:     successScore,
	})

	var insights []string
	var adjustments []string
	if action.Status == ExecutionFailed {
		insights = append(insights, "action execution failed; consider escalation earlier in Orient")
		adjustments = append(adjustments, "lower confidence threshold for escalate_for_support")
	} else {
		insights = append(insights, "action completed successfully")
	}

	return FeedbackResult{
		ActualWinScore:       win,
		LearningInsights:     insights,
		SuggestedAdjustments: adjustments,
	}
}
