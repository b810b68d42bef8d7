package reasoning

import (
	"fmt"
	"regexp"
	"strings"
)

// TensionAnalyzer classifies a tension's type, impact, and urgency from its
// title and description using rule-based pattern matching. It is a pure
// function over its inputs: no I/O, no hidden state, never panics on empty
// or malformed input.
type TensionAnalyzer struct {
	problemPatterns    []*regexp.Regexp
	opportunityPatterns []*regexp.Regexp
	riskPatterns       []*regexp.Regexp
	conflictPatterns   []*regexp.Regexp
	ideaPatterns       []*regexp.Regexp

	criticalKeywords   []string
	highImpactKeywords []string
	highUrgencyKeywords []string

	technologyPattern *regexp.Regexp
	businessPattern   *regexp.Regexp
	processPattern    *regexp.Regexp
	peoplePattern     *regexp.Regexp
	securityPattern   *regexp.Regexp
	entityPattern     *regexp.Regexp
}

// NewTensionAnalyzer builds an analyzer with its default keyword/pattern
// tables. The pattern content itself is implementation-supplied lookup
// data, not part of the contract (spec non-goal): callers needing a
// different vocabulary should construct their own analyzer variant.
func NewTensionAnalyzer() *TensionAnalyzer {
	return &TensionAnalyzer{
		problemPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(error|failure|issue|problem|broken|not working)\b`),
			regexp.MustCompile(`(?i)\b(missing|lack|insufficient|absent)\b`),
		},
		opportunityPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(opportunity|potential|could|should|possibility)\b`),
			regexp.MustCompile(`(?i)\b(improve|optimize|enhance|develop|growth)\b`),
		},
		riskPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(risk|danger|threat|concern|vulnerability)\b`),
			regexp.MustCompile(`(?i)\b(if not|might lead to|could cause)\b`),
		},
		conflictPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(conflict|disagreement|dispute|tension|clash)\b`),
			regexp.MustCompile(`(?i)\b(disagree|oppose|different|contradiction)\b`),
		},
		ideaPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(idea|suggestion|proposal|initiative)\b`),
			regexp.MustCompile(`(?i)\b(could try|should do|propose|recommend)\b`),
		},
		criticalKeywords: []string{
			"crash", "down", "data loss", "hack", "attack", "leak", "breach", "legal",
		},
		highImpactKeywords: []string{
			"customer", "revenue", "system", "security", "data", "product", "strategy", "financial",
		},
		highUrgencyKeywords: []string{
			"immediately", "urgent", "asap", "deadline", "critical", "production", "live",
		},
		technologyPattern: regexp.MustCompile(`(?i)\b(api|database|server|code|bug|system)\b`),
		businessPattern:   regexp.MustCompile(`(?i)\b(customer|revenue|business|market|strategy)\b`),
		processPattern:    regexp.MustCompile(`(?i)\b(process|workflow|procedure|method)\b`),
		peoplePattern:     regexp.MustCompile(`(?i)\b(team|user|staff|people|human)\b`),
		securityPattern:   regexp.MustCompile(`(?i)\b(security|breach|hack|vulnerability|attack)\b`),
		entityPattern:     regexp.MustCompile(`\b[A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)*\b`),
	}
}

// AnalyzeTension runs the full classification pipeline for a single tension.
// Empty title/description is treated as empty string, never an error.
func (a *TensionAnalyzer) AnalyzeTension(title, description, currentStatus string) TensionAnalysis {
	fullText := strings.ToLower(title + " " + description)

	tensionType, confidence := a.classifyTensionType(fullText)
	impact := a.assessImpact(fullText)
	urgency := a.assessUrgency(fullText)
	themes := a.extractThemes(fullText)
	entities := a.extractEntities(title + " " + description)
	priority := a.calculatePriority(impact, urgency)
	reasoning := a.generateReasoning(tensionType, impact, urgency, themes, confidence)

	return TensionAnalysis{
		TensionType:       tensionType,
		ImpactLevel:       impact,
		UrgencyLevel:      urgency,
		ConfidenceScore:   confidence,
		KeyThemes:         themes,
		ExtractedEntities: entities,
		SuggestedPriority: priority,
		Reasoning:         reasoning,
	}
}

func (a *TensionAnalyzer) classifyTensionType(text string) (TensionType, float64) {
	scores := map[TensionType]int{
		TensionProblem:     a.countMatches(text, a.problemPatterns),
		TensionOpportunity: a.countMatches(text, a.opportunityPatterns),
		TensionRisk:        a.countMatches(text, a.riskPatterns),
		TensionConflict:    a.countMatches(text, a.conflictPatterns),
		TensionIdea:        a.countMatches(text, a.ideaPatterns),
	}

	total := 0
	best := TensionUnknown
	bestScore := -1
	// Iterate in a fixed order so ties resolve deterministically, matching
	// the spec's "pick the type with the highest count" with a stable
	// tie-break (Problem > Opportunity > Risk > Conflict > Idea).
	order := []TensionType{TensionProblem, TensionOpportunity, TensionRisk, TensionConflict, TensionIdea}
	for _, t := range order {
		total += scores[t]
		if scores[t] > bestScore {
			bestScore = scores[t]
			best = t
		}
	}

	if total == 0 {
		return TensionUnknown, 0.5
	}

	confidence := float64(bestScore) / float64(total)
	if confidence > 0.95 {
		confidence = 0.95
	}
	return best, confidence
}

func (a *TensionAnalyzer) countMatches(text string, patterns []*regexp.Regexp) int {
	count := 0
	for _, p := range patterns {
		count += len(p.FindAllString(text, -1))
	}
	return count
}

func (a *TensionAnalyzer) assessImpact(text string) ImpactLevel {
	criticalCount := countKeywordOccurrences(text, a.criticalKeywords)
	highCount := countKeywordOccurrences(text, a.highImpactKeywords)

	switch {
	case criticalCount > 0:
		return ImpactCritical
	case highCount >= 2:
		return ImpactHigh
	case highCount == 1:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

func (a *TensionAnalyzer) assessUrgency(text string) UrgencyLevel {
	criticalCount := countKeywordOccurrences(text, a.criticalKeywords)
	urgentCount := countKeywordOccurrences(text, a.highUrgencyKeywords)

	switch {
	case criticalCount > 0:
		return UrgencyCritical
	case urgentCount >= 2:
		return UrgencyHigh
	case urgentCount == 1:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

func countKeywordOccurrences(text string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			count++
		}
	}
	return count
}

func (a *TensionAnalyzer) extractThemes(text string) []string {
	var themes []string
	if a.technologyPattern.MatchString(text) {
		themes = append(themes, "Technology")
	}
	if a.businessPattern.MatchString(text) {
		themes = append(themes, "Business")
	}
	if a.processPattern.MatchString(text) {
		themes = append(themes, "Process")
	}
	if a.peoplePattern.MatchString(text) {
		themes = append(themes, "People")
	}
	if a.securityPattern.MatchString(text) {
		themes = append(themes, "Security")
	}
	if len(themes) == 0 {
		return []string{"General"}
	}
	return themes
}

func (a *TensionAnalyzer) extractEntities(text string) []string {
	matches := a.entityPattern.FindAllString(text, -1)
	if len(matches) > 5 {
		matches = matches[:5]
	}
	return matches
}

func (a *TensionAnalyzer) calculatePriority(impact ImpactLevel, urgency UrgencyLevel) int {
	switch {
	case impact == ImpactCritical || urgency == UrgencyCritical:
		return 2
	case impact == ImpactHigh && urgency == UrgencyHigh:
		return 2
	case impact == ImpactHigh || urgency == UrgencyHigh:
		return 1
	case impact == ImpactMedium && urgency == UrgencyMedium:
		return 1
	default:
		return 0
	}
}

func (a *TensionAnalyzer) generateReasoning(t TensionType, impact ImpactLevel, urgency UrgencyLevel, themes []string, confidence float64) string {
	priorityNames := map[int]string{0: "Normal", 1: "High", 2: "Critical"}
	priority := a.calculatePriority(impact, urgency)

	parts := []string{
		fmt.Sprintf("Classified as %s with %.1f%% confidence", t, confidence*100),
		fmt.Sprintf("Impact: %s, Urgency: %s", impact, urgency),
	}
	if len(themes) > 0 {
		parts = append(parts, fmt.Sprintf("Key themes: %s", strings.Join(themes, ", ")))
	}
	parts = append(parts, fmt.Sprintf("Suggested priority: %s based on impact/urgency matrix", priorityNames[priority]))

	return strings.Join(parts, ". ") + "."
}
