package reasoning

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RequestedService names one of the four pipeline stages a
// ReasoningRequest may ask for.
type RequestedService string

const (
	ServiceAnalysis  RequestedService = "analysis"
	ServiceRules     RequestedService = "rules"
	ServiceSolutions RequestedService = "solutions"
	ServicePriority  RequestedService = "priority"
)

// AllServices is the default requestedServices set when none is specified.
var AllServices = []RequestedService{ServiceAnalysis, ServiceRules, ServiceSolutions, ServicePriority}

// ReasoningRequest is the logical request shape accepted by the
// coordinator (spec §6.1).
type ReasoningRequest struct {
	TensionID         string
	Title             string
	Description       string
	CurrentStatus     string
	Context           map[string]any
	RequestedServices []RequestedService
	PriorityMethod    PriorityMethod
}

// ReasoningResult aggregates the sub-component outputs for one request.
type ReasoningResult struct {
	TensionID           string                      `json:"tension_id"`
	Analysis            *TensionAnalysis            `json:"analysis"`
	RuleResults         []RuleMatchRecord           `json:"rule_results"`
	Solutions           []GeneratedSolution         `json:"solutions"`
	PriorityCalculation *PriorityCalculationResult  `json:"priority_calculation"`
	ProcessingTime      time.Duration               `json:"processing_time"`
	Success             bool                        `json:"success"`
	Errors              []string                    `json:"errors"`
	Recommendations     []string                    `json:"recommendations"`
}

type componentStats struct {
	count     int64
	totalTime time.Duration
}

// ReasoningCoordinator orchestrates C1-C4 per request, in single and batch
// modes, and collects performance statistics.
type ReasoningCoordinator struct {
	analyzer           *TensionAnalyzer
	ruleEngine         *RuleEngine
	solutionGenerator  *SolutionGenerator
	priorityCalculator *PriorityCalculator

	maxBatchConcurrency int

	mu                   sync.Mutex
	totalProcessed       int64
	successfulProcessing int64
	totalProcessingTime  time.Duration
	componentStatsByName map[string]*componentStats
}

// NewReasoningCoordinator wires the four reasoning components together.
// maxBatchConcurrency bounds ProcessBatch's fan-out (spec §5's recommended
// concurrency cap); 0 or negative falls back to 16 (spec §6.5 default).
func NewReasoningCoordinator(maxBatchConcurrency int) *ReasoningCoordinator {
	if maxBatchConcurrency <= 0 {
		maxBatchConcurrency = 16
	}
	return &ReasoningCoordinator{
		analyzer:             NewTensionAnalyzer(),
		ruleEngine:           NewRuleEngine(),
		solutionGenerator:    NewSolutionGenerator(),
		priorityCalculator:   NewPriorityCalculator(),
		maxBatchConcurrency:  maxBatchConcurrency,
		componentStatsByName: make(map[string]*componentStats),
	}
}

// RuleEngine exposes the coordinator's underlying rule engine so callers
// may register additional rules.
func (c *ReasoningCoordinator) RuleEngine() *RuleEngine { return c.ruleEngine }

// ProcessTension runs the sequential analysis -> rules -> solutions ->
// priority pipeline for one request.
func (c *ReasoningCoordinator) ProcessTension(req ReasoningRequest) ReasoningResult {
	start := time.Now()
	if req.TensionID == "" {
		req.TensionID = uuid.NewString()
	}
	if req.CurrentStatus == "" {
		req.CurrentStatus = "Open"
	}
	services := req.RequestedServices
	if len(services) == 0 {
		services = AllServices
	}
	wants := func(s RequestedService) bool {
		for _, want := range services {
			if want == s {
				return true
			}
		}
		return false
	}

	result := ReasoningResult{TensionID: req.TensionID, Success: true}

	if wants(ServiceAnalysis) {
		stageStart := time.Now()
		analysis := c.analyzer.AnalyzeTension(req.Title, req.Description, req.CurrentStatus)
		c.recordComponentTime("analysis", time.Since(stageStart))
		result.Analysis = &analysis
	}

	analysisRequired := wants(ServiceRules) || wants(ServiceSolutions) || wants(ServicePriority)
	if analysisRequired && result.Analysis == nil {
		result.Success = false
		result.Errors = append(result.Errors, "analysis stage required but not requested or failed")
		result.ProcessingTime = time.Since(start)
		c.updateStats(result, start)
		return result
	}

	if wants(ServiceRules) && result.Analysis != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("rules stage failed: %v", r))
				}
			}()
			stageStart := time.Now()
			ctx := buildRuleContext(req, *result.Analysis)
			result.RuleResults = c.ruleEngine.EvaluateRules(ctx, "")
			c.recordComponentTime("rules", time.Since(stageStart))
		}()
	}

	if wants(ServiceSolutions) && result.Analysis != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("solutions stage failed: %v", r))
				}
			}()
			stageStart := time.Now()
			result.Solutions = c.solutionGenerator.GenerateSolutions(*result.Analysis, req.Title, req.Description)
			c.recordComponentTime("solutions", time.Since(stageStart))
		}()
	}

	if wants(ServicePriority) && result.Analysis != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("priority stage failed: %v", r))
				}
			}()
			stageStart := time.Now()
			method := req.PriorityMethod
			if method == "" {
				method = MethodWeightedAverage
			}
			pr := c.priorityCalculator.Calculate(*result.Analysis, req.Title, req.Description, req.Context, method)
			c.recordComponentTime("priority", time.Since(stageStart))
			result.PriorityCalculation = &pr
		}()
	}

	if len(result.Errors) > 0 && result.Analysis == nil {
		result.Success = false
	}

	result.Recommendations = c.consolidateRecommendations(result)
	result.ProcessingTime = time.Since(start)
	c.updateStats(result, start)
	return result
}

func buildRuleContext(req ReasoningRequest, analysis TensionAnalysis) map[string]any {
	ctx := map[string]any{
		"title":          req.Title,
		"description":    req.Description,
		"current_status": req.CurrentStatus,
		"analysis": map[string]any{
			"tension_type":       string(analysis.TensionType),
			"impact_level":       int(analysis.ImpactLevel),
			"urgency_level":      int(analysis.UrgencyLevel),
			"confidence_score":   analysis.ConfidenceScore,
			"key_themes":         analysis.KeyThemes,
			"suggested_priority": analysis.SuggestedPriority,
		},
	}
	for k, v := range req.Context {
		ctx[k] = v
	}
	return ctx
}

func (c *ReasoningCoordinator) consolidateRecommendations(result ReasoningResult) []string {
	seen := make(map[string]bool)
	var recs []string
	add := func(r string) {
		if r == "" || seen[r] {
			return
		}
		seen[r] = true
		recs = append(recs, r)
	}

	if result.Analysis != nil {
		switch result.Analysis.SuggestedPriority {
		case 2:
			add("🚨 Critical priority — escalate immediately")
		case 1:
			add("⚠️ High priority — schedule promptly")
		}
		for _, theme := range result.Analysis.KeyThemes {
			add(fmt.Sprintf("📌 Key theme identified: %s", theme))
		}
	}
	for _, rr := range result.RuleResults {
		add(fmt.Sprintf("📋 Rule matched: %s", rr.RuleName))
	}
	if len(result.Solutions) > 0 {
		top := result.Solutions[0]
		add(fmt.Sprintf("💡 Top solution: %s (%s)", top.Title, top.SolutionType))
	}
	if result.PriorityCalculation != nil {
		add(fmt.Sprintf("🎯 Priority score: %.1f (%s)", result.PriorityCalculation.FinalScore, result.PriorityCalculation.PriorityLevel))
		for _, r := range result.PriorityCalculation.Recommendations {
			add("✅ " + r)
		}
	}

	if len(recs) > 10 {
		recs = recs[:10]
	}
	return recs
}

func (c *ReasoningCoordinator) recordComponentTime(name string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats, ok := c.componentStatsByName[name]
	if !ok {
		stats = &componentStats{}
		c.componentStatsByName[name] = stats
	}
	stats.count++
	stats.totalTime += d
}

func (c *ReasoningCoordinator) updateStats(result ReasoningResult, start time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalProcessed++
	if result.Success {
		c.successfulProcessing++
	}
	c.totalProcessingTime += time.Since(start)
}

// ProcessBatch runs ProcessTension for every request concurrently, bounded
// by maxBatchConcurrency, and gathers all results. A panic in any single
// request's processing becomes a failed ReasoningResult for that request
// rather than aborting the batch (spec §4.5).
func (c *ReasoningCoordinator) ProcessBatch(ctx context.Context, requests []ReasoningRequest) []ReasoningResult {
	results := make([]ReasoningResult, len(requests))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(c.maxBatchConcurrency)

	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			results[i] = c.safeProcessTension(req)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *ReasoningCoordinator) safeProcessTension(req ReasoningRequest) (result ReasoningResult) {
	defer func() {
		if r := recover(); r != nil {
			result = ReasoningResult{
				TensionID: req.TensionID,
				Success:   false,
				Errors:    []string{fmt.Sprintf("panic during processing: %v", r)},
			}
		}
	}()
	return c.ProcessTension(req)
}

// PerformanceStats summarizes processing statistics across all requests.
type PerformanceStats struct {
	TotalProcessed       int64                      `json:"total_processed"`
	SuccessfulProcessing int64                      `json:"successful_processing"`
	AverageProcessingTime time.Duration             `json:"average_processing_time"`
	ComponentStats       map[string]ComponentStats  `json:"component_stats"`
}

// ComponentStats is the per-stage count/average-time breakdown.
type ComponentStats struct {
	Count           int64         `json:"count"`
	TotalTime       time.Duration `json:"total_time"`
	AverageTime     time.Duration `json:"average_time"`
}

// GetPerformanceStats returns a snapshot of accumulated statistics.
func (c *ReasoningCoordinator) GetPerformanceStats() PerformanceStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var avg time.Duration
	if c.totalProcessed > 0 {
		avg = c.totalProcessingTime / time.Duration(c.totalProcessed)
	}

	components := make(map[string]ComponentStats, len(c.componentStatsByName))
	for name, s := range c.componentStatsByName {
		var componentAvg time.Duration
		if s.count > 0 {
			componentAvg = s.totalTime / time.Duration(s.count)
		}
		components[name] = ComponentStats{Count: s.count, TotalTime: s.totalTime, AverageTime: componentAvg}
	}

	return PerformanceStats{
		TotalProcessed:        c.totalProcessed,
		SuccessfulProcessing:  c.successfulProcessing,
		AverageProcessingTime: avg,
		ComponentStats:        components,
	}
}

// GetRuleEngineSummary exposes the rule engine's summary for diagnostics.
func (c *ReasoningCoordinator) GetRuleEngineSummary() map[string]any {
	return c.ruleEngine.RulesSummary()
}

// ValidateComponents smoke-tests each sub-component with a canonical input
// and reports whether each is operating correctly.
func (c *ReasoningCoordinator) ValidateComponents() map[string]bool {
	results := make(map[string]bool)

	func() {
		defer func() {
			if recover() != nil {
				results["analyzer"] = false
			}
		}()
		analysis := c.analyzer.AnalyzeTension("Test tension", "Test description", "Open")
		results["analyzer"] = analysis.ConfidenceScore >= 0 && analysis.ConfidenceScore <= 0.95
	}()

	func() {
		defer func() {
			if recover() != nil {
				results["rule_engine"] = false
			}
		}()
		_ = c.ruleEngine.EvaluateRules(map[string]any{"title": "Test tension"}, "")
		results["rule_engine"] = true
	}()

	func() {
		defer func() {
			if recover() != nil {
				results["solution_generator"] = false
			}
		}()
		analysis := c.analyzer.AnalyzeTension("Test tension", "Test description", "Open")
		solutions := c.solutionGenerator.GenerateSolutions(analysis, "Test tension", "Test description")
		results["solution_generator"] = len(solutions) > 0
	}()

	func() {
		defer func() {
			if recover() != nil {
				results["priority_calculator"] = false
			}
		}()
		analysis := c.analyzer.AnalyzeTension("Test tension", "Test description", "Open")
		pr := c.priorityCalculator.Calculate(analysis, "Test tension", "Test description", nil, MethodWeightedAverage)
		results["priority_calculator"] = pr.FinalScore >= 0 && pr.FinalScore <= 100
	}()

	return results
}

