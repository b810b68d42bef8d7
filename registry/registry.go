// Package registry implements the TemplateRegistry (C7): a
// capability-indexed catalog of agent templates that scores tensions
// against templates, instantiates matching agents, and tracks
// per-template performance.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/trm-os/reasoning-core/agents"
	"github.com/trm-os/reasoning-core/agents/templates"
	"github.com/trm-os/reasoning-core/reasoning"
)

// ErrUnknownTemplate is returned when a caller names a template that is
// not registered.
var ErrUnknownTemplate = errors.New("unknown template")

// TemplateMatchResult is one scored template candidate for a tension
// (spec §4.7).
type TemplateMatchResult struct {
	TemplateName string                     `json:"template_name"`
	Confidence   float64                    `json:"confidence"` // 0-100
	Requirements agents.TensionRequirements `json:"requirements"`
	Reasoning    string                     `json:"reasoning"`
}

// HealthStatus is the result of TemplateRegistry.HealthCheck.
type HealthStatus struct {
	Overall       string                    `json:"overall"` // healthy, degraded, critical, error
	PerTemplate   map[string]TemplateHealth `json:"per_template"`
}

// TemplateHealth is one template's instantiate-and-report health entry.
type TemplateHealth struct {
	Status string   `json:"status"` // ok, error
	Issues []string `json:"issues"`
}

// TemplateRegistry is the catalog of templateName -> Definition, plus
// active-agent tracking and per-template performance stats. Registration
// is exclusive on mutation, shared on matching reads (spec §5); the
// go-cache instance backs the transient per-template metadata snapshot
// used by matching so repeated matches within its TTL avoid rebuilding
// metadata from scratch.
type TemplateRegistry struct {
	mu          sync.RWMutex
	defs        map[string]templates.Definition
	performance map[string]*agents.TemplatePerformanceMetrics

	activeMu     sync.RWMutex
	activeAgents map[string]*agents.Agent

	snapshotCache *gocache.Cache
}

// NewTemplateRegistry returns a registry pre-loaded with the five
// built-in templates (spec Scenario 4/5 names DataAnalyst and
// CodeGenerator; SPEC_FULL.md §10 supplies all five).
func NewTemplateRegistry() *TemplateRegistry {
	r := &TemplateRegistry{
		defs:          make(map[string]templates.Definition),
		performance:   make(map[string]*agents.TemplatePerformanceMetrics),
		activeAgents:  make(map[string]*agents.Agent),
		snapshotCache: gocache.New(5*time.Minute, 10*time.Minute),
	}
	for _, def := range templates.All() {
		r.RegisterTemplate(def)
	}
	return r
}

// RegisterTemplate adds or replaces a template definition.
func (r *TemplateRegistry) RegisterTemplate(def templates.Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name] = def
	if _, ok := r.performance[def.Name]; !ok {
		r.performance[def.Name] = &agents.TemplatePerformanceMetrics{}
	}
	r.snapshotCache.Delete(def.Name)
}

// UnregisterTemplate removes a template definition and its performance
// stats (spec §8 invariant 7: idempotent with RegisterTemplate).
func (r *TemplateRegistry) UnregisterTemplate(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.defs, name)
	delete(r.performance, name)
	r.snapshotCache.Delete(name)
}

// AvailableTemplates lists every registered template name.
func (r *TemplateRegistry) AvailableTemplates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetTemplateMetadata returns the named template's metadata snapshot.
func (r *TemplateRegistry) GetTemplateMetadata(name string) (agents.AgentTemplateMetadata, bool) {
	r.mu.RLock()
	def, ok := r.defs[name]
	r.mu.RUnlock()
	if !ok {
		return agents.AgentTemplateMetadata{}, false
	}
	if cached, found := r.snapshotCache.Get(name); found {
		return cached.(agents.AgentTemplateMetadata), true
	}
	metadata := def.NewMetadata()
	r.snapshotCache.Set(name, metadata, gocache.DefaultExpiration)
	return metadata, true
}

// instantiateTransient builds a throwaway agent instance from a template
// definition, used for canHandleTension / analyzeTensionRequirements
// probing during matching (spec §4.7 step 1: "instantiate a transient
// copy").
func (r *TemplateRegistry) instantiateTransient(def templates.Definition) *agents.Agent {
	metadata := def.NewMetadata()
	agent := agents.NewAgent(metadata, nil)
	agent.SetBehavior(def.NewBehavior(agent))
	return agent
}

// MatchTensionToTemplates scores every registered template against
// tension and returns the top K matches, highest confidence first (spec
// §4.7).
func (r *TemplateRegistry) MatchTensionToTemplates(tension reasoning.Tension, topK int) []TemplateMatchResult {
	if topK <= 0 {
		topK = 3
	}

	r.mu.RLock()
	defs := make([]templates.Definition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	r.mu.RUnlock()

	results := make([]*TemplateMatchResult, len(defs))
	g := new(errgroup.Group)
	g.SetLimit(8)
	for i, def := range defs {
		i, def := i, def
		g.Go(func() error {
			agent := r.instantiateTransient(def)
			if !agent.CanHandleTension(tension) {
				return nil
			}
			requirements := agent.AnalyzeTensionRequirements(tension)
			confidence := r.confidenceScore(def, tension, requirements)
			results[i] = &TemplateMatchResult{
				TemplateName: def.Name,
				Confidence:   confidence,
				Requirements: requirements,
				Reasoning:    matchReasoning(def, requirements, confidence),
			}
			return nil
		})
	}
	_ = g.Wait()

	matches := make([]TemplateMatchResult, 0, len(results))
	for _, m := range results {
		if m != nil {
			matches = append(matches, *m)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Confidence > matches[j].Confidence })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

// confidenceScore implements spec §4.7 step 3's weighted scoring: base
// 50, +10 per domain keyword match, +15/10/5 for complexity high/medium/
// low, +10 if urgency high, +0.2*successRate, +2 per deliverable.
func (r *TemplateRegistry) confidenceScore(def templates.Definition, tension reasoning.Tension, req agents.TensionRequirements) float64 {
	score := 50.0

	text := strings.ToLower(tension.Title + " " + tension.Description)
	for _, kw := range def.DomainKeywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			score += 10
		}
	}

	switch req.Complexity {
	case "high":
		score += 15
	case "medium":
		score += 10
	case "low":
		score += 5
	}

	if req.Urgency == "high" {
		score += 10
	}

	r.mu.RLock()
	perf := r.performance[def.Name]
	r.mu.RUnlock()
	if perf != nil {
		score += 0.2 * perf.SuccessRate
	}

	score += 2 * float64(len(req.Deliverables))

	if score > 100 {
		score = 100
	}
	return score
}

func matchReasoning(def templates.Definition, req agents.TensionRequirements, confidence float64) string {
	return fmt.Sprintf("template %s handles %s-complexity, %s-urgency requirements at %.1f%% confidence",
		def.Name, req.Complexity, req.Urgency, confidence)
}

// CreateAgentFromTemplate instantiates and starts an agent from the
// named template. If agentID is non-empty it overrides the generated id.
func (r *TemplateRegistry) CreateAgentFromTemplate(name, agentID string) (*agents.Agent, error) {
	r.mu.RLock()
	def, ok := r.defs[name]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownTemplate
	}

	metadata := def.NewMetadata()
	agent := agents.NewAgent(metadata, nil)
	agent.SetBehavior(def.NewBehavior(agent))
	if agentID != "" {
		agent.AgentID = agentID
	}
	agent.Start()

	r.activeMu.Lock()
	r.activeAgents[agent.AgentID] = agent
	r.activeMu.Unlock()

	r.mu.Lock()
	perf := r.performance[name]
	if perf == nil {
		perf = &agents.TemplatePerformanceMetrics{}
		r.performance[name] = perf
	}
	perf.InstancesCreated++
	perf.LastUsed = time.Now()
	r.mu.Unlock()

	return agent, nil
}

// CreateBestMatchAgent finds the top-1 template match for tension and
// instantiates it; returns (nil, nil, nil) if no template accepts.
func (r *TemplateRegistry) CreateBestMatchAgent(tension reasoning.Tension) (*agents.Agent, *TemplateMatchResult, error) {
	matches := r.MatchTensionToTemplates(tension, 1)
	if len(matches) == 0 {
		return nil, nil, nil
	}
	best := matches[0]
	agent, err := r.CreateAgentFromTemplate(best.TemplateName, "")
	if err != nil {
		return nil, nil, err
	}
	return agent, &best, nil
}

// StopAgent stops and removes an active agent. Returns false if the
// agent id was not tracked.
func (r *TemplateRegistry) StopAgent(agentID string) bool {
	r.activeMu.Lock()
	defer r.activeMu.Unlock()
	agent, ok := r.activeAgents[agentID]
	if !ok {
		return false
	}
	agent.Stop()
	delete(r.activeAgents, agentID)
	return true
}

// ActiveAgent returns a tracked agent by id.
func (r *TemplateRegistry) ActiveAgent(agentID string) (*agents.Agent, bool) {
	r.activeMu.RLock()
	defer r.activeMu.RUnlock()
	a, ok := r.activeAgents[agentID]
	return a, ok
}

// ActiveAgents returns every currently tracked agent.
func (r *TemplateRegistry) ActiveAgents() []*agents.Agent {
	r.activeMu.RLock()
	defer r.activeMu.RUnlock()
	out := make([]*agents.Agent, 0, len(r.activeAgents))
	for _, a := range r.activeAgents {
		out = append(out, a)
	}
	return out
}

// UpdateTemplatePerformance records a completed tension's outcome for a
// template using running averages (spec §4.7).
func (r *TemplateRegistry) UpdateTemplatePerformance(templateName string, success bool, confidence float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	perf, ok := r.performance[templateName]
	if !ok {
		perf = &agents.TemplatePerformanceMetrics{}
		r.performance[templateName] = perf
	}

	n := float64(perf.TensionsProcessed)
	successValue := 0.0
	if success {
		successValue = 100.0
	}
	perf.SuccessRate = runningAverage(perf.SuccessRate, successValue, n)
	perf.AverageConfidence = runningAverage(perf.AverageConfidence, confidence, n)
	perf.TensionsProcessed++
	perf.LastUsed = time.Now()
	perf.RecordWinScore(confidence)
}

func runningAverage(current, value, priorCount float64) float64 {
	if priorCount <= 0 {
		return value
	}
	return (current*priorCount + value) / (priorCount + 1)
}

// GetPerformanceStats returns a snapshot of every template's performance
// metrics.
func (r *TemplateRegistry) GetPerformanceStats() map[string]agents.TemplatePerformanceMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]agents.TemplatePerformanceMetrics, len(r.performance))
	for name, perf := range r.performance {
		out[name] = *perf
	}
	return out
}

// HealthCheck attempts to instantiate every registered template and
// reports per-template and overall status (spec §6.2, SPEC_FULL.md §10).
func (r *TemplateRegistry) HealthCheck() HealthStatus {
	r.mu.RLock()
	defs := make([]templates.Definition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	r.mu.RUnlock()

	status := HealthStatus{PerTemplate: make(map[string]TemplateHealth, len(defs))}
	errorCount, degradedCount := 0, 0

	for _, def := range defs {
		health := r.checkTemplate(def)
		status.PerTemplate[def.Name] = health
		switch {
		case health.Status == "error":
			errorCount++
		case len(health.Issues) > 0:
			degradedCount++
		}
	}

	switch {
	case len(defs) == 0:
		status.Overall = "error"
	case errorCount > 0:
		status.Overall = "critical"
	case degradedCount > 0:
		status.Overall = "degraded"
	default:
		status.Overall = "healthy"
	}
	return status
}

func (r *TemplateRegistry) checkTemplate(def templates.Definition) (health TemplateHealth) {
	defer func() {
		if rec := recover(); rec != nil {
			health = TemplateHealth{Status: "error", Issues: []string{"panic instantiating template"}}
		}
	}()

	metadata := def.NewMetadata()
	var issues []string
	if len(metadata.Capabilities) == 0 {
		issues = append(issues, "template declares no capabilities")
	}
	if len(def.DomainKeywords) == 0 {
		issues = append(issues, "template declares no domain keywords")
	}
	return TemplateHealth{Status: "ok", Issues: issues}
}
