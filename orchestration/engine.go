// Package orchestration wires the reasoning, registry, and ecosystem
// packages behind a single Config-driven Engine (spec §6.5), adapted
// from the teacher's Engine (engine.go) — both are a single struct at
// the top of the dependency graph exposing the framework's full surface
// through one authenticated/constructed entry point.
package orchestration

import (
	"context"
	"fmt"

	"github.com/trm-os/reasoning-core/agents"
	"github.com/trm-os/reasoning-core/ecosystem"
	"github.com/trm-os/reasoning-core/evolution"
	"github.com/trm-os/reasoning-core/internal/eventbus"
	"github.com/trm-os/reasoning-core/reasoning"
	"github.com/trm-os/reasoning-core/registry"
	"github.com/trm-os/reasoning-core/security"
)

const defaultEcosystemID = "default"

// Engine is the core's single entry point: ReasoningCoordinator (C1-C5)
// + TemplateRegistry (C6-C9) + EcosystemOptimizer (C11), with evolution,
// security, store, and event-bus wiring applied per Config.
type Engine struct {
	cfg Config

	coordinator *reasoning.ReasoningCoordinator
	registry    *registry.TemplateRegistry
	ecosystem   *ecosystem.EcosystemOptimizer
	evolver     *evolution.CapabilityEvolver
	gate        *security.Gate
}

// NewEngine builds an Engine from cfg, applying defaults for any unset
// field (DefaultConfig's values).
func NewEngine(cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()

	issuer, err := security.NewTokenIssuer()
	if err != nil {
		return nil, fmt.Errorf("initialize engine security: %w", err)
	}
	bank := security.NewBreakerBank(5, 40)
	gate := security.NewGate(issuer, bank)

	e := &Engine{
		cfg:         cfg,
		coordinator: reasoning.NewReasoningCoordinator(cfg.MaxBatchConcurrency),
		registry:    registry.NewTemplateRegistry(),
		ecosystem:   ecosystem.NewEcosystemOptimizer(),
		evolver:     evolution.NewCapabilityEvolver(),
		gate:        gate,
	}
	e.ecosystem.RegisterEcosystem(defaultEcosystemID, nil)
	return e, nil
}

// ProcessTension runs C1-C5's sequential pipeline for one tension,
// persisting stage outputs through Config.Store and publishing a
// TensionUpdated event through Config.EventBus on completion.
func (e *Engine) ProcessTension(ctx context.Context, req reasoning.ReasoningRequest) (reasoning.ReasoningResult, error) {
	if req.PriorityMethod == "" {
		req.PriorityMethod = reasoning.PriorityMethod(e.cfg.DefaultPriorityMethod)
	}
	result := e.coordinator.ProcessTension(req)

	if result.Analysis != nil {
		if err := e.cfg.Store.SaveAnalysis(ctx, result.TensionID, *result.Analysis); err != nil {
			return result, fmt.Errorf("persist analysis for %s: %w", result.TensionID, err)
		}
	}
	if len(result.Solutions) > 0 {
		if err := e.cfg.Store.SaveSolutions(ctx, result.TensionID, result.Solutions); err != nil {
			return result, fmt.Errorf("persist solutions for %s: %w", result.TensionID, err)
		}
	}
	if result.PriorityCalculation != nil {
		if err := e.cfg.Store.SavePriorityResult(ctx, result.TensionID, *result.PriorityCalculation); err != nil {
			return result, fmt.Errorf("persist priority result for %s: %w", result.TensionID, err)
		}
	}

	_ = e.cfg.EventBus.Publish(ctx, string(eventbus.TensionUpdated), eventbus.Event{
		Type:    eventbus.TensionUpdated,
		Subject: string(eventbus.TensionUpdated),
		Payload: map[string]any{"tension_id": result.TensionID, "success": result.Success},
	})

	return result, nil
}

// ProcessBatch delegates to ReasoningCoordinator.ProcessBatch unchanged
// (spec §5: batch concurrency, sequential-per-request ordering).
func (e *Engine) ProcessBatch(ctx context.Context, requests []reasoning.ReasoningRequest) []reasoning.ReasoningResult {
	return e.coordinator.ProcessBatch(ctx, requests)
}

// Registry exposes the underlying TemplateRegistry for callers that need
// its full surface (agent creation/lookup) beyond what Engine wraps.
func (e *Engine) Registry() *registry.TemplateRegistry { return e.registry }

// AuthorizeAgentAction issues an AgentActionToken for agentID/action so
// a subsequent quantum cycle's Act phase, gated via the agents.ActionGate
// passed into HandleTension, is allowed to execute it. action must match
// one of the quantum cycle's fixed action names (agents.ActionDirectResolution,
// agents.ActionEscalateForSupport) since that is the only namespace the
// Act phase ever checks against — not a per-template capability name.
func (e *Engine) AuthorizeAgentAction(agentID, action string) error {
	_, err := e.gate.Authorize(agentID, action, e.cfg.ActionTokenTTL)
	return err
}

// quantumActions are the only action names agents/quantum.go's Orient
// phase ever proposes; DispatchToBestMatch authorizes both up front so
// whichever one Decide ultimately picks, the Act phase's gate check
// against that same name succeeds.
var quantumActions = []string{agents.ActionDirectResolution, agents.ActionEscalateForSupport}

// DispatchToBestMatch creates the best-matching agent for
// tension, authorizes it for both quantum cycle actions, and runs the
// quantum cycle through the engine's gate.
func (e *Engine) DispatchToBestMatch(tension reasoning.Tension) (agents.CycleResult, error) {
	agent, match, err := e.registry.CreateBestMatchAgent(tension)
	if err != nil {
		return agents.CycleResult{}, fmt.Errorf("create best-match agent for %s: %w", tension.ID, err)
	}
	for _, action := range quantumActions {
		if err := e.AuthorizeAgentAction(agent.AgentID, action); err != nil {
			return agents.CycleResult{}, fmt.Errorf("authorize %s for %s: %w", agent.AgentID, action, err)
		}
	}
	_ = match
	return agent.HandleTension(tension, e.gate.Check), nil
}

// HealthReport returns the default ecosystem's current health, after
// refreshing its roster from the registry's active agents.
func (e *Engine) HealthReport() ecosystem.HealthReport {
	roster := make([]ecosystem.AgentSnapshot, 0, len(e.registry.ActiveAgents()))
	for _, a := range e.registry.ActiveAgents() {
		roster = append(roster, ecosystem.SnapshotAgent(a))
	}
	e.ecosystem.RegisterEcosystem(defaultEcosystemID, roster)
	return e.ecosystem.GenerateHealthReport(defaultEcosystemID)
}

// OptimizeDistribution plans tension assignments across the default
// ecosystem's current active-agent roster.
func (e *Engine) OptimizeDistribution(tensions []reasoning.Tension) ecosystem.OptimizationPlan {
	roster := make([]ecosystem.AgentSnapshot, 0, len(e.registry.ActiveAgents()))
	for _, a := range e.registry.ActiveAgents() {
		roster = append(roster, ecosystem.SnapshotAgent(a))
	}
	e.ecosystem.RegisterEcosystem(defaultEcosystemID, roster)
	return e.ecosystem.OptimizeAgentDistribution(defaultEcosystemID, tensions)
}

// EvolveAgent analyzes performance gaps for agent and applies evolution
// strategies, persisting the result through Config.Store.
func (e *Engine) EvolveAgent(ctx context.Context, agent *agents.Agent, data evolution.PerformanceData, historical *evolution.HistoricalData) (evolution.EvolutionResult, error) {
	gaps := e.evolver.AnalyzeGaps(agent, data, historical)
	result := e.evolver.EvolveAgentCapabilities(agent, gaps)
	if err := e.cfg.Store.SaveEvolutionHistory(ctx, agent.AgentID, result); err != nil {
		return result, fmt.Errorf("persist evolution history for %s: %w", agent.AgentID, err)
	}
	return result, nil
}

// GetPerformanceStats returns the coordinator's aggregate processing
// statistics (spec §6.1).
func (e *Engine) GetPerformanceStats() reasoning.PerformanceStats {
	return e.coordinator.GetPerformanceStats()
}

// Shutdown is a placeholder lifecycle hook for hosting binaries; the
// reference Store/EventBus implementations hold no external connections
// that need closing, but a NatsStore/NatsBus-backed Engine should close
// its connections here.
func (e *Engine) Shutdown(_ context.Context) error {
	return nil
}
