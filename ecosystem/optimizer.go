// Package ecosystem implements the EcosystemOptimizer (C11): health
// reporting, workload balance, and distribution planning across a named
// collection of agents. Its scoring technique — normalize per-dimension
// signals, apply fixed weights, sum — is carried over from the teacher's
// market.RankBids multi-objective scoring, adapted from bid ranking to
// agent-ecosystem health.
package ecosystem

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/trm-os/reasoning-core/agents"
	"github.com/trm-os/reasoning-core/reasoning"
)

// AgentSnapshot is the ecosystem's read-only view of one agent: enough
// to compute health and plan distribution without reaching into
// agents.Agent's internals directly.
type AgentSnapshot struct {
	AgentID      string
	Kind         string // "template", "composite", "custom"
	Capabilities []agents.AgentCapability
	Workload     int // active tension count
	Efficiency   float64
	Quality      float64
}

// SnapshotAgent builds an AgentSnapshot from a live agent.
func SnapshotAgent(agent *agents.Agent) AgentSnapshot {
	stats := agent.GetPerformanceStats()
	kind, _ := agent.StrategicContext["agent_kind"].(string)
	if kind == "" {
		kind = "template"
	}
	return AgentSnapshot{
		AgentID:      agent.AgentID,
		Kind:         kind,
		Capabilities: agent.SnapshotCapabilities(),
		Workload:     len(agent.ActiveTensions),
		Efficiency:   stats.AverageWinScore,
		Quality:      stats.AverageWinScore,
	}
}

// HealthReport is EcosystemOptimizer.GenerateHealthReport's output (spec
// §4.11).
type HealthReport struct {
	EcosystemID         string             `json:"ecosystem_id"`
	OverallHealthScore  float64            `json:"overall_health_score"`
	PerAgentHealth      map[string]float64 `json:"per_agent_health"`
	WorkloadBalanceScore float64           `json:"workload_balance_score"`
	PerformanceMetrics  PerformanceMetrics `json:"performance_metrics"`
	IssuesIdentified    []string           `json:"issues_identified"`
	Recommendations     []string           `json:"recommendations"`
	GeneratedAt         time.Time          `json:"generated_at"`
}

// PerformanceMetrics is the health report's aggregate performance view
// (spec §4.11).
type PerformanceMetrics struct {
	Efficiency  float64 `json:"efficiency"`
	Throughput  float64 `json:"throughput"`
	Utilization float64 `json:"utilization"`
}

// EcosystemOptimizer manages named collections of agent snapshots and
// derives health, distribution, and balancing plans from them (spec
// §4.11).
type EcosystemOptimizer struct {
	ecosystems map[string][]AgentSnapshot
}

// NewEcosystemOptimizer returns an optimizer with no registered
// ecosystems.
func NewEcosystemOptimizer() *EcosystemOptimizer {
	return &EcosystemOptimizer{ecosystems: make(map[string][]AgentSnapshot)}
}

// RegisterEcosystem replaces the named ecosystem's agent roster.
func (o *EcosystemOptimizer) RegisterEcosystem(ecosystemID string, roster []AgentSnapshot) {
	o.ecosystems[ecosystemID] = roster
}

// individualAgentHealth implements spec §4.11's per-agent health
// formula: baseline 75, workload and capability-count adjustments,
// efficiency/quality deltas, clamped to [0, 100].
func individualAgentHealth(a AgentSnapshot) float64 {
	health := 75.0
	switch {
	case a.Workload == 0:
		health -= 10
	case a.Workload > 10:
		health -= 15
	}
	switch {
	case len(a.Capabilities) == 0:
		health -= 15
	case len(a.Capabilities) > 8:
		health += 10
	}
	health += 0.2 * (a.Efficiency - 75)
	health += 0.2 * (a.Quality - 75)
	return clamp(health, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// workloadBalanceScore scores the even-ness of workload distribution:
// 100 - (stddev/mean)*100, clamped at 0; an all-zero workload roster is
// perfectly balanced by convention.
func workloadBalanceScore(roster []AgentSnapshot) float64 {
	if len(roster) == 0 {
		return 100
	}
	workloads := make([]float64, len(roster))
	var sum float64
	for i, a := range roster {
		workloads[i] = float64(a.Workload)
		sum += workloads[i]
	}
	mean := sum / float64(len(workloads))
	if mean == 0 {
		return 100
	}
	var variance float64
	for _, w := range workloads {
		variance += (w - mean) * (w - mean)
	}
	variance /= float64(len(workloads))
	stddev := math.Sqrt(variance)
	return math.Max(0, 100-(stddev/mean)*100)
}

func performanceMetrics(roster []AgentSnapshot) PerformanceMetrics {
	if len(roster) == 0 {
		return PerformanceMetrics{}
	}
	var efficiencySum float64
	var activeTensions int
	var utilized int
	for _, a := range roster {
		efficiencySum += a.Efficiency
		activeTensions += a.Workload
		if a.Workload > 0 {
			utilized++
		}
	}
	return PerformanceMetrics{
		Efficiency:  efficiencySum / float64(len(roster)),
		Throughput:  float64(activeTensions) / float64(len(roster)),
		Utilization: float64(utilized) / float64(len(roster)),
	}
}

// detectIssues implements spec §4.11's issue-detection rules, each
// mapped to a fixed recommendation.
func detectIssues(roster []AgentSnapshot, perAgentHealth map[string]float64, balance float64) (issues, recommendations []string) {
	unhealthy := 0
	idle := 0
	overloaded := 0
	for _, a := range roster {
		if perAgentHealth[a.AgentID] < 60 {
			unhealthy++
		}
		if a.Workload == 0 {
			idle++
		}
		if a.Workload > 10 {
			overloaded++
		}
	}

	if unhealthy > 0 {
		issues = append(issues, fmt.Sprintf("%d agent(s) below health threshold", unhealthy))
		recommendations = append(recommendations, "evolve or replace underperforming agents via evolution.CapabilityEvolver")
	}
	if balance < 60 {
		issues = append(issues, "poor workload balance across ecosystem")
		recommendations = append(recommendations, "rebalance via BalanceWorkloadAcrossAgents")
	}
	if len(roster) > 0 && float64(idle)/float64(len(roster)) > 0.3 {
		issues = append(issues, "excessive idle agents")
		recommendations = append(recommendations, "route more tensions to idle agents or retire them")
	}
	if overloaded > 0 {
		issues = append(issues, fmt.Sprintf("%d agent(s) overloaded", overloaded))
		recommendations = append(recommendations, "redistribute workload away from overloaded agents")
	}
	if len(roster) < 3 {
		issues = append(issues, "low ecosystem diversity")
		recommendations = append(recommendations, "create additional templates or composite agents")
	}
	return issues, recommendations
}

// GenerateHealthReport computes a full HealthReport for the named
// ecosystem (spec §4.11). An unregistered ecosystemID, or one with an
// empty roster, yields an empty, maximally-healthy report — there is
// nothing to flag.
func (o *EcosystemOptimizer) GenerateHealthReport(ecosystemID string) HealthReport {
	roster := o.ecosystems[ecosystemID]
	if len(roster) == 0 {
		return HealthReport{
			EcosystemID:          ecosystemID,
			OverallHealthScore:   100,
			PerAgentHealth:       map[string]float64{},
			WorkloadBalanceScore: 100,
			GeneratedAt:          time.Now(),
		}
	}

	perAgentHealth := make(map[string]float64, len(roster))
	var healthSum float64
	for _, a := range roster {
		h := individualAgentHealth(a)
		perAgentHealth[a.AgentID] = h
		healthSum += h
	}
	meanHealth := 0.0
	if len(roster) > 0 {
		meanHealth = healthSum / float64(len(roster))
	}

	balance := workloadBalanceScore(roster)
	metrics := performanceMetrics(roster)
	issues, recommendations := detectIssues(roster, perAgentHealth, balance)

	overall := 0.4*meanHealth + 0.3*balance + 0.3*((metrics.Efficiency+metrics.Utilization*100)/2)

	return HealthReport{
		EcosystemID:          ecosystemID,
		OverallHealthScore:   clamp(overall, 0, 100),
		PerAgentHealth:       perAgentHealth,
		WorkloadBalanceScore: balance,
		PerformanceMetrics:   metrics,
		IssuesIdentified:     issues,
		Recommendations:      recommendations,
		GeneratedAt:          time.Now(),
	}
}

// OptimizationPlan is OptimizeAgentDistribution's output (spec §4.11).
type OptimizationPlan struct {
	PlanID               string              `json:"plan_id"`
	OptimizationType      string              `json:"optimization_type"`
	Actions               []AssignmentAction  `json:"actions"`
	ExpectedImprovements  map[string]float64  `json:"expected_improvements"`
	ImplementationSteps   []string            `json:"implementation_steps"`
	EstimatedDuration      time.Duration       `json:"estimated_duration"`
}

// AssignmentAction assigns one tension to one agent.
type AssignmentAction struct {
	TensionID string  `json:"tension_id"`
	AgentID   string  `json:"agent_id"`
	Score     float64 `json:"score"`
}

type tensionWork struct {
	tension            reasoning.Tension
	complexity         float64
	priorityWeight     float64
	requiredCaps       []string
	estimatedEffort    float64
}

func extractTensionWork(tension reasoning.Tension) tensionWork {
	priorityMultiplier := map[reasoning.Priority]float64{
		reasoning.PriorityLow:      0.7,
		reasoning.PriorityNormal:   1.0,
		reasoning.PriorityHigh:     1.3,
		reasoning.PriorityCritical: 1.6,
	}
	complexity := math.Min(1.0, float64(len(tension.Description))/100.0)
	mult := priorityMultiplier[tension.Priority]
	if mult == 0 {
		mult = 1.0
	}
	return tensionWork{
		tension:         tension,
		complexity:      complexity,
		priorityWeight:  mult,
		requiredCaps:    extractKeywordCaps(tension),
		estimatedEffort: 60 * mult * (0.5 + complexity),
	}
}

// extractKeywordCaps scans the tension text for known capability
// keywords (spec §4.11 step 1: "keyword scan").
func extractKeywordCaps(tension reasoning.Tension) []string {
	text := strings.ToLower(tension.Title + " " + tension.Description)
	var found []string
	for _, kw := range []string{
		"bug", "refactor", "feature", "review", "design", "usability",
		"integration", "data_sync", "research", "analysis", "security",
	} {
		if strings.Contains(text, kw) {
			found = append(found, kw)
		}
	}
	return found
}

type agentWork struct {
	snapshot   AgentSnapshot
	capacity   int
	efficiency float64
	assigned   int
}

func extractAgentWork(a AgentSnapshot) agentWork {
	capacity := 3 + int(math.Min(5, float64(len(a.Capabilities))))
	efficiency := a.Efficiency
	switch a.Kind {
	case "composite":
		efficiency += 10
	case "custom":
		efficiency += 5
	}
	return agentWork{snapshot: a, capacity: capacity, efficiency: efficiency}
}

func capabilityNames(caps []agents.AgentCapability) []string {
	names := make([]string, 0, len(caps))
	for _, c := range caps {
		names = append(names, strings.ToLower(c.Name))
	}
	return names
}

func overlapRatio(required, offered []string) float64 {
	if len(required) == 0 {
		return 1.0
	}
	offeredSet := make(map[string]bool, len(offered))
	for _, c := range offered {
		offeredSet[c] = true
	}
	matched := 0
	for _, r := range required {
		for o := range offeredSet {
			if strings.Contains(o, r) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(required))
}

// assignmentScore implements spec §4.11 step 4's assignment scoring
// formula.
func assignmentScore(w agentWork, required []string) float64 {
	caps := capabilityNames(w.snapshot.Capabilities)
	ratio := overlapRatio(required, caps)
	return 50 + 30*ratio + 0.2*(w.efficiency-75) - 5*float64(w.snapshot.Workload+w.assigned)
}

// OptimizeAgentDistribution plans tension-to-agent assignments for the
// named ecosystem (spec §4.11): tensions sorted by priority/complexity,
// each assigned to the agent maximizing assignmentScore among agents
// with spare capacity.
func (o *EcosystemOptimizer) OptimizeAgentDistribution(ecosystemID string, tensions []reasoning.Tension) OptimizationPlan {
	roster := o.ecosystems[ecosystemID]

	works := make([]tensionWork, len(tensions))
	for i, t := range tensions {
		works[i] = extractTensionWork(t)
	}
	sort.SliceStable(works, func(i, j int) bool {
		pi, pj := works[i].tension.Priority, works[j].tension.Priority
		if highPriority(pi) != highPriority(pj) {
			return highPriority(pi)
		}
		return works[i].complexity > works[j].complexity
	})

	agentWorks := make([]*agentWork, len(roster))
	for i, a := range roster {
		w := extractAgentWork(a)
		agentWorks[i] = &w
	}

	var actions []AssignmentAction
	for _, tw := range works {
		var best *agentWork
		bestScore := math.Inf(-1)
		for _, aw := range agentWorks {
			if aw.snapshot.Workload+aw.assigned >= aw.capacity {
				continue
			}
			score := assignmentScore(*aw, tw.requiredCaps)
			if score > bestScore {
				bestScore = score
				best = aw
			}
		}
		if best == nil {
			continue
		}
		best.assigned++
		actions = append(actions, AssignmentAction{
			TensionID: tw.tension.ID,
			AgentID:   best.snapshot.AgentID,
			Score:     bestScore,
		})
	}

	return OptimizationPlan{
		PlanID:           fmt.Sprintf("plan-%s-%d", ecosystemID, len(tensions)),
		OptimizationType: "distribution",
		Actions:          actions,
		ExpectedImprovements: map[string]float64{
			"assignments_made": float64(len(actions)),
			"unassigned":       float64(len(tensions) - len(actions)),
		},
		ImplementationSteps: []string{
			"apply actions in order via TemplateRegistry.CreateAgentFromTemplate or ActiveAgent lookup",
			"monitor health report after rollout",
		},
		EstimatedDuration: 5 * time.Minute * time.Duration(len(tensions)),
	}
}

func highPriority(p reasoning.Priority) bool {
	return p == reasoning.PriorityHigh || p == reasoning.PriorityCritical
}

// BalancingResult is BalanceWorkloadAcrossAgents's output (spec §4.11).
type BalancingResult struct {
	Redistributions          []Redistribution `json:"redistributions"`
	EfficiencyImprovement     float64          `json:"efficiency_improvement"`
	BalanceScoreImprovement   float64          `json:"balance_score_improvement"`
}

// Redistribution moves a tension count from one conceptual agent slot
// to another.
type Redistribution struct {
	FromSlot int `json:"from_slot"`
	ToSlot   int `json:"to_slot"`
	Count    int `json:"count"`
}

// assumedAgentCount is the fixed slot count BalanceWorkloadAcrossAgents
// distributes over (spec §4.11: "a fixed assumed number of agents (3)").
const assumedAgentCount = 3

// BalanceWorkloadAcrossAgents distributes workload tensions evenly
// across assumedAgentCount conceptual agent slots (spec §4.11).
func (o *EcosystemOptimizer) BalanceWorkloadAcrossAgents(workload int) BalancingResult {
	before := unevenSplit(workload, assumedAgentCount)
	beforeBalance := stddevBalanceScore(before)

	share := workload / assumedAgentCount
	remainder := workload % assumedAgentCount
	after := make([]int, assumedAgentCount)
	for i := range after {
		after[i] = share
		if i < remainder {
			after[i]++
		}
	}
	afterBalance := stddevBalanceScore(after)

	var redistributions []Redistribution
	for i := range before {
		diff := before[i] - after[i]
		if diff <= 0 {
			continue
		}
		for j := range after {
			if j == i || diff == 0 {
				continue
			}
			if before[j] < after[j] {
				move := after[j] - before[j]
				if move > diff {
					move = diff
				}
				redistributions = append(redistributions, Redistribution{FromSlot: i, ToSlot: j, Count: move})
				diff -= move
			}
		}
	}

	return BalancingResult{
		Redistributions:         redistributions,
		EfficiencyImprovement:   math.Max(0, afterBalance-beforeBalance) * 0.15,
		BalanceScoreImprovement: afterBalance - beforeBalance,
	}
}

// unevenSplit front-loads workload onto the first slot, simulating a
// naive pre-balance distribution to compare against.
func unevenSplit(workload, slots int) []int {
	dist := make([]int, slots)
	if slots > 0 {
		dist[0] = workload
	}
	return dist
}

func stddevBalanceScore(dist []int) float64 {
	if len(dist) == 0 {
		return 100
	}
	var sum float64
	for _, v := range dist {
		sum += float64(v)
	}
	mean := sum / float64(len(dist))
	if mean == 0 {
		return 100
	}
	var variance float64
	for _, v := range dist {
		variance += (float64(v) - mean) * (float64(v) - mean)
	}
	variance /= float64(len(dist))
	return math.Max(0, 100-(math.Sqrt(variance)/mean)*100)
}
