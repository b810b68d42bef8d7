package agents

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/trm-os/reasoning-core/reasoning"
)

// performanceHistoryLimit bounds Agent.PerformanceHistory to its most
// recent entries (spec §3.8). It is a fixed package constant:
// orchestration.Config.PerformanceHistoryLimit is not passed to agents,
// so setting that field does not change this bound.
const performanceHistoryLimit = 100

// AgentStatus names a point in the agent lifecycle (spec §3.8).
type AgentStatus string

const (
	StatusInstantiated AgentStatus = "instantiated"
	StatusInitialized  AgentStatus = "initialized"
	StatusRunning      AgentStatus = "running"
	StatusStopped      AgentStatus = "stopped"
)

// PerformanceRecord is one entry in an agent's bounded performance
// history: the WIN score achieved handling a single tension.
type PerformanceRecord struct {
	TensionID string    `json:"tension_id"`
	WinScore  WinScore  `json:"win_score"`
	RecordedAt time.Time `json:"recorded_at"`
}

// PerformanceStats are the counters derived from an agent's history.
type PerformanceStats struct {
	TasksCompleted  int     `json:"tasks_completed"`
	TasksFailed     int     `json:"tasks_failed"`
	AverageWinScore float64 `json:"average_win_score"`
}

// SpecializedBehavior is the polymorphic capability set every concrete
// agent template implements (spec §4.8). genericBehavior provides a generic
// fallback; templates in agents/templates override some or all of
// these.
type SpecializedBehavior interface {
	GenerateSpecializedSolutions(tension reasoning.Tension, analysis reasoning.TensionAnalysis) []reasoning.GeneratedSolution
	ExecuteSolution(solution reasoning.GeneratedSolution) ActionResult
	AnalyzeTensionRequirements(tension reasoning.Tension) TensionRequirements
}

// TensionRequirements is TemplateRegistry's per-match effort estimate
// (spec §4.7 step 2).
type TensionRequirements struct {
	Complexity      string   `json:"complexity"` // low, medium, high
	Urgency         string   `json:"urgency"`     // low, high
	RequiredSkills  []string `json:"required_skills"`
	Deliverables    []string `json:"deliverables"`
	EstimatedEffort string   `json:"estimated_effort"`
}

// Agent is a running instance created from a template (or synthesized
// directly, see agents/creator.go). Its own state (activeTensions,
// performanceStats) is accessed only by its own handlers: no cross-agent
// shared mutation (spec §5).
type Agent struct {
	mu sync.Mutex

	AgentID      string                 `json:"agent_id"`
	Metadata     AgentTemplateMetadata  `json:"metadata"`
	Capabilities []AgentCapability      `json:"capabilities"`
	Status       AgentStatus            `json:"status"`

	PerformanceHistory []PerformanceRecord        `json:"performance_history"`
	LastActivity        time.Time                 `json:"last_activity"`
	StrategicContext    map[string]any            `json:"strategic_context"`
	ActiveTensions      map[string]reasoning.Tension `json:"active_tensions"`
	CompletedTasks      []string                  `json:"completed_tasks"`

	behavior SpecializedBehavior
}

// NewAgent instantiates a running agent from template metadata. behavior
// may be nil, in which case the agent falls back to generic solution
// generation via the reasoning package's SolutionGenerator.
func NewAgent(metadata AgentTemplateMetadata, behavior SpecializedBehavior) *Agent {
	id := uuid.NewString()
	a := &Agent{
		AgentID:          id,
		Metadata:         metadata,
		Capabilities:     append([]AgentCapability(nil), metadata.Capabilities...),
		Status:           StatusInstantiated,
		StrategicContext: make(map[string]any),
		ActiveTensions:   make(map[string]reasoning.Tension),
		behavior:         behavior,
	}
	if a.behavior == nil {
		a.behavior = newGenericBehavior(a)
	}
	a.Status = StatusInitialized
	return a
}

// MutateCapabilities applies f to a copy of the agent's capability set
// and commits the result under lock, keeping Capabilities and
// Metadata.Capabilities in sync. Used by evolution.CapabilityEvolver to
// apply evolution strategies without reaching into Agent internals.
func (a *Agent) MutateCapabilities(f func([]AgentCapability) []AgentCapability) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Capabilities = f(append([]AgentCapability(nil), a.Capabilities...))
	a.Metadata.Capabilities = a.Capabilities
}

// SnapshotCapabilities returns a defensive copy of the agent's current
// capability set.
func (a *Agent) SnapshotCapabilities() []AgentCapability {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]AgentCapability(nil), a.Capabilities...)
}

// SetBehavior replaces the agent's specialized behavior. Used by
// registry.TemplateRegistry after constructing an Agent from a template
// Definition, whose NewBehavior factory takes the *Agent it specializes.
func (a *Agent) SetBehavior(behavior SpecializedBehavior) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.behavior = behavior
}

// Start transitions the agent to Running.
func (a *Agent) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Status = StatusRunning
	a.LastActivity = time.Now()
}

// Stop transitions the agent to Stopped, clearing active tensions (the
// equivalent of unsubscribing/flushing state, spec §3.8's lifecycle).
func (a *Agent) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Status = StatusStopped
	a.ActiveTensions = make(map[string]reasoning.Tension)
}

// CanHandleTension reports whether this agent's capability set is
// relevant enough to accept tension (spec §4.8 threshold 0.6).
func (a *Agent) CanHandleTension(tension reasoning.Tension) bool {
	return CanHandleTension(a.Capabilities, a.Metadata.DomainExpertise, tension)
}

// AnalyzeTensionRequirements delegates to the agent's behavior.
func (a *Agent) AnalyzeTensionRequirements(tension reasoning.Tension) TensionRequirements {
	return a.behavior.AnalyzeTensionRequirements(tension)
}

// GenerateSpecializedSolutions delegates to the agent's behavior.
func (a *Agent) GenerateSpecializedSolutions(tension reasoning.Tension, analysis reasoning.TensionAnalysis) []reasoning.GeneratedSolution {
	return a.behavior.GenerateSpecializedSolutions(tension, analysis)
}

// ExecuteSolution delegates to the agent's behavior.
func (a *Agent) ExecuteSolution(solution reasoning.GeneratedSolution) ActionResult {
	return a.behavior.ExecuteSolution(solution)
}

// HandleTension runs the full quantum cycle for tension, records the
// tension as active for the duration, and appends a bounded performance
// record on completion. gate is consulted by the Act phase before
// executing the decided action; pass nil to run ungated.
func (a *Agent) HandleTension(tension reasoning.Tension, gate ActionGate) CycleResult {
	a.mu.Lock()
	a.ActiveTensions[tension.ID] = tension
	a.LastActivity = time.Now()
	a.mu.Unlock()

	result := runQuantumCycle(a, tension, gate)

	a.mu.Lock()
	delete(a.ActiveTensions, tension.ID)
	a.CompletedTasks = append(a.CompletedTasks, tension.ID)
	a.appendPerformanceRecordLocked(tension.ID, result.Feedback.ActualWinScore)
	a.mu.Unlock()

	return result
}

func (a *Agent) appendPerformanceRecordLocked(tensionID string, score WinScore) {
	a.PerformanceHistory = append(a.PerformanceHistory, PerformanceRecord{
		TensionID:  tensionID,
		WinScore:   score,
		RecordedAt: time.Now(),
	})
	if len(a.PerformanceHistory) > performanceHistoryLimit {
		a.PerformanceHistory = a.PerformanceHistory[len(a.PerformanceHistory)-performanceHistoryLimit:]
	}
}

// GetPerformanceStats summarizes the agent's bounded performance
// history.
func (a *Agent) GetPerformanceStats() PerformanceStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := PerformanceStats{}
	var totalWin float64
	for _, record := range a.PerformanceHistory {
		if record.WinScore.Total >= 50 {
			stats.TasksCompleted++
		} else {
			stats.TasksFailed++
		}
		totalWin += record.WinScore.Total
	}
	if len(a.PerformanceHistory) > 0 {
		stats.AverageWinScore = totalWin / float64(len(a.PerformanceHistory))
	}
	return stats
}

// genericBehavior is the BaseAgent-equivalent fallback: it wraps the
// reasoning package's SolutionGenerator rather than providing template-
// specific specialization.
type genericBehavior struct {
	agent     *Agent
	generator *reasoning.SolutionGenerator
}

func newGenericBehavior(a *Agent) *genericBehavior {
	return &genericBehavior{agent: a, generator: reasoning.NewSolutionGenerator()}
}

func (b *genericBehavior) GenerateSpecializedSolutions(tension reasoning.Tension, analysis reasoning.TensionAnalysis) []reasoning.GeneratedSolution {
	return b.generator.GenerateSolutions(analysis, tension.Title, tension.Description)
}

func (b *genericBehavior) ExecuteSolution(solution reasoning.GeneratedSolution) ActionResult {
	return ActionResult{
		Status:          ExecutionCompleted,
		ActualResults:   map[string]any{"solution_id": solution.ID},
		EventsGenerated: []string{"solution_executed"},
	}
}

func (b *genericBehavior) AnalyzeTensionRequirements(tension reasoning.Tension) TensionRequirements {
	complexity := complexityLevelForText(tension.Description)
	urgency := "low"
	if tension.Priority == reasoning.PriorityHigh || tension.Priority == reasoning.PriorityCritical {
		urgency = "high"
	}
	return TensionRequirements{
		Complexity:      complexity,
		Urgency:         urgency,
		RequiredSkills:  capabilityNames(b.agent.Capabilities),
		EstimatedEffort: "unscoped",
	}
}

func capabilityNames(capabilities []AgentCapability) []string {
	names := make([]string, 0, len(capabilities))
	for _, c := range capabilities {
		names = append(names, c.Name)
	}
	return names
}
