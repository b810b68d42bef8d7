package agents

import (
	"errors"
	"time"

	"github.com/trm-os/reasoning-core/reasoning"
)

// ErrNoBaseAgents is returned by CreateCompositeAgent when no base agents
// are supplied (spec §4.9: "reject creation if any template name is
// unknown" — template-name resolution happens at the caller, typically
// registry.TemplateRegistry, which must reject unknown names before
// reaching this point).
var ErrNoBaseAgents = errors.New("composite agent requires at least one base agent")

// ErrNoRequiredCapabilities is returned by CreateCustomAgent when the
// requirements name no capabilities.
var ErrNoRequiredCapabilities = errors.New("custom agent requires at least one capability")

const (
	agentKindComposite = "composite"
	agentKindCustom    = "custom"
)

// AdvancedAgentCreator composes multi-template (composite) agents and
// synthesizes from-scratch (custom) agents (spec §4.9, C9).
type AdvancedAgentCreator struct{}

// NewAdvancedAgentCreator returns a ready-to-use creator. It holds no
// state: every method is pure given its inputs.
func NewAdvancedAgentCreator() *AdvancedAgentCreator {
	return &AdvancedAgentCreator{}
}

// CreateCompositeAgent builds a composite agent from already-instantiated
// base agents (one per requested template). Its capability set is the
// deduplicated union of base capabilities (first-seen per name); its
// domainExpertise and supportedTensionTypes are unions; its solution
// generator delegates to any base that CanHandleTension, concatenating
// results.
func (c *AdvancedAgentCreator) CreateCompositeAgent(bases []*Agent, requirements map[string]any) (*Agent, error) {
	if len(bases) == 0 {
		return nil, ErrNoBaseAgents
	}

	metadata := AgentTemplateMetadata{
		TemplateName:           "composite_" + joinTemplateNames(bases),
		PrimaryDomain:          "composite",
		Capabilities:           unionCapabilities(bases),
		DomainExpertise:        unionDomainExpertise(bases),
		SupportedTensionTypes:  unionTensionTypes(bases),
		PerformanceMetrics:     map[string]float64{},
		Version:                "1.0.0",
		CreatedAt:              time.Now(),
		UpdatedAt:              time.Now(),
		WinOptimizationWeights: defaultWinOptimizationWeights(),
		StrategicAlignment:     requirements,
	}

	behavior := &compositeBehavior{bases: append([]*Agent(nil), bases...)}
	agent := NewAgent(metadata, behavior)
	agent.StrategicContext["agent_kind"] = agentKindComposite
	if complexity, ok := requirements["complexity"]; ok {
		agent.StrategicContext["complexity_level"] = complexity
	}
	return agent, nil
}

func joinTemplateNames(bases []*Agent) string {
	var out string
	for i, b := range bases {
		if i > 0 {
			out += "_"
		}
		out += b.Metadata.TemplateName
	}
	return out
}

func unionCapabilities(bases []*Agent) []AgentCapability {
	seen := make(map[string]bool)
	var out []AgentCapability
	for _, b := range bases {
		for _, cap := range b.Capabilities {
			if seen[cap.Name] {
				continue
			}
			seen[cap.Name] = true
			out = append(out, cap)
		}
	}
	return out
}

func unionDomainExpertise(bases []*Agent) []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range bases {
		for _, d := range b.Metadata.DomainExpertise {
			if seen[d] {
				continue
			}
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

func unionTensionTypes(bases []*Agent) []reasoning.TensionType {
	seen := make(map[reasoning.TensionType]bool)
	var out []reasoning.TensionType
	for _, b := range bases {
		for _, t := range b.Metadata.SupportedTensionTypes {
			if seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// compositeBehavior dispatches by asking each base agent whether it can
// handle the tension, concatenating whichever bases accept (spec §4.9).
type compositeBehavior struct {
	bases []*Agent
}

func (b *compositeBehavior) acceptingBases(tension reasoning.Tension) []*Agent {
	var accepting []*Agent
	for _, base := range b.bases {
		if base.CanHandleTension(tension) {
			accepting = append(accepting, base)
		}
	}
	return accepting
}

func (b *compositeBehavior) AnalyzeTensionRequirements(tension reasoning.Tension) TensionRequirements {
	accepting := b.acceptingBases(tension)
	if len(accepting) == 0 {
		accepting = b.bases
	}
	// Use the first accepting base's estimate as representative; merge
	// required skills across all accepting bases.
	req := accepting[0].AnalyzeTensionRequirements(tension)
	skillSeen := make(map[string]bool)
	var skills []string
	for _, base := range accepting {
		for _, s := range base.AnalyzeTensionRequirements(tension).RequiredSkills {
			if skillSeen[s] {
				continue
			}
			skillSeen[s] = true
			skills = append(skills, s)
		}
	}
	req.RequiredSkills = skills
	return req
}

func (b *compositeBehavior) GenerateSpecializedSolutions(tension reasoning.Tension, analysis reasoning.TensionAnalysis) []reasoning.GeneratedSolution {
	var solutions []reasoning.GeneratedSolution
	for _, base := range b.acceptingBases(tension) {
		solutions = append(solutions, base.GenerateSpecializedSolutions(tension, analysis)...)
	}
	return solutions
}

func (b *compositeBehavior) ExecuteSolution(solution reasoning.GeneratedSolution) ActionResult {
	if len(b.bases) == 0 {
		return ActionResult{Status: ExecutionFailed}
	}
	return b.bases[0].ExecuteSolution(solution)
}

// CustomRequirements describes a from-scratch agent to synthesize (spec
// §4.9).
type CustomRequirements struct {
	Name                 string
	Description          string
	RequiredCapabilities []string
	DomainExpertise      []string
	ComplexityLevel      string // low, medium, high
}

// CreateCustomAgent synthesizes an AgentCapability (proficiency 0.7,
// 60-minute default task time) per required capability and builds an
// agent around them.
func (c *AdvancedAgentCreator) CreateCustomAgent(req CustomRequirements) (*Agent, error) {
	if len(req.RequiredCapabilities) == 0 {
		return nil, ErrNoRequiredCapabilities
	}

	capabilities := make([]AgentCapability, 0, len(req.RequiredCapabilities))
	for _, name := range req.RequiredCapabilities {
		capabilities = append(capabilities, AgentCapability{
			Name:                 name,
			Description:          "Synthesized capability: " + name,
			ProficiencyLevel:     0.7,
			EstimatedTimePerTask: 60,
			WinContribution:      WinWeights{"wisdom": 0.4, "intelligence": 0.4, "networking": 0.2},
		})
	}

	now := time.Now()
	metadata := AgentTemplateMetadata{
		TemplateName:           "custom_" + req.Name,
		PrimaryDomain:          req.Name,
		Capabilities:           capabilities,
		DomainExpertise:        append([]string(nil), req.DomainExpertise...),
		PerformanceMetrics:     map[string]float64{},
		Version:                "1.0.0",
		CreatedAt:              now,
		UpdatedAt:              now,
		WinOptimizationWeights: defaultWinOptimizationWeights(),
	}

	agent := NewAgent(metadata, nil)
	agent.StrategicContext["agent_kind"] = agentKindCustom
	complexity := req.ComplexityLevel
	if complexity == "" {
		complexity = "medium"
	}
	agent.StrategicContext["complexity_level"] = complexity
	agent.StrategicContext["description"] = req.Description
	return agent, nil
}

var complexitySteps = []string{"low", "medium", "high"}

func demoteComplexity(level string) string {
	for i, l := range complexitySteps {
		if l == level && i > 0 {
			return complexitySteps[i-1]
		}
	}
	return level
}

// OptimizeAgentConfiguration adjusts a CustomAgent's configuration based
// on observed performance (spec §4.9): if efficiency < 50, demote
// complexity_level one step; if quality < 60 and "quality_assurance" is
// not already a capability, add it. Rebuilds the agent under the same
// agentId. Only applies to agents created via CreateCustomAgent.
func (c *AdvancedAgentCreator) OptimizeAgentConfiguration(agent *Agent, performanceData map[string]float64) (*Agent, error) {
	if agent.StrategicContext["agent_kind"] != agentKindCustom {
		return agent, errors.New("optimize agent configuration: agent is not a custom agent")
	}

	capabilities := append([]AgentCapability(nil), agent.Capabilities...)

	if efficiency, ok := performanceData["efficiency"]; ok && efficiency < 50 {
		current, _ := agent.StrategicContext["complexity_level"].(string)
		agent.StrategicContext["complexity_level"] = demoteComplexity(current)
	}

	if quality, ok := performanceData["quality"]; ok && quality < 60 {
		hasQA := false
		for _, cap := range capabilities {
			if cap.Name == "quality_assurance" {
				hasQA = true
				break
			}
		}
		if !hasQA {
			capabilities = append(capabilities, AgentCapability{
				Name:                 "quality_assurance",
				Description:          "Synthesized capability: quality_assurance",
				ProficiencyLevel:     0.7,
				EstimatedTimePerTask: 60,
				WinContribution:      WinWeights{"wisdom": 0.4, "intelligence": 0.4, "networking": 0.2},
			})
		}
	}

	agent.mu.Lock()
	agent.Capabilities = capabilities
	agent.Metadata.Capabilities = capabilities
	agent.Metadata.UpdatedAt = time.Now()
	agent.mu.Unlock()

	return agent, nil
}
