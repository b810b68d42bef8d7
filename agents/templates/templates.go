// Package templates holds the concrete agent templates the registry
// (package registry) can instantiate: capability sets, domain keyword
// tables, and specialized behavior for each (spec §4.6-§4.8, Scenario
// 4/5's data-analysis and code-generation agent mentions).
package templates

import (
	"github.com/trm-os/reasoning-core/agents"
)

// Definition bundles a template's metadata factory, behavior factory,
// and domain keyword set (the latter consumed by the registry's
// confidence-scoring algorithm, spec §4.7).
type Definition struct {
	Name            string
	DomainKeywords  []string
	NewMetadata     func() agents.AgentTemplateMetadata
	NewBehavior     func(a *agents.Agent) agents.SpecializedBehavior
}

// All lists every built-in template definition, in registration order.
func All() []Definition {
	return []Definition{
		DataAnalystDefinition(),
		CodeGeneratorDefinition(),
		UserInterfaceDefinition(),
		IntegrationDefinition(),
		ResearchDefinition(),
	}
}
