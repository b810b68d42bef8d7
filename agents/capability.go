// Package agents implements the capability/template model, the quantum
// operating cycle, and agent creation/composition (spec C6, C8, C9).
package agents

import (
	"strings"

	"github.com/trm-os/reasoning-core/reasoning"
)

// WinWeights names the {wisdom, intelligence, networking} contribution of
// a capability, or the optimization weights of a template. Keys are
// always "wisdom", "intelligence", "networking".
type WinWeights map[string]float64

// AgentCapability is a single named skill an agent can apply to a
// tension (spec §3.6).
type AgentCapability struct {
	Name                 string                  `json:"name"`
	Description          string                  `json:"description"`
	ProficiencyLevel     float64                 `json:"proficiency_level"` // 0.0-1.0
	EstimatedTimePerTask int                     `json:"estimated_time_per_task"` // minutes
	Prerequisites        []string                `json:"prerequisites"`
	RelatedTensionTypes  []reasoning.TensionType `json:"related_tension_types"`
	WinContribution      WinWeights              `json:"win_contribution"`
}

// HasTensionType reports whether c declares relevance to t.
func (c AgentCapability) HasTensionType(t reasoning.TensionType) bool {
	for _, rt := range c.RelatedTensionTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// describesKeyword reports whether kw appears in the capability's name or
// description (case-insensitive), used as a keyword fallback for domain
// relevance when no capability declares an explicit related tension type.
func (c AgentCapability) describesKeyword(kw string) bool {
	kw = strings.ToLower(kw)
	return strings.Contains(strings.ToLower(c.Name), kw) || strings.Contains(strings.ToLower(c.Description), kw)
}
