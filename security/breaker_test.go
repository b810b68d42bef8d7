package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker_TripsAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("agent-1", 3, 0.5)
	assert.True(t, cb.IsAllowed())

	cb.RecordFailure()
	cb.RecordFailure()
	tripped := cb.RecordFailure()

	assert.True(t, tripped)
	assert.False(t, cb.IsAllowed())
}

func TestCircuitBreaker_RecoversAfterCooldown(t *testing.T) {
	cb := NewCircuitBreaker("agent-1", 1, 0.5)
	cb.CooldownPeriod = time.Millisecond
	cb.RecordFailure()
	assert.False(t, cb.IsAllowed())

	time.Sleep(5 * time.Millisecond)
	assert.True(t, cb.IsAllowed())
	assert.Equal(t, CBHalfOpen, cb.State)
}

func TestGate_Check_BlocksWithoutAuthorization(t *testing.T) {
	issuer, err := NewTokenIssuer()
	assert.NoError(t, err)
	bank := NewBreakerBank(3, 0.5)
	gate := NewGate(issuer, bank)

	assert.Error(t, gate.Check("agent-1", "bug_fixing"))
}

func TestGate_Check_AllowsAfterAuthorization(t *testing.T) {
	issuer, err := NewTokenIssuer()
	assert.NoError(t, err)
	bank := NewBreakerBank(3, 0.5)
	gate := NewGate(issuer, bank)

	_, err = gate.Authorize("agent-1", "bug_fixing", time.Hour)
	assert.NoError(t, err)
	assert.NoError(t, gate.Check("agent-1", "bug_fixing"))
}

func TestGate_Authorize_MultipleCapabilitiesDoNotOverwrite(t *testing.T) {
	issuer, err := NewTokenIssuer()
	assert.NoError(t, err)
	bank := NewBreakerBank(3, 0.5)
	gate := NewGate(issuer, bank)

	_, err = gate.Authorize("agent-1", "direct_resolution", time.Hour)
	assert.NoError(t, err)
	_, err = gate.Authorize("agent-1", "escalate_for_support", time.Hour)
	assert.NoError(t, err)

	assert.NoError(t, gate.Check("agent-1", "direct_resolution"))
	assert.NoError(t, gate.Check("agent-1", "escalate_for_support"))
	assert.Error(t, gate.Check("agent-1", "deploy_production"))
}
