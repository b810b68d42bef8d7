package security

import (
	"fmt"
	"sync"
	"time"
)

// CBState is a circuit breaker's current state, adapted unchanged from
// the teacher's security.go CircuitBreaker.
type CBState string

const (
	CBClosed   CBState = "closed"    // normal operation
	CBOpen     CBState = "open"      // tripped, agent blocked
	CBHalfOpen CBState = "half_open" // probing for recovery
)

// CircuitBreaker trips when an agent's failure count or win-score trust
// drops too far, blocking further action execution until it cools down.
// One breaker per agent; the teacher's per-delegate-agent breaker model
// carries over unchanged, only the trip trigger (action failures/WIN
// score instead of bid failures/reputation) changed.
type CircuitBreaker struct {
	mu sync.Mutex

	AgentID          string
	FailureCount     int
	FailureThreshold int
	TrustFloor       float64
	CooldownPeriod   time.Duration
	State            CBState
	LastTripped      time.Time
}

// NewCircuitBreaker returns a closed breaker for agentID.
func NewCircuitBreaker(agentID string, failureThreshold int, trustFloor float64) *CircuitBreaker {
	return &CircuitBreaker{
		AgentID:          agentID,
		FailureThreshold: failureThreshold,
		TrustFloor:       trustFloor,
		CooldownPeriod:   30 * time.Minute,
		State:            CBClosed,
	}
}

// RecordFailure increments the failure counter, tripping the breaker
// open once it reaches FailureThreshold. Returns true if this call
// tripped it.
func (cb *CircuitBreaker) RecordFailure() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.FailureCount++
	if cb.FailureCount >= cb.FailureThreshold {
		cb.State = CBOpen
		cb.LastTripped = time.Now()
		return true
	}
	return false
}

// RecordSuccess resets the failure counter and closes the breaker.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.FailureCount = 0
	cb.State = CBClosed
}

// CheckWinScoreDrop trips the breaker if currentScore falls below
// TrustFloor (the WIN-score analogue of the teacher's reputation-drop
// check).
func (cb *CircuitBreaker) CheckWinScoreDrop(currentScore float64) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if currentScore < cb.TrustFloor {
		cb.State = CBOpen
		cb.LastTripped = time.Now()
		return true
	}
	return false
}

// IsAllowed reports whether the agent may currently execute actions,
// advancing Open to HalfOpen once CooldownPeriod has elapsed.
func (cb *CircuitBreaker) IsAllowed() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.State {
	case CBClosed:
		return true
	case CBOpen:
		if time.Since(cb.LastTripped) > cb.CooldownPeriod {
			cb.State = CBHalfOpen
			return true
		}
		return false
	case CBHalfOpen:
		return true
	}
	return false
}

// BreakerBank manages one CircuitBreaker per agent, lazily created on
// first use with defaultThreshold/defaultTrustFloor.
type BreakerBank struct {
	mu               sync.Mutex
	breakers         map[string]*CircuitBreaker
	defaultThreshold int
	defaultTrustFloor float64
}

// NewBreakerBank returns a bank that creates breakers with
// defaultThreshold consecutive failures and defaultTrustFloor WIN-score
// floor.
func NewBreakerBank(defaultThreshold int, defaultTrustFloor float64) *BreakerBank {
	return &BreakerBank{
		breakers:          make(map[string]*CircuitBreaker),
		defaultThreshold:  defaultThreshold,
		defaultTrustFloor: defaultTrustFloor,
	}
}

func (b *BreakerBank) breakerFor(agentID string) *CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	cb, ok := b.breakers[agentID]
	if !ok {
		cb = NewCircuitBreaker(agentID, b.defaultThreshold, b.defaultTrustFloor)
		b.breakers[agentID] = cb
	}
	return cb
}

// Allow reports whether agentID may currently execute actions.
func (b *BreakerBank) Allow(agentID string) bool {
	return b.breakerFor(agentID).IsAllowed()
}

// RecordFailure records a failed action for agentID.
func (b *BreakerBank) RecordFailure(agentID string) {
	b.breakerFor(agentID).RecordFailure()
}

// RecordSuccess records a successful action for agentID.
func (b *BreakerBank) RecordSuccess(agentID string) {
	b.breakerFor(agentID).RecordSuccess()
}

// Gate combines a TokenIssuer and a BreakerBank into an
// agents.ActionGate-compatible function: it rejects actions for
// breaker-tripped agents without needing a token, and validates the
// token stored per (agentID, capability) when an issuer is configured.
// Orchestration wires Gate.Check into each quantum cycle as an explicit
// agents.ActionGate, rather than a process-global.
type Gate struct {
	issuer   *TokenIssuer
	bank     *BreakerBank
	tokens   map[tokenKey]*AgentActionToken
	tokensMu sync.RWMutex
}

// tokenKey identifies one issued token by the (agent, capability) pair
// it grants, so an agent holding tokens for several capabilities keeps
// all of them live instead of the last Authorize call clobbering the
// rest.
type tokenKey struct {
	agentID    string
	capability string
}

// NewGate builds a Gate over issuer and bank. issuer may be nil, in
// which case only the circuit breaker check applies.
func NewGate(issuer *TokenIssuer, bank *BreakerBank) *Gate {
	return &Gate{issuer: issuer, bank: bank, tokens: make(map[tokenKey]*AgentActionToken)}
}

// Authorize issues (and remembers) a token for agentID/capability,
// replacing any token previously held for that exact pair. Tokens held
// for the agent's other capabilities are unaffected.
func (g *Gate) Authorize(agentID, capability string, ttl time.Duration) (*AgentActionToken, error) {
	if g.issuer == nil {
		return nil, fmt.Errorf("gate has no token issuer configured")
	}
	token, err := g.issuer.IssueToken(agentID, capability, ttl)
	if err != nil {
		return nil, err
	}
	g.tokensMu.Lock()
	g.tokens[tokenKey{agentID, capability}] = token
	g.tokensMu.Unlock()
	return token, nil
}

// Check implements the agents.ActionGate signature: func(agentID,
// action string) error. action is matched against the capability a
// token was authorized for, so callers must Authorize the same string
// the quantum cycle will later present here.
func (g *Gate) Check(agentID, action string) error {
	if g.bank != nil && !g.bank.Allow(agentID) {
		return fmt.Errorf("circuit breaker open for agent %s", agentID)
	}
	if g.issuer == nil {
		return nil
	}
	g.tokensMu.RLock()
	token := g.tokens[tokenKey{agentID, action}]
	g.tokensMu.RUnlock()
	if err := g.issuer.ValidateToken(token, agentID, action); err != nil {
		if g.bank != nil {
			g.bank.RecordFailure(agentID)
		}
		return err
	}
	if g.bank != nil {
		g.bank.RecordSuccess(agentID)
	}
	return nil
}
