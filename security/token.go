// Package security gates agent action execution behind signed
// capability tokens and a circuit breaker, adapted from the teacher's
// Delegation Capability Token (DCT) and CircuitBreaker model
// (security.go) — repurposed from delegation-bid screening to
// per-agent action-execution gating in the quantum cycle's Act phase.
package security

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/awgh/bencrypt/bc"
	"github.com/awgh/bencrypt/ecc"
	"golang.org/x/crypto/blake2b"
)

// AgentActionToken grants an agent permission to execute one capability
// for a bounded time, with the payload sealed (bencrypt) and
// fingerprinted (blake2b) so tampering or forgery is detectable without
// trusting the caller (spec SPEC_FULL.md §10: new functionality giving
// the teacher's bencrypt/x-crypto dependencies a live consumer).
type AgentActionToken struct {
	TokenID     string    `json:"token_id"`
	AgentID     string    `json:"agent_id"`
	Capability  string    `json:"capability"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Seal        []byte    `json:"seal"`        // bencrypt ciphertext of the canonical payload
	Fingerprint []byte    `json:"fingerprint"` // blake2b-256 of the canonical payload
}

// canonicalPayload is the exact byte sequence sealed and fingerprinted:
// changing any field invalidates both the seal and the fingerprint.
func canonicalPayload(agentID, capability string, issuedAt, expiresAt time.Time) []byte {
	return []byte(fmt.Sprintf("%s|%s|%d|%d", agentID, capability, issuedAt.UnixNano(), expiresAt.UnixNano()))
}

// TokenIssuer mints and validates AgentActionTokens under its own
// bencrypt keypair. One issuer corresponds to one trust domain (an
// orchestration.Engine instance, typically).
type TokenIssuer struct {
	keys bc.KeyPair
}

// NewTokenIssuer generates a fresh ECC keypair for sealing tokens.
func NewTokenIssuer() (*TokenIssuer, error) {
	keys := new(ecc.KeyPair)
	if err := keys.GenerateKey(); err != nil {
		return nil, fmt.Errorf("generate token issuer keypair: %w", err)
	}
	return &TokenIssuer{keys: keys}, nil
}

// IssueToken mints a token granting agentID capability for ttl.
func (i *TokenIssuer) IssueToken(agentID, capability string, ttl time.Duration) (*AgentActionToken, error) {
	now := time.Now()
	expires := now.Add(ttl)
	payload := canonicalPayload(agentID, capability, now, expires)

	pub := i.keys.GetPubKey()
	seal, err := i.keys.Encrypt(payload, &pub)
	if err != nil {
		return nil, fmt.Errorf("seal token payload: %w", err)
	}
	fingerprint := blake2b.Sum256(payload)

	return &AgentActionToken{
		TokenID:     base64.RawURLEncoding.EncodeToString(fingerprint[:12]),
		AgentID:     agentID,
		Capability:  capability,
		IssuedAt:    now,
		ExpiresAt:   expires,
		Seal:        seal,
		Fingerprint: fingerprint[:],
	}, nil
}

// ValidateToken re-derives the canonical payload, unseals it with the
// issuer's private key, and checks it against the token's claimed
// fields and fingerprint. Returns an error describing exactly why the
// token is rejected.
func (i *TokenIssuer) ValidateToken(token *AgentActionToken, agentID, capability string) error {
	if token == nil {
		return fmt.Errorf("no token presented")
	}
	if time.Now().After(token.ExpiresAt) {
		return fmt.Errorf("token %s expired at %s", token.TokenID, token.ExpiresAt)
	}
	if token.AgentID != agentID {
		return fmt.Errorf("token %s was not issued to agent %s", token.TokenID, agentID)
	}
	if token.Capability != capability && !strings.HasPrefix(token.Capability, capability) {
		return fmt.Errorf("token %s does not grant capability %q", token.TokenID, capability)
	}

	payload := canonicalPayload(token.AgentID, token.Capability, token.IssuedAt, token.ExpiresAt)
	fingerprint := blake2b.Sum256(payload)
	if !bytes.Equal(fingerprint[:], token.Fingerprint) {
		return fmt.Errorf("token %s fingerprint mismatch", token.TokenID)
	}

	unsealed, err := i.keys.Decrypt(token.Seal)
	if err != nil {
		return fmt.Errorf("unseal token %s: %w", token.TokenID, err)
	}
	if !bytes.Equal(unsealed, payload) {
		return fmt.Errorf("token %s seal does not match claimed payload", token.TokenID)
	}
	return nil
}

// There is no revocation call or persistent revocation list: tokens
// lapse at ExpiresAt, and a freshly-generated issuer keypair per process
// invalidates any token sealed by a prior process (process restart
// revokes everything).
