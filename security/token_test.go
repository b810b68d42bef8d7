package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidateToken(t *testing.T) {
	issuer, err := NewTokenIssuer()
	require.NoError(t, err)

	token, err := issuer.IssueToken("agent-1", "bug_fixing", time.Hour)
	require.NoError(t, err)
	require.NotNil(t, token)

	assert.NoError(t, issuer.ValidateToken(token, "agent-1", "bug_fixing"))
}

func TestValidateToken_RejectsWrongAgent(t *testing.T) {
	issuer, err := NewTokenIssuer()
	require.NoError(t, err)

	token, err := issuer.IssueToken("agent-1", "bug_fixing", time.Hour)
	require.NoError(t, err)

	assert.Error(t, issuer.ValidateToken(token, "agent-2", "bug_fixing"))
}

func TestValidateToken_RejectsExpired(t *testing.T) {
	issuer, err := NewTokenIssuer()
	require.NoError(t, err)

	token, err := issuer.IssueToken("agent-1", "bug_fixing", -time.Second)
	require.NoError(t, err)

	assert.Error(t, issuer.ValidateToken(token, "agent-1", "bug_fixing"))
}

func TestValidateToken_RejectsTamperedFingerprint(t *testing.T) {
	issuer, err := NewTokenIssuer()
	require.NoError(t, err)

	token, err := issuer.IssueToken("agent-1", "bug_fixing", time.Hour)
	require.NoError(t, err)

	token.Capability = "deploy_production"
	assert.Error(t, issuer.ValidateToken(token, "agent-1", "deploy_production"))
}
