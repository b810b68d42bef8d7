package store

import (
	"context"
	"testing"
	"time"

	nc "github.com/dataparency-dev/natsclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trm-os/reasoning-core/evolution"
	"github.com/trm-os/reasoning-core/reasoning"
)

func TestCacheStore_TensionRoundTrip(t *testing.T) {
	s := NewCacheStore(time.Minute)
	tension := reasoning.Tension{ID: "t1", Title: "example"}

	require.NoError(t, s.PutTension(tension))

	loaded, err := s.LoadTension(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, tension.Title, loaded.Title)
}

func TestCacheStore_LoadTension_NotFound(t *testing.T) {
	s := NewCacheStore(time.Minute)
	_, err := s.LoadTension(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCacheStore_SaveAnalysisAndEvolutionHistory(t *testing.T) {
	s := NewCacheStore(time.Minute)
	ctx := context.Background()

	analysis := reasoning.TensionAnalysis{TensionType: reasoning.TensionProblem, ConfidenceScore: 0.8}
	require.NoError(t, s.SaveAnalysis(ctx, "t1", analysis))

	entry := evolution.EvolutionResult{AgentID: "a1", Success: true, EvolvedAt: time.Now()}
	require.NoError(t, s.SaveEvolutionHistory(ctx, "a1", entry))
}

// fakeNatsStore wires NatsStore's natsclient seam to an in-memory map,
// so the teacher-parity backend runs under test without a live NATS
// server or natsclient oracle.
func fakeNatsStore() (*NatsStore, map[string][]byte) {
	relations := make(map[string]string)
	aspects := make(map[string][]byte)
	aspectKey := func(entity, aspect string) string { return entity + "/" + aspect }

	s := &NatsStore{
		server: "test-server",
		rdids:  newRDIDCache(),
		relationRetrieve: func(_, entity string, _ nc.APIToken) (string, int) {
			if rdid, ok := relations[entity]; ok {
				return rdid, 200
			}
			return "", 404
		},
		relationRegister: func(_, entity string, _ nc.APIToken, _ string) (string, int) {
			rdid := "rdid-" + entity
			relations[entity] = rdid
			return rdid, 200
		},
		post: func(_, _, entity, aspect, _ string, data []byte, _ nc.APIToken) natsResult {
			aspects[aspectKey(entity, aspect)] = data
			return natsResult{Status: 200}
		},
		get: func(_, _, entity, aspect, _ string, _ nc.APIToken) natsResult {
			data, ok := aspects[aspectKey(entity, aspect)]
			if !ok {
				return natsResult{Status: 404, ErrorStr: "no data for " + aspectKey(entity, aspect)}
			}
			return natsResult{Status: 200, Data: data}
		},
	}
	return s, aspects
}

func TestNatsStore_SaveAndLoadAnalysisRoundTrip(t *testing.T) {
	s, _ := fakeNatsStore()
	ctx := context.Background()

	analysis := reasoning.TensionAnalysis{TensionType: reasoning.TensionRisk, ConfidenceScore: 0.9}
	require.NoError(t, s.SaveAnalysis(ctx, "t1", analysis))

	data, err := s.retrieveData(ctx, domainAnalyses, "t1", "analysis")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestNatsStore_LoadTension_NoRDIDYet(t *testing.T) {
	s, _ := fakeNatsStore()
	_, err := s.LoadTension(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrOracleUnavailable)
}

func TestNatsStore_SaveEvolutionHistory_ReachesFakeTransport(t *testing.T) {
	s, aspects := fakeNatsStore()
	ctx := context.Background()

	entry := evolution.EvolutionResult{AgentID: "a1", Success: true, EvolvedAt: time.Now()}
	require.NoError(t, s.SaveEvolutionHistory(ctx, "a1", entry))
	assert.NotEmpty(t, aspects)
}

func TestNatsStore_RDIDCache_AvoidsRepeatedRegistration(t *testing.T) {
	s, _ := fakeNatsStore()
	registerCalls := 0
	realRegister := s.relationRegister
	s.relationRegister = func(server, entity string, token nc.APIToken, op string) (string, int) {
		registerCalls++
		return realRegister(server, entity, token, op)
	}
	ctx := context.Background()

	require.NoError(t, s.SaveAnalysis(ctx, "t1", reasoning.TensionAnalysis{}))
	require.NoError(t, s.SaveSolutions(ctx, "t1", nil))
	assert.Equal(t, 1, registerCalls, "second call for the same entity should hit the RDID cache")
}
