// Package store implements the external persistence contract (spec
// §6.4): load tensions, save per-stage reasoning output, and append
// evolution history. The reference implementation is go-cache backed,
// grounded on the teacher's engine.go storeData/retrieveData wrappers
// (domain/entity/aspect keying) adapted from a NATS-backed entity store
// to an in-process cache; a NATS-backed Store is also provided for
// parity with the teacher's actual backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	nc "github.com/dataparency-dev/natsclient"

	"github.com/trm-os/reasoning-core/evolution"
	"github.com/trm-os/reasoning-core/reasoning"
)

// ErrOracleUnavailable is returned by a Store implementation when its
// backing oracle (cache, NATS, future graph DB) cannot be reached.
var ErrOracleUnavailable = errors.New("store: backing oracle unavailable")

// ErrNotFound is returned when the requested key has no stored value.
var ErrNotFound = errors.New("store: key not found")

// Store is the external persistence contract (spec §6.4). Tensions are
// owned externally (spec: "this package only ever holds read-only
// references" — reasoning.Tension's own doc comment); Store.LoadTension
// models fetching one by ID from wherever tensions actually live.
type Store interface {
	LoadTension(ctx context.Context, id string) (reasoning.Tension, error)
	SaveAnalysis(ctx context.Context, tensionID string, analysis reasoning.TensionAnalysis) error
	SaveSolutions(ctx context.Context, tensionID string, solutions []reasoning.GeneratedSolution) error
	SavePriorityResult(ctx context.Context, tensionID string, result reasoning.PriorityCalculationResult) error
	SaveEvolutionHistory(ctx context.Context, agentID string, entry evolution.EvolutionResult) error
}

const (
	domainTensions  = "Tensions"
	domainAnalyses  = "Analyses"
	domainSolutions = "Solutions"
	domainPriority  = "PriorityResults"
	domainEvolution = "EvolutionHistory"
)

// CacheStore is the reference Store implementation: an in-process
// go-cache instance keyed by domain/entity/aspect, mirroring the
// teacher's storeData(domain, entity, aspect, data) key shape without
// the NATS round trip.
type CacheStore struct {
	cache *gocache.Cache
}

// NewCacheStore returns a CacheStore whose entries expire after ttl (0
// disables expiry).
func NewCacheStore(ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &CacheStore{cache: gocache.New(ttl, ttl*2)}
}

func cacheKey(domain, entity, aspect string) string {
	return fmt.Sprintf("%s/%s/%s", domain, entity, aspect)
}

func (s *CacheStore) put(domain, entity, aspect string, value any) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s/%s/%s: %w", domain, entity, aspect, err)
	}
	s.cache.SetDefault(cacheKey(domain, entity, aspect), body)
	return nil
}

func (s *CacheStore) get(domain, entity, aspect string, out any) error {
	raw, ok := s.cache.Get(cacheKey(domain, entity, aspect))
	if !ok {
		return fmt.Errorf("%s/%s/%s: %w", domain, entity, aspect, ErrNotFound)
	}
	body, ok := raw.([]byte)
	if !ok {
		return fmt.Errorf("%s/%s/%s: corrupt cache entry", domain, entity, aspect)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal %s/%s/%s: %w", domain, entity, aspect, err)
	}
	return nil
}

// PutTension seeds the cache with a tension so LoadTension can later
// find it — CacheStore does not own tension creation (spec: tensions
// are owned externally), this is the test/reference-hosting seam.
func (s *CacheStore) PutTension(tension reasoning.Tension) error {
	return s.put(domainTensions, tension.ID, "spec", tension)
}

func (s *CacheStore) LoadTension(_ context.Context, id string) (reasoning.Tension, error) {
	var tension reasoning.Tension
	err := s.get(domainTensions, id, "spec", &tension)
	return tension, err
}

func (s *CacheStore) SaveAnalysis(_ context.Context, tensionID string, analysis reasoning.TensionAnalysis) error {
	return s.put(domainAnalyses, tensionID, "analysis", analysis)
}

func (s *CacheStore) SaveSolutions(_ context.Context, tensionID string, solutions []reasoning.GeneratedSolution) error {
	return s.put(domainSolutions, tensionID, "solutions", solutions)
}

func (s *CacheStore) SavePriorityResult(_ context.Context, tensionID string, result reasoning.PriorityCalculationResult) error {
	return s.put(domainPriority, tensionID, "result", result)
}

func (s *CacheStore) SaveEvolutionHistory(_ context.Context, agentID string, entry evolution.EvolutionResult) error {
	key := fmt.Sprintf("%s_%d", agentID, entry.EvolvedAt.UnixNano())
	return s.put(domainEvolution, agentID, key, entry)
}

// natsResult is the subset of natsclient's Post/Get response shape
// NatsStore consumes, repackaged so the seam fields below name a local
// type instead of natsclient's own response struct.
type natsResult struct {
	Status   int
	ErrorStr string
	Data     []byte
}

// rdidCache remembers each entity's resolved RDID so store/retrieve
// calls against the same entity don't repeat a RelationRetrieve round
// trip every time, unlike the teacher's storeData/retrieveData which
// re-resolves the RDID on every single call.
type rdidCache struct {
	mu  sync.Mutex
	ids map[string]string
}

func newRDIDCache() *rdidCache {
	return &rdidCache{ids: make(map[string]string)}
}

func (c *rdidCache) get(entity string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rdid, ok := c.ids[entity]
	return rdid, ok
}

func (c *rdidCache) set(entity, rdid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids[entity] = rdid
}

// NatsStore persists through a natsclient-backed entity store, adapted
// from the teacher's Engine.storeData/retrieveData pattern (engine.go)
// and retargeted at the reasoning-core domains above instead of the
// teacher's Agents/Tasks/Contracts domains. Its natsclient calls are
// reached through unexported function fields rather than calling the nc
// package directly, so tests can drive the Store interface against a
// fake transport without a live NATS server.
type NatsStore struct {
	server string
	token  nc.APIToken
	rdids  *rdidCache

	relationRetrieve func(server, entity string, token nc.APIToken) (string, int)
	relationRegister func(server, entity string, token nc.APIToken, op string) (string, int)
	post             func(server, domain, entity, aspect, rdid string, data []byte, token nc.APIToken) natsResult
	get              func(server, domain, entity, aspect, rdid string, token nc.APIToken) natsResult
}

// NewNatsStore wraps an already-authenticated server topic and token
// (see the teacher's Engine.NewEngine for the connect/login sequence
// this assumes has already run) behind the real natsclient calls.
func NewNatsStore(server string, token nc.APIToken) *NatsStore {
	return &NatsStore{
		server: server,
		token:  token,
		rdids:  newRDIDCache(),
		relationRetrieve: func(server, entity string, token nc.APIToken) (string, int) {
			rdid, status := nc.RelationRetrieve(server, entity, token)
			return rdid, int(status)
		},
		relationRegister: func(server, entity string, token nc.APIToken, op string) (string, int) {
			rdid, status := nc.RelationRegister(server, entity, token, op)
			return rdid, int(status)
		},
		post: func(server, domain, entity, aspect, rdid string, data []byte, token nc.APIToken) natsResult {
			dflags := make(map[string]interface{})
			nc.SetDomain(dflags, domain)
			nc.SetEntity(dflags, entity)
			nc.SetRDID(dflags, rdid)
			nc.SetAspect(dflags, aspect)
			rsp := nc.Post(server, data, dflags, token)
			return natsResult{Status: int(rsp.Header.Status), ErrorStr: rsp.Header.ErrorStr, Data: rsp.Response}
		},
		get: func(server, domain, entity, aspect, rdid string, token nc.APIToken) natsResult {
			dflags := make(map[string]interface{})
			nc.SetDomain(dflags, domain)
			nc.SetEntity(dflags, entity)
			nc.SetRDID(dflags, rdid)
			nc.SetAspect(dflags, aspect)
			nc.SetTag(dflags, "data")
			nc.SetTimestamp(dflags, "latest")
			rsp := nc.Get(server, dflags, token)
			return natsResult{Status: int(rsp.Header.Status), ErrorStr: rsp.Header.ErrorStr, Data: rsp.Response}
		},
	}
}

// resolveRDID resolves entity's RDID, consulting the cache first.
// autoRegister controls whether a missing RDID is created on the spot
// (appropriate when about to write) or treated as not-found (reads
// should never conjure a relation that was never written).
func (s *NatsStore) resolveRDID(ctx context.Context, entity string, autoRegister bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if rdid, ok := s.rdids.get(entity); ok {
		return rdid, nil
	}
	rdid, status := s.relationRetrieve(s.server, entity, s.token)
	if status == 200 {
		s.rdids.set(entity, rdid)
		return rdid, nil
	}
	if !autoRegister {
		return "", fmt.Errorf("%w: no RDID for %s (status %d)", ErrOracleUnavailable, entity, status)
	}
	rdid, status = s.relationRegister(s.server, entity, s.token, "write")
	if status != 200 {
		return "", fmt.Errorf("%w: establish RDID for %s (status %d)", ErrOracleUnavailable, entity, status)
	}
	s.rdids.set(entity, rdid)
	return rdid, nil
}

func (s *NatsStore) storeData(ctx context.Context, domain, entity, aspect string, data []byte) error {
	rdid, err := s.resolveRDID(ctx, entity, true)
	if err != nil {
		return err
	}
	rsp := s.post(s.server, domain, entity, aspect, rdid, data, s.token)
	if rsp.Status != 200 {
		return fmt.Errorf("%w: store %s/%s/%s: %s", ErrOracleUnavailable, domain, entity, aspect, rsp.ErrorStr)
	}
	return nil
}

func (s *NatsStore) retrieveData(ctx context.Context, domain, entity, aspect string) ([]byte, error) {
	rdid, err := s.resolveRDID(ctx, entity, false)
	if err != nil {
		return nil, err
	}
	rsp := s.get(s.server, domain, entity, aspect, rdid, s.token)
	if rsp.Status != 200 {
		return nil, fmt.Errorf("%w: retrieve %s/%s/%s: %s", ErrOracleUnavailable, domain, entity, aspect, rsp.ErrorStr)
	}
	return rsp.Data, nil
}

func (s *NatsStore) LoadTension(ctx context.Context, id string) (reasoning.Tension, error) {
	var tension reasoning.Tension
	data, err := s.retrieveData(ctx, domainTensions, id, "spec")
	if err != nil {
		return tension, err
	}
	if err := json.Unmarshal(data, &tension); err != nil {
		return tension, fmt.Errorf("unmarshal tension %s: %w", id, err)
	}
	return tension, nil
}

func (s *NatsStore) SaveAnalysis(ctx context.Context, tensionID string, analysis reasoning.TensionAnalysis) error {
	body, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis for %s: %w", tensionID, err)
	}
	return s.storeData(ctx, domainAnalyses, tensionID, "analysis", body)
}

func (s *NatsStore) SaveSolutions(ctx context.Context, tensionID string, solutions []reasoning.GeneratedSolution) error {
	body, err := json.Marshal(solutions)
	if err != nil {
		return fmt.Errorf("marshal solutions for %s: %w", tensionID, err)
	}
	return s.storeData(ctx, domainSolutions, tensionID, "solutions", body)
}

func (s *NatsStore) SavePriorityResult(ctx context.Context, tensionID string, result reasoning.PriorityCalculationResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal priority result for %s: %w", tensionID, err)
	}
	return s.storeData(ctx, domainPriority, tensionID, "result", body)
}

func (s *NatsStore) SaveEvolutionHistory(ctx context.Context, agentID string, entry evolution.EvolutionResult) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal evolution entry for %s: %w", agentID, err)
	}
	key := fmt.Sprintf("%d", entry.EvolvedAt.UnixNano())
	return s.storeData(ctx, domainEvolution, agentID, key, body)
}
