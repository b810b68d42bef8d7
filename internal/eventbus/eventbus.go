// Package eventbus implements the external event bus contract (spec
// §6.3): a typed event stream agents subscribe to, with NATS-backed and
// in-process implementations. Grounded on the teacher's engine.go
// pub/sub loop shape (InitChannel/SecureChannelPublish/
// SecureChannelQueueSubscribe), adapted from per-task monitoring
// channels to a fixed set of reasoning-core subjects; unlike the
// teacher's channels, NatsBus carries no RDID-scoped access control —
// see internal/store's NatsStore for where that natsclient capability
// actually gets used.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
)

// EventType enumerates spec §6.3's event stream verbatim.
type EventType string

const (
	TensionCreated         EventType = "TensionCreated"
	TensionUpdated         EventType = "TensionUpdated"
	TaskCreated            EventType = "TaskCreated"
	CodeReviewRequested    EventType = "CodeReviewRequested"
	DeploymentRequested    EventType = "DeploymentRequested"
	BugReported            EventType = "BugReported"
	FeatureRequested       EventType = "FeatureRequested"
	DataUpdated            EventType = "DataUpdated"
	AnalysisRequested      EventType = "AnalysisRequested"
	ReportGenerated        EventType = "ReportGenerated"
	IntegrationRequested   EventType = "IntegrationRequested"
	ApiCallFailed          EventType = "ApiCallFailed"
	DataSyncCompleted      EventType = "DataSyncCompleted"
	ResearchRequested      EventType = "ResearchRequested"
	KnowledgeUpdated       EventType = "KnowledgeUpdated"
	TrendDetected          EventType = "TrendDetected"
	UserFeedbackReceived   EventType = "UserFeedbackReceived"
	DesignUpdated          EventType = "DesignUpdated"
	UsabilityTestCompleted EventType = "UsabilityTestCompleted"
	AgentError             EventType = "AgentError"
)

// Event is one message on the bus: a typed event with an opaque payload
// (spec §6.3: "the core does not persist events but reacts to them").
type Event struct {
	Type    EventType      `json:"type"`
	Subject string         `json:"subject"`
	Payload map[string]any `json:"payload"`
}

// Subscription can be cancelled to stop receiving events.
type Subscription interface {
	Unsubscribe() error
}

// Bus is the external event bus contract (spec §6.3).
type Bus interface {
	Publish(ctx context.Context, subject string, event Event) error
	Subscribe(ctx context.Context, subject string, handler func(Event)) (Subscription, error)
}

// MemoryBus is an in-process Bus with no external dependency, used for
// tests and single-process hosting (spec SPEC_FULL.md §4 design note).
type MemoryBus struct {
	mu          sync.RWMutex
	nextID      uint64
	subscribers map[string]map[uint64]func(Event)
}

// NewMemoryBus returns an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subscribers: make(map[string]map[uint64]func(Event))}
}

func (b *MemoryBus) Publish(_ context.Context, subject string, event Event) error {
	b.mu.RLock()
	handlers := make([]func(Event), 0, len(b.subscribers[subject]))
	for _, h := range b.subscribers[subject] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()
	for _, h := range handlers {
		h(event)
	}
	return nil
}

type memorySubscription struct {
	bus     *MemoryBus
	subject string
	id      uint64
}

func (s *memorySubscription) Unsubscribe() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.subscribers[s.subject], s.id)
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, subject string, handler func(Event)) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subscribers[subject] == nil {
		b.subscribers[subject] = make(map[uint64]func(Event))
	}
	b.nextID++
	id := b.nextID
	b.subscribers[subject][id] = handler
	return &memorySubscription{bus: b, subject: subject, id: id}, nil
}

// NatsBus is a plain nats.go pub/sub wrapper: transport only, no
// RDID-scoped access control. The natsclient secure-channel path
// (RelationRetrieve/Post/Get under an nc.APIToken) lives in
// internal/store's NatsStore, the component that actually needs
// per-entity authorization; the event stream itself is a fire-and-forget
// broadcast (spec §6.3), so it rides the bare *nats.Conn the caller
// already authenticated.
type NatsBus struct {
	conn *nats.Conn
}

// NewNatsBus wraps an already-connected *nats.Conn.
func NewNatsBus(conn *nats.Conn) *NatsBus {
	return &NatsBus{conn: conn}
}

func (b *NatsBus) Publish(_ context.Context, subject string, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event for %s: %w", subject, err)
	}
	if err := b.conn.Publish(subject, body); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

type natsSubscription struct {
	sub *nats.Subscription
}

func (s *natsSubscription) Unsubscribe() error {
	return s.sub.Unsubscribe()
}

func (b *NatsBus) Subscribe(_ context.Context, subject string, handler func(Event)) (Subscription, error) {
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return
		}
		handler(event)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return &natsSubscription{sub: sub}, nil
}
