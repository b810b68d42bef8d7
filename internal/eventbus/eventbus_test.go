package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryBus()
	received := make(chan Event, 1)

	_, err := bus.Subscribe(context.Background(), "tensions.created", func(e Event) {
		received <- e
	})
	require.NoError(t, err)

	err = bus.Publish(context.Background(), "tensions.created", Event{Type: TensionCreated, Subject: "tensions.created"})
	require.NoError(t, err)

	select {
	case e := <-received:
		assert.Equal(t, TensionCreated, e.Type)
	default:
		t.Fatal("expected event to be delivered synchronously")
	}
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryBus()
	calls := 0

	sub, err := bus.Subscribe(context.Background(), "agent.error", func(e Event) {
		calls++
	})
	require.NoError(t, err)

	require.NoError(t, sub.Unsubscribe())
	require.NoError(t, bus.Publish(context.Background(), "agent.error", Event{Type: AgentError}))

	assert.Equal(t, 0, calls)
}

func TestMemoryBus_MultipleSubscribersIndependent(t *testing.T) {
	bus := NewMemoryBus()
	var aCalls, bCalls int

	subA, err := bus.Subscribe(context.Background(), "x", func(e Event) { aCalls++ })
	require.NoError(t, err)
	_, err = bus.Subscribe(context.Background(), "x", func(e Event) { bCalls++ })
	require.NoError(t, err)

	require.NoError(t, subA.Unsubscribe())
	require.NoError(t, bus.Publish(context.Background(), "x", Event{}))

	assert.Equal(t, 0, aCalls)
	assert.Equal(t, 1, bCalls)
}
