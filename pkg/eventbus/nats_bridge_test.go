package eventbus

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopback is an in-memory subject shared by several bridges.
type loopback struct {
	mu   sync.Mutex
	subs map[int]func([]byte)
	next int
	sent int
}

type loopbackTransport struct {
	hub    *loopback
	closed bool
}

func newLoopback() *loopback {
	return &loopback{subs: make(map[int]func([]byte))}
}

func (l *loopback) transport() *loopbackTransport {
	return &loopbackTransport{hub: l}
}

func (t *loopbackTransport) Publish(_ string, data []byte) error {
	t.hub.mu.Lock()
	t.hub.sent++
	fns := make([]func([]byte), 0, len(t.hub.subs))
	for _, fn := range t.hub.subs {
		fns = append(fns, fn)
	}
	t.hub.mu.Unlock()
	for _, fn := range fns {
		fn(data)
	}
	return nil
}

func (t *loopbackTransport) Subscribe(_ string, fn func([]byte)) (func() error, error) {
	t.hub.mu.Lock()
	id := t.hub.next
	t.hub.next++
	t.hub.subs[id] = fn
	t.hub.mu.Unlock()
	return func() error {
		t.hub.mu.Lock()
		delete(t.hub.subs, id)
		t.hub.mu.Unlock()
		return nil
	}, nil
}

func (t *loopbackTransport) Close() { t.closed = true }

func TestNATSBridgeForwardsBetweenProcesses(t *testing.T) {
	ctx := context.Background()
	hub := newLoopback()

	busA, busB := New(nil), New(nil)
	bridgeA := NewNATSBridge(busA, hub.transport(), "storefront.session", nil)
	bridgeB := NewNATSBridge(busB, hub.transport(), "storefront.session", nil)
	require.NoError(t, bridgeA.Start(ctx))
	require.NoError(t, bridgeB.Start(ctx))

	var seenA, seenB int
	busA.Subscribe(TopicSessionInvalidated, func(context.Context, Envelope) { seenA++ })
	busB.Subscribe(TopicSessionInvalidated, func(_ context.Context, ev Envelope) {
		seenB++
		assert.Equal(t, bridgeA.Origin(), ev.Metadata[originKey])
	})

	ev, err := NewEnvelope(TopicSessionInvalidated, "apiclient", SessionInvalidated{Reason: ReasonNoRefreshToken})
	require.NoError(t, err)
	busA.Publish(ctx, ev)

	assert.Equal(t, 1, seenA, "local delivery happens once")
	assert.Equal(t, 1, seenB, "remote process receives the event once")
	assert.Equal(t, 1, hub.sent, "republished events are not echoed back")

	require.NoError(t, bridgeA.Close())
	require.NoError(t, bridgeB.Close())

	busA.Publish(ctx, ev)
	assert.Equal(t, 1, seenB)
}

func TestNATSBridgeDropsMalformedMessages(t *testing.T) {
	hub := newLoopback()
	bus := New(nil)
	bridge := NewNATSBridge(bus, hub.transport(), "s", nil)
	require.NoError(t, bridge.Start(context.Background()))
	defer bridge.Close()

	called := false
	bus.Subscribe("", func(context.Context, Envelope) { called = true })

	other := hub.transport()
	require.NoError(t, other.Publish("s", []byte("{not json")))
	require.NoError(t, other.Publish("s", []byte(`{"topic":"session.invalidated"}`)))
	assert.False(t, called)
}
