package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/google/uuid"
	nats "github.com/nats-io/nats.go"
)

const originKey = "origin"

// Transport is the slice of a NATS connection the bridge uses.
type Transport interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, fn func(data []byte)) (unsubscribe func() error, err error)
	Close()
}

type natsTransport struct {
	nc *nats.Conn
}

// DialNATS connects to url and returns a Transport over the connection.
func DialNATS(url string) (Transport, error) {
	nc, err := nats.Connect(url, nats.Name("storefront"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &natsTransport{nc: nc}, nil
}

func (t *natsTransport) Publish(subject string, data []byte) error {
	return t.nc.Publish(subject, data)
}

func (t *natsTransport) Subscribe(subject string, fn func(data []byte)) (func() error, error) {
	sub, err := t.nc.Subscribe(subject, func(msg *nats.Msg) { fn(msg.Data) })
	if err != nil {
		return nil, err
	}
	return sub.Unsubscribe, nil
}

func (t *natsTransport) Close() {
	_ = t.nc.Drain()
}

// NATSBridge mirrors local envelopes to a NATS subject and republishes envelopes
// from other processes locally, so every CLI sharing a store learns of a lost session.
type NATSBridge struct {
	bus       *Bus
	transport Transport
	subject   string
	origin    string
	logg      *logger.Logger

	mu          sync.Mutex
	unsubLocal  func()
	unsubRemote func() error
}

func NewNATSBridge(bus *Bus, transport Transport, subject string, logg *logger.Logger) *NATSBridge {
	if logg == nil {
		logg = logger.Nop()
	}
	return &NATSBridge{
		bus:       bus,
		transport: transport,
		subject:   subject,
		origin:    uuid.NewString(),
		logg:      logg,
	}
}

// Origin identifies this process on the subject.
func (b *NATSBridge) Origin() string {
	return b.origin
}

// Start forwards TopicSessionInvalidated in both directions.
func (b *NATSBridge) Start(ctx context.Context) error {
	unsubRemote, err := b.transport.Subscribe(b.subject, func(data []byte) { b.receive(ctx, data) })
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", b.subject, err)
	}
	unsubLocal := b.bus.Subscribe(TopicSessionInvalidated, b.forward)

	b.mu.Lock()
	b.unsubRemote = unsubRemote
	b.unsubLocal = unsubLocal
	b.mu.Unlock()
	return nil
}

func (b *NATSBridge) forward(ctx context.Context, ev Envelope) {
	if origin := ev.Metadata[originKey]; origin != "" && origin != b.origin {
		return
	}
	out := ev
	out.Metadata = map[string]string{originKey: b.origin}
	for k, v := range ev.Metadata {
		if k != originKey {
			out.Metadata[k] = v
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		b.logg.Error(ctx, "encode bridged event", err)
		return
	}
	if err := b.transport.Publish(b.subject, data); err != nil {
		b.logg.Error(b.logg.WithField(ctx, "subject", b.subject), "publish bridged event", err)
	}
}

func (b *NATSBridge) receive(ctx context.Context, data []byte) {
	var ev Envelope
	if err := json.Unmarshal(data, &ev); err != nil {
		b.logg.Warn(b.logg.WithField(ctx, "subject", b.subject), "dropping malformed bridged event")
		return
	}
	if ev.Metadata[originKey] == b.origin || ev.Metadata[originKey] == "" {
		return
	}
	b.bus.Publish(ctx, ev)
}

// Close stops forwarding and closes the transport.
func (b *NATSBridge) Close() error {
	b.mu.Lock()
	unsubLocal, unsubRemote := b.unsubLocal, b.unsubRemote
	b.unsubLocal, b.unsubRemote = nil, nil
	b.mu.Unlock()

	if unsubLocal != nil {
		unsubLocal()
	}
	var err error
	if unsubRemote != nil {
		err = unsubRemote()
	}
	b.transport.Close()
	return err
}
