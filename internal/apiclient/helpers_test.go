package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/angelmondragon/storefront/pkg/eventbus"
	"github.com/go-chi/chi/v5"
)

type memTokens struct {
	mu      sync.Mutex
	access  string
	refresh string
	user    json.RawMessage
	cleared int
	stored  int
}

func (m *memTokens) AccessToken(context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access
}

func (m *memTokens) RefreshToken(context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refresh
}

func (m *memTokens) StoreTokens(_ context.Context, access, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access, m.refresh = access, refresh
	m.stored++
	return nil
}

func (m *memTokens) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access, m.refresh, m.user = "", "", nil
	m.cleared++
	return nil
}

type userTokens struct {
	memTokens
}

func (u *userTokens) StoreUser(_ context.Context, raw json.RawMessage) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.user = append(json.RawMessage(nil), raw...)
	return nil
}

func newTestClient(t *testing.T, router chi.Router, tokens TokenSource, opts ...Option) (*Client, *eventbus.Bus) {
	t.Helper()
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	bus := eventbus.New(nil)
	opts = append([]Option{WithEventBus(bus), WithHTTPClient(srv.Client())}, opts...)
	client, err := New(srv.URL+"/api", tokens, opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, bus
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func collectInvalidations(bus *eventbus.Bus) *[]eventbus.SessionInvalidated {
	var seen []eventbus.SessionInvalidated
	bus.Subscribe(eventbus.TopicSessionInvalidated, func(_ context.Context, ev eventbus.Envelope) {
		var payload eventbus.SessionInvalidated
		_ = ev.Decode(&payload)
		seen = append(seen, payload)
	})
	return &seen
}
