package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Refresh outcomes.
const (
	RefreshSuccess   = "success"
	RefreshFailure   = "failure"
	RefreshNoToken   = "no_token"
	MutationCommit   = "committed"
	MutationRollback = "rolled_back"
)

// ClientMetrics records the storefront client's outbound traffic and store activity.
// A nil *ClientMetrics, or one built without a registerer, records nothing.
type ClientMetrics struct {
	requestDuration    *prometheus.HistogramVec
	tokenRefresh       *prometheus.CounterVec
	sessionInvalidated prometheus.Counter
	mutations          *prometheus.CounterVec
}

// NewClientMetrics registers the client metrics on the provided registerer.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	if reg == nil {
		return &ClientMetrics{}
	}
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_http_request_duration_seconds",
		Help:    "Duration of backend API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
	tokenRefresh := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_token_refresh_total",
		Help: "Access token refresh attempts by outcome.",
	}, []string{"outcome"})
	sessionInvalidated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_session_invalidated_total",
		Help: "Sessions cleared after an unrecoverable authorization failure.",
	})
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_optimistic_mutations_total",
		Help: "Optimistic store mutations by store and outcome.",
	}, []string{"store", "outcome"})
	reg.MustRegister(requestDuration, tokenRefresh, sessionInvalidated, mutations)
	return &ClientMetrics{
		requestDuration:    requestDuration,
		tokenRefresh:       tokenRefresh,
		sessionInvalidated: sessionInvalidated,
		mutations:          mutations,
	}
}

// ObserveRequest records one backend round trip. status 0 means the transport failed.
func (c *ClientMetrics) ObserveRequest(method string, status int, duration time.Duration) {
	if c == nil || c.requestDuration == nil {
		return
	}
	c.requestDuration.WithLabelValues(normalizeLabel(method), statusLabel(status)).Observe(duration.Seconds())
}

func (c *ClientMetrics) IncRefresh(outcome string) {
	if c == nil || c.tokenRefresh == nil {
		return
	}
	c.tokenRefresh.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (c *ClientMetrics) IncSessionInvalidated() {
	if c == nil || c.sessionInvalidated == nil {
		return
	}
	c.sessionInvalidated.Inc()
}

func (c *ClientMetrics) IncMutation(store, outcome string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(store), normalizeLabel(outcome)).Inc()
}

func statusLabel(status int) string {
	if status <= 0 {
		return "transport_error"
	}
	return strconv.Itoa(status)
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
