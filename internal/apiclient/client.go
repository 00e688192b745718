// Package apiclient is the single choke point for backend calls. It attaches the
// bearer credential and, on a 401, refreshes the token pair and replays the request once.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/eventbus"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/google/uuid"
)

const (
	defaultRefreshPath          = "/users/refresh-token"
	defaultUserAgent            = "storefront-cli"
	responseBodyReadLimit int64 = 8 << 20
	headerRequestID             = "X-Request-ID"
	eventSource                 = "apiclient"
)

var (
	errBaseURLRequired = errors.New("api base url is required")
	errTokensRequired  = errors.New("token source is required")
)

// TokenSource is where the client reads and rotates credentials.
type TokenSource interface {
	AccessToken(ctx context.Context) string
	RefreshToken(ctx context.Context) string
	StoreTokens(ctx context.Context, access, refresh string) error
	Clear(ctx context.Context) error
}

// Client talks to the marketplace backend.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	tokens      TokenSource
	refreshPath string
	userAgent   string
	logg        *logger.Logger
	metrics     *metrics.ClientMetrics
	bus         *eventbus.Bus

	refreshMu sync.Mutex
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		if logg != nil {
			c.logg = logg
		}
	}
}

func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithEventBus sets where session invalidation is announced.
func WithEventBus(bus *eventbus.Bus) Option {
	return func(c *Client) {
		c.bus = bus
	}
}

// WithRefreshPath overrides the token refresh endpoint.
func WithRefreshPath(path string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			c.refreshPath = trimmed
		}
	}
}

func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(agent); trimmed != "" {
			c.userAgent = trimmed
		}
	}
}

// New builds a client for the API rooted at baseURL.
func New(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if tokens == nil {
		return nil, errTokensRequired
	}

	client := &Client{
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		baseURL:     trimmed,
		tokens:      tokens,
		refreshPath: defaultRefreshPath,
		userAgent:   defaultUserAgent,
		logg:        logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Do sends req. A 401 on a request that carried an access token triggers one
// refresh-and-replay; any other non-2xx status comes back as a *pkgerrors.Error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	access := ""
	if !req.Anonymous {
		access = c.tokens.AccessToken(ctx)
	}

	resp, err := c.send(ctx, req, access)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusUnauthorized || access == "" {
		return resp.result()
	}

	_, originalErr := resp.result()
	fresh, refreshErr := c.refresh(ctx, access)
	if refreshErr != nil {
		return nil, originalErr
	}

	replay, err := c.send(ctx, req, fresh)
	if err != nil {
		return nil, err
	}
	return replay.result()
}

func (c *Client) send(ctx context.Context, req Request, access string) (*Response, error) {
	requestID := uuid.NewString()
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"request_id": requestID,
		"method":     req.Method,
		"path":       req.Path,
	})

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.buildURL(req.Path, req.Query), bodyReader(req.Body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set(headerRequestID, requestID)
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if access != "" {
		httpReq.Header.Set("Authorization", "Bearer "+access)
	}

	started := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.ObserveRequest(req.Method, 0, time.Since(started))
		c.logg.Warn(logCtx, "backend request failed before a response")
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransport, err, fmt.Sprintf("%s %s", req.Method, req.Path))
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, responseBodyReadLimit))
	elapsed := time.Since(started)
	c.metrics.ObserveRequest(req.Method, httpResp.StatusCode, elapsed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransport, err, "read response body")
	}

	c.logg.Debug(c.logg.WithFields(logCtx, map[string]any{
		"status":      httpResp.StatusCode,
		"duration_ms": elapsed.Milliseconds(),
	}), "backend request")

	return &Response{Status: httpResp.StatusCode, Header: httpResp.Header, Body: body}, nil
}

func (c *Client) buildURL(path string, query url.Values) string {
	full := fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full
}

func bodyReader(body []byte) io.Reader {
	if body == nil {
		return nil
	}
	return bytes.NewReader(body)
}
