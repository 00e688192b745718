package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/eventbus"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

var errNoRefreshToken = errors.New("no refresh token held")

// UserSink is implemented by token sources that also keep the user returned
// alongside a refreshed token pair.
type UserSink interface {
	StoreUser(ctx context.Context, raw json.RawMessage) error
}

type refreshResponse struct {
	Token        string          `json:"token"`
	RefreshToken string          `json:"refreshToken"`
	User         json.RawMessage `json:"user"`
}

// refresh rotates the token pair after failedAccess was rejected. Concurrent callers
// queue on refreshMu; a caller that finds the access token already rotated reuses it.
func (c *Client) refresh(ctx context.Context, failedAccess string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if current := c.tokens.AccessToken(ctx); current != "" && current != failedAccess {
		return current, nil
	}

	refreshToken := c.tokens.RefreshToken(ctx)
	if refreshToken == "" {
		c.metrics.IncRefresh(metrics.RefreshNoToken)
		c.invalidate(ctx, eventbus.ReasonNoRefreshToken)
		return "", errNoRefreshToken
	}

	req, err := JSONRequest(http.MethodPost, c.refreshPath, map[string]string{"token": refreshToken})
	if err != nil {
		return "", err
	}
	req.Anonymous = true

	var out refreshResponse
	err = c.DoJSON(ctx, req, &out)
	if err == nil && out.Token == "" {
		err = pkgerrors.New(pkgerrors.CodeDependency, "refresh response carried no token")
	}
	if err != nil {
		c.metrics.IncRefresh(metrics.RefreshFailure)
		c.logg.Error(ctx, "token refresh failed", err)
		c.invalidate(ctx, eventbus.ReasonRefreshFailed)
		return "", err
	}

	if out.RefreshToken == "" {
		out.RefreshToken = refreshToken
	}
	if err := c.tokens.StoreTokens(ctx, out.Token, out.RefreshToken); err != nil {
		c.logg.Error(ctx, "persist refreshed tokens", err)
	}
	if sink, ok := c.tokens.(UserSink); ok && len(out.User) > 0 && string(out.User) != "null" {
		if err := sink.StoreUser(ctx, out.User); err != nil {
			c.logg.Error(ctx, "persist refreshed user", err)
		}
	}

	c.metrics.IncRefresh(metrics.RefreshSuccess)
	c.logg.Info(ctx, "access token refreshed")
	return out.Token, nil
}

// invalidate clears credentials and announces it; nobody is navigated anywhere.
func (c *Client) invalidate(ctx context.Context, reason string) {
	if err := c.tokens.Clear(ctx); err != nil {
		c.logg.Error(ctx, "clear session after auth failure", err)
	}
	c.metrics.IncSessionInvalidated()
	c.logg.Warn(c.logg.WithField(ctx, "reason", reason), "session invalidated")

	if c.bus == nil {
		return
	}
	ev, err := eventbus.NewEnvelope(eventbus.TopicSessionInvalidated, eventSource, eventbus.SessionInvalidated{Reason: reason})
	if err != nil {
		c.logg.Error(ctx, "build session invalidated event", err)
		return
	}
	c.bus.Publish(ctx, ev)
}
