package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/angelmondragon/storefront/pkg/kv"
	"go.uber.org/multierr"
)

// Storage keys shared with earlier clients of the same backend.
const (
	KeyAccessToken  = "token"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "game_manager_user"
)

// Credentials persists the token pair and the signed-in user. It satisfies
// apiclient.TokenSource and apiclient.UserSink.
type Credentials struct {
	store kv.Store
}

func NewCredentials(store kv.Store) (*Credentials, error) {
	if store == nil {
		return nil, errors.New("credentials store is required")
	}
	return &Credentials{store: store}, nil
}

func (c *Credentials) AccessToken(ctx context.Context) string {
	return kv.GetString(ctx, c.store, KeyAccessToken)
}

func (c *Credentials) RefreshToken(ctx context.Context) string {
	return kv.GetString(ctx, c.store, KeyRefreshToken)
}

// StoreTokens writes the pair; an empty refresh token removes the stored one.
func (c *Credentials) StoreTokens(ctx context.Context, access, refresh string) error {
	if err := c.store.Set(ctx, KeyAccessToken, access); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	if refresh == "" {
		return c.store.Delete(ctx, KeyRefreshToken)
	}
	if err := c.store.Set(ctx, KeyRefreshToken, refresh); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// StoreUser keeps a user payload handed back by the token refresh endpoint.
func (c *Credentials) StoreUser(ctx context.Context, raw json.RawMessage) error {
	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return fmt.Errorf("decode user: %w", err)
	}
	return c.SaveUser(ctx, user)
}

func (c *Credentials) SaveUser(ctx context.Context, user User) error {
	return kv.SetJSON(ctx, c.store, KeyUser, user)
}

// User returns the stored user. Missing, malformed and id-less values report false.
func (c *Credentials) User(ctx context.Context) (User, bool) {
	var user User
	if !kv.GetJSON(ctx, c.store, KeyUser, &user) || !user.valid() {
		return User{}, false
	}
	return user, true
}

func (c *Credentials) ClearUser(ctx context.Context) error {
	return c.store.Delete(ctx, KeyUser)
}

// Save persists a full login result.
func (c *Credentials) Save(ctx context.Context, resp AuthResponse) error {
	if err := c.StoreTokens(ctx, resp.Token, resp.RefreshToken); err != nil {
		return err
	}
	return c.SaveUser(ctx, resp.User)
}

// Clear removes every session key, attempting all of them.
func (c *Credentials) Clear(ctx context.Context) error {
	var err error
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyUser} {
		err = multierr.Append(err, c.store.Delete(ctx, key))
	}
	return err
}
