// Package kv is the durable key-value contract the client stores persist through.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("kv: key not found")

// Store is a string-valued key-value store. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// GetJSON decodes the value under key into dest. Missing, unreadable and
// malformed values all report false; callers fall back to an empty state.
func GetJSON(ctx context.Context, store Store, key string, dest any) bool {
	raw, err := store.Get(ctx, key)
	if err != nil || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false
	}
	return true
}

func SetJSON(ctx context.Context, store Store, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return store.Set(ctx, key, string(payload))
}

// GetString returns the value under key, or "" when it is missing or unreadable.
func GetString(ctx context.Context, store Store, key string) string {
	raw, err := store.Get(ctx, key)
	if err != nil {
		return ""
	}
	return raw
}
