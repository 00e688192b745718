package kv

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/angelmondragon/storefront/pkg/security"
)

// SaltKey holds the Argon2id salt of a sealed store, unencrypted.
const SaltKey = "storefront_seal_salt"

// Sealed encrypts every value written to the wrapped store.
type Sealed struct {
	inner  Store
	sealer *security.Sealer
}

// NewSealed wraps inner, creating and persisting a salt on first use.
func NewSealed(ctx context.Context, inner Store, passphrase string, params security.ArgonParams) (*Sealed, error) {
	salt, err := loadSalt(ctx, inner)
	if err != nil {
		return nil, err
	}
	sealer, err := security.NewSealer(passphrase, salt, params)
	if err != nil {
		return nil, err
	}
	return &Sealed{inner: inner, sealer: sealer}, nil
}

func loadSalt(ctx context.Context, inner Store) ([]byte, error) {
	encoded, err := inner.Get(ctx, SaltKey)
	if err == nil {
		if salt, decodeErr := base64.RawStdEncoding.DecodeString(encoded); decodeErr == nil && len(salt) == security.SaltLen {
			return salt, nil
		}
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("read salt: %w", err)
	}

	salt, err := security.NewSalt()
	if err != nil {
		return nil, err
	}
	if err := inner.Set(ctx, SaltKey, base64.RawStdEncoding.EncodeToString(salt)); err != nil {
		return nil, fmt.Errorf("write salt: %w", err)
	}
	return salt, nil
}

// Get reports ErrNotFound for values that fail to open.
func (s *Sealed) Get(ctx context.Context, key string) (string, error) {
	raw, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}
	plain, err := s.sealer.Open(key, raw)
	if err != nil {
		return "", ErrNotFound
	}
	return plain, nil
}

func (s *Sealed) Set(ctx context.Context, key, value string) error {
	sealed, err := s.sealer.Seal(key, value)
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, key, sealed)
}

func (s *Sealed) Delete(ctx context.Context, keys ...string) error {
	return s.inner.Delete(ctx, keys...)
}

func (s *Sealed) Close() error {
	return s.inner.Close()
}
