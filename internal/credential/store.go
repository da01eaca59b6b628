package credential

import (
	"context"
	"os"
	"strings"

	"docchat/internal/errclass"
	"docchat/internal/kvstore"
)

// Provider acquires the API key for a generation turn.
type Provider interface {
	APIKey(ctx context.Context) (string, error)
}

// Store caches the API key in the key/value store.
type Store struct {
	kv kvstore.Store
}

func NewStore(kv kvstore.Store) *Store { return &Store{kv: kv} }

// Get returns the stored key, or "" when none is stored.
func (s *Store) Get(ctx context.Context) (string, error) {
	v, _, err := s.kv.Get(ctx, kvstore.KeyCredential)
	return v, err
}

func (s *Store) Set(ctx context.Context, key string) error {
	return s.kv.Set(ctx, kvstore.KeyCredential, strings.TrimSpace(key))
}

// Clear drops the cached key, forcing re-entry before the next turn.
func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, kvstore.KeyCredential)
}

// SeedFromEnv stores the value of envName when nothing is stored yet.
func (s *Store) SeedFromEnv(ctx context.Context, envName string) error {
	if envName == "" {
		return nil
	}
	current, err := s.Get(ctx)
	if err != nil || current != "" {
		return err
	}
	if v := strings.TrimSpace(os.Getenv(envName)); v != "" {
		return s.Set(ctx, v)
	}
	return nil
}

// APIKey implements Provider. It fails with errclass.ErrMissingCredential
// when no key is stored.
func (s *Store) APIKey(ctx context.Context) (string, error) {
	v, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", errclass.ErrMissingCredential
	}
	return v, nil
}

// None is the provider for backends that need no key.
type None struct{}

func (None) APIKey(context.Context) (string, error) { return "", nil }
