package oidc

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Store defines the key/value persistence used for the current User (and by
// the protocol package for pending request state).
//
// Implementations must be concurrently safe.
type Store interface {
	// Get returns the value stored for key, or ErrNotFound when there isn't
	// one.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value for key, replacing any existing value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes the value for key.  Removing a missing key is not an
	// error.
	Remove(ctx context.Context, key string) error
}

// DefaultMemoryStoreSize is the number of entries a MemoryStore holds when no
// size is given.
const DefaultMemoryStoreSize = 256

// MemoryStore is an in-memory Store which evicts the least recently used
// entries once it's full.  It's the default Store for a UserManager and is
// appropriate for single process use (CLIs, tests); every user is logged out
// when the process exits.
type MemoryStore struct {
	cache *lru.Cache[string, string]
}

// ensure that MemoryStore implements the Store interface
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a MemoryStore holding at most size entries.  A size
// of zero uses DefaultMemoryStoreSize.
func NewMemoryStore(size int) (*MemoryStore, error) {
	const op = "NewMemoryStore"
	if size < 0 {
		return nil, fmt.Errorf("%s: size %d is negative: %w", op, size, ErrInvalidParameter)
	}
	if size == 0 {
		size = DefaultMemoryStoreSize
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create cache: %w", op, err)
	}
	return &MemoryStore{cache: c}, nil
}

// Get implements the Store interface.
func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	const op = "MemoryStore.Get"
	v, ok := s.cache.Get(key)
	if !ok {
		return "", fmt.Errorf("%s: %s: %w", op, key, ErrNotFound)
	}
	return v, nil
}

// Set implements the Store interface.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.cache.Add(key, value)
	return nil
}

// Remove implements the Store interface.
func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.cache.Remove(key)
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}
