// Package store is the persistence adapter behind the cart and auth state.
//
// A Store is a flat string key space. Each browser session gets its own
// key space through Scoped, and the cart and auth owners never share a key.
package store

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Store is the key-value contract used by the cart and auth state machines.
// Get reports ok=false for a missing key rather than an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Closer is implemented by backends holding a database handle.
type Closer interface {
	Close() error
}

var ErrEmptyKey = errors.New("store: empty key")

// ---------------------------------------------------------------------------
// Memory
// ---------------------------------------------------------------------------

// Memory is a process-local Store. It is the fallback when no database is
// configured or reachable.
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	m.mu.RLock()
	v, ok := m.items[key]
	m.mu.RUnlock()
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	m.items[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Len is used by tests and the health endpoint.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// ---------------------------------------------------------------------------
// Scoping
// ---------------------------------------------------------------------------

type scoped struct {
	next   Store
	prefix string
}

// Scoped returns a Store whose keys are prefixed with scope and a colon.
// Scoping an already scoped store nests the prefixes.
func Scoped(next Store, scope string) Store {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return next
	}
	return &scoped{next: next, prefix: scope + ":"}
}

func (s *scoped) key(k string) (string, error) {
	if k == "" {
		return "", ErrEmptyKey
	}
	return s.prefix + k, nil
}

func (s *scoped) Get(ctx context.Context, key string) (string, bool, error) {
	k, err := s.key(key)
	if err != nil {
		return "", false, err
	}
	return s.next.Get(ctx, k)
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	k, err := s.key(key)
	if err != nil {
		return err
	}
	return s.next.Set(ctx, k, value)
}

func (s *scoped) Delete(ctx context.Context, key string) error {
	k, err := s.key(key)
	if err != nil {
		return err
	}
	return s.next.Delete(ctx, k)
}
