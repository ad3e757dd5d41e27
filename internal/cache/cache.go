// Package cache keeps the vault session token between runs.
//
// Every implementation is advisory: a Get may miss at any time and callers
// must be prepared to re-authenticate. Nothing here is safe against two
// processes writing the same key concurrently.
package cache

import (
	"errors"
	"sync"
)

// ErrMiss is returned by Get when no value is stored for a key.
var ErrMiss = errors.New("cache miss")

// Cache is a small key-value store for session tokens. Put with an empty
// value is a no-op.
type Cache interface {
	Get(key string) (string, error)
	Put(key, value string) error
	Delete(key string) error
}

// Memory is a process-local Cache.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory returns an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

func (m *Memory) Put(key, value string) error {
	if value == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
