package store

import (
	"context"
	"sync"

	"github.com/zilohq/catalog-transform/internal/engine"
)

// Memory is a mutex-guarded in-process store. It backs deployments without a
// database and the test suite. Values are copied on the way in and out so
// callers never share mutable state with the store.
type Memory struct {
	mu sync.RWMutex
	m  map[string]engine.Defaults
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{m: make(map[string]engine.Defaults)}
}

// GetDefaults returns the saved defaults for a template key.
func (s *Memory) GetDefaults(_ context.Context, templateKey string) (engine.Defaults, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.m[templateKey]
	if !ok {
		return engine.Defaults{}, false, nil
	}
	return copyDefaults(d), true, nil
}

// PutDefaults replaces the defaults for a template key. The mutex serializes
// concurrent writes; last write wins.
func (s *Memory) PutDefaults(_ context.Context, templateKey string, d engine.Defaults) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m[templateKey] = copyDefaults(d)
	return nil
}

func copyDefaults(d engine.Defaults) engine.Defaults {
	return engine.Defaults{Mapping: d.Mapping.Clone(), Cleanup: d.Cleanup.Clone()}
}
