// internal/cache/cache.go
// Package cache provides the artifact cache shared by the resolver and the
// session layer. The cache is an explicit injected object rather than ambient
// package state so tests can substitute a fresh instance per case.
package cache

import (
	"sync"

	"github.com/ArchiveLens/archivelens-explorer-go/internal/model"
)

// Cache is a key-value store from (artifactType, videoId) to a resolved
// payload. Entries are populated on first successful resolution and never
// invalidated or expired during a session; Clear is called only on an
// explicit full reset. Nil payloads are never stored, which leaves room for
// a later retry when a source appears mid-session.
type Cache interface {
	// Get returns the cached payload for the key and whether it was present.
	Get(t model.ArtifactType, id string) (any, bool)
	// Set stores a payload for the key. Storing nil is a no-op.
	Set(t model.ArtifactType, id string, payload any)
	// Len reports the number of cached entries.
	Len() int
	// Clear drops every entry.
	Clear()
}

// key is the composite cache key.
type key struct {
	t  model.ArtifactType
	id string
}

// memory implements Cache with a mutex-guarded map. Resolution runs from
// concurrent request handlers, so unlike the single-threaded original the Go
// rendition locks around map access. Two in-flight resolutions for the same
// key may still both run the fallback chain; the operations are idempotent
// reads, so last-write-wins is fine.
type memory struct {
	mu      sync.RWMutex
	entries map[key]any
}

// NewMemory creates an empty in-memory artifact cache.
func NewMemory() Cache {
	return &memory{entries: make(map[key]any)}
}

func (m *memory) Get(t model.ArtifactType, id string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.entries[key{t, id}]
	return v, ok
}

func (m *memory) Set(t model.ArtifactType, id string, payload any) {
	if payload == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key{t, id}] = payload
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

func (m *memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[key]any)
}
