package schema

import (
	"bytes"
	"sync"

	"go.uber.org/zap"

	"github.com/arloliu/restructure"
	"github.com/arloliu/restructure/internal/hash"
)

type registryEntry struct {
	src    []byte
	schema *Schema
}

// Registry caches parsed schemas by the fingerprint of their source, so a
// document loaded repeatedly is parsed once. It is safe for concurrent use.
//
// Sources that collide on the fingerprint are parsed on every load and only
// the first one is cached.
type Registry struct {
	mu         sync.RWMutex
	entries    map[uint64]registryEntry
	collisions int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[uint64]registryEntry)}
}

// Load returns the cached schema for src, parsing and caching it on first
// use. Parse failures are not cached.
func (r *Registry) Load(src []byte) (*Schema, error) {
	fp := hash.Fingerprint(src)

	r.mu.RLock()
	e, ok := r.entries[fp]
	r.mu.RUnlock()
	if ok && bytes.Equal(e.src, src) {
		return e.schema, nil
	}

	s, err := Parse(src)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[fp]; ok {
		if bytes.Equal(existing.src, src) {
			return existing.schema, nil
		}

		r.collisions++
		restructure.Logger().Warn("schema fingerprint collision", zap.Uint64("fingerprint", fp))

		return s, nil
	}

	r.entries[fp] = registryEntry{src: bytes.Clone(src), schema: s}
	restructure.Logger().Debug("schema registered", zap.Uint64("fingerprint", fp), zap.Int("cached", len(r.entries)))

	return s, nil
}

// Lookup returns a cached schema by fingerprint.
func (r *Registry) Lookup(fingerprint uint64) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[fingerprint]

	return e.schema, ok
}

// Len returns the number of cached schemas.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Collisions returns how many loads hit a fingerprint cached for a
// different source.
func (r *Registry) Collisions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collisions
}
