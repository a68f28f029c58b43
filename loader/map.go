package loader

import (
	"context"
	"maps"
	"sync"
)

// Map loads sources from memory. It is safe for concurrent use.
type Map struct {
	mu      sync.RWMutex
	sources map[string]string
}

// NewMap returns a loader serving a copy of sources.
func NewMap(sources map[string]string) *Map {
	m := &Map{sources: make(map[string]string, len(sources))}
	maps.Copy(m.sources, sources)

	return m
}

// Set adds or replaces the source for location.
func (m *Map) Set(location, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sources == nil {
		m.sources = map[string]string{}
	}

	m.sources[location] = content
}

// Delete removes the source for location.
func (m *Map) Delete(location string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sources, location)
}

// Load implements [Loader].
func (m *Map) Load(_ context.Context, location string) (Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	content, ok := m.sources[location]
	if !ok {
		return Source{}, notFound(location)
	}

	return Source{Location: location, Content: content}, nil
}
