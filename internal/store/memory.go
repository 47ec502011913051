package store

import (
	"sort"
	"sync"
)

// Memory is an in-memory store for tests and one-shot runs.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*Entry)}
}

// Get retrieves an entry by preset name.
func (m *Memory) Get(name string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[name]; ok {
		return e, nil
	}
	return nil, nil
}

// Put stores an entry under its name.
func (m *Memory) Put(e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.Name] = e
	return nil
}

// Delete removes an entry by preset name.
func (m *Memory) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, name)
	return nil
}

// Names lists the stored preset names in sorted order.
func (m *Memory) Names() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close is a no-op for the memory store.
func (m *Memory) Close() error {
	return nil
}
