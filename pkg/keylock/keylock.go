// Package keylock provides mutual exclusion scoped to a key.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Mutex serializes callers that use the same key while letting different keys
// proceed in parallel. Entries are released when no caller holds or waits on
// them. The zero value is ready to use.
type Mutex[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
}

// Lock blocks until the lock for key is held and returns its release function.
func (m *Mutex[K]) Lock(key K) (unlock func()) {
	m.mu.Lock()
	if m.entries == nil {
		m.entries = make(map[K]*entry)
	}
	e, ok := m.entries[key]
	if !ok {
		e = &entry{}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			m.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(m.entries, key)
			}
			m.mu.Unlock()
		})
	}
}

// Len reports the number of keys currently held or awaited.
func (m *Mutex[K]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
