package store

import (
	"sort"
	"strings"
	"sync"
)

// Medium is the durable key-value substrate records are persisted in.
//
// Get reports ok == false for an absent key. Implementations must be safe for concurrent use.
type Medium interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Lister is implemented by media that can enumerate their keys.
type Lister interface {
	Keys(prefix string) ([]string, error)
}

// Deleter is implemented by media that can remove a key. Deleting an absent key is not an error.
type Deleter interface {
	Delete(key string) error
}

// MemoryMedium is an in-process [Medium] with an optional byte quota, modelling browser storage.
type MemoryMedium struct {
	mu      sync.RWMutex
	entries map[string]string
	quota   int
	used    int
}

// NewMemoryMedium creates an empty [MemoryMedium]. A quota of zero means unlimited.
//
// Usage is counted as len(key) + len(value) for every entry.
func NewMemoryMedium(quota int) *MemoryMedium {
	return &MemoryMedium{entries: make(map[string]string), quota: quota}
}

func (m *MemoryMedium) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.entries[key]
	return v, ok, nil
}

// Set stores value under key, failing with [ErrQuotaExceeded] when the write would exceed the quota.
func (m *MemoryMedium) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used + len(value)
	if old, ok := m.entries[key]; ok {
		used -= len(old)
	} else {
		used += len(key)
	}

	if m.quota > 0 && used > m.quota {
		return ErrQuotaExceeded
	}

	m.entries[key] = value
	m.used = used
	return nil
}

// Keys returns all keys starting with prefix in lexical order.
func (m *MemoryMedium) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := []string{}
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete removes key and returns its bytes to the quota.
func (m *MemoryMedium) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.entries[key]; ok {
		m.used -= len(key) + len(old)
		delete(m.entries, key)
	}
	return nil
}

// Used returns the number of bytes counted against the quota.
func (m *MemoryMedium) Used() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used
}
