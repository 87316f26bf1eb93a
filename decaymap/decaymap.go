// Package decaymap is a lazily evicted map where entries expire after a
// per-entry time to live.
package decaymap

import (
	"sync"
	"time"
)

// Zilch returns the zero value of any type.
func Zilch[T any]() T { return *new(T) }

type entry[V any] struct {
	value  V
	expiry time.Time
}

// Impl is a map of K to V with expiring entries. Expired entries are
// evicted lazily on Get or in bulk via Cleanup.
type Impl[K comparable, V any] struct {
	data map[K]entry[V]
	lock sync.RWMutex
}

func New[K comparable, V any]() *Impl[K, V] {
	return &Impl[K, V]{
		data: map[K]entry[V]{},
	}
}

// Get returns the value for key if it exists and has not expired.
func (m *Impl[K, V]) Get(key K) (V, bool) {
	m.lock.RLock()
	e, ok := m.data[key]
	m.lock.RUnlock()

	if !ok {
		return Zilch[V](), false
	}

	if time.Now().After(e.expiry) {
		m.lock.Lock()
		// Re-check in case another goroutine wrote a fresh entry while
		// we waited for the write lock.
		if e2, ok := m.data[key]; ok && time.Now().After(e2.expiry) {
			delete(m.data, key)
		}
		m.lock.Unlock()
		return Zilch[V](), false
	}

	return e.value, true
}

// Set stores value under key for ttl.
func (m *Impl[K, V]) Set(key K, value V, ttl time.Duration) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.data[key] = entry[V]{
		value:  value,
		expiry: time.Now().Add(ttl),
	}
}

// Delete removes key from the map, reporting whether it was present.
func (m *Impl[K, V]) Delete(key K) bool {
	m.lock.Lock()
	defer m.lock.Unlock()

	_, ok := m.data[key]
	if ok {
		delete(m.data, key)
	}
	return ok
}

// Cleanup removes every expired entry.
func (m *Impl[K, V]) Cleanup() {
	now := time.Now()

	m.lock.Lock()
	defer m.lock.Unlock()

	for key, e := range m.data {
		if now.After(e.expiry) {
			delete(m.data, key)
		}
	}
}

// Len returns the number of entries, including any not yet evicted.
func (m *Impl[K, V]) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.data)
}
