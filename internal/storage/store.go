package storage

import (
	"sort"
	"sync"
)

// Record is the last known state of one key on one node. Records are
// copied, never shared by reference across nodes.
type Record struct {
	Value     string
	Timestamp float64
}

// Store defines the interface for keyed record storage.
type Store interface {
	// Get retrieves the record for a key.
	Get(key string) (Record, bool)
	// Put applies a record using last-write-wins. Returns true if the
	// record was applied, false if it was stale.
	Put(key, value string, timestamp float64) bool
	// Keys returns all stored keys, sorted.
	Keys() []string
	// Snapshot returns the full key to value mapping, timestamps stripped.
	Snapshot() map[string]string
	// Len returns the number of stored keys.
	Len() int
	// Clear resets the store to empty.
	Clear()
}

// MemStore is an in-memory implementation of Store. It's thread-safe.
type MemStore struct {
	mu   sync.RWMutex
	data map[string]Record
}

// NewMemStore creates a new empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]Record)}
}

// Get retrieves the record for a key.
func (s *MemStore) Get(key string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[key]
	return rec, ok
}

// Put overwrites the record iff the key is absent or the incoming
// timestamp is strictly greater than the stored one. Equal timestamps
// are stale: the existing value wins.
func (s *MemStore) Put(key, value string, timestamp float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.data[key]; ok && timestamp <= existing.Timestamp {
		return false
	}
	s.data[key] = Record{Value: value, Timestamp: timestamp}
	return true
}

// Keys returns all stored keys in sorted order.
func (s *MemStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns the full key to value mapping without timestamps,
// for cross-node consistency comparison.
func (s *MemStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := make(map[string]string, len(s.data))
	for k, rec := range s.data {
		data[k] = rec.Value
	}
	return data
}

// Len returns the number of stored keys.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Clear resets the store to empty. Used for test isolation.
func (s *MemStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]Record)
}
