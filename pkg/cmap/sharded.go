package cmap

import (
	"sort"
	"strings"
	"sync"

	"github.com/spaolacci/murmur3"
)

// DefaultShardCount is used when no valid count is given.
const DefaultShardCount = 16

// Map is a concurrent map from string keys to V.
type Map[V any] struct {
	shards []*shard[V]
	mask   uint64
}

type shard[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

// New creates a map with DefaultShardCount shards.
func New[V any]() *Map[V] {
	return NewWithShards[V](DefaultShardCount)
}

// NewWithShards creates a map with n shards. n must be a power of two;
// other values fall back to DefaultShardCount.
func NewWithShards[V any](n int) *Map[V] {
	if n <= 0 || n&(n-1) != 0 {
		n = DefaultShardCount
	}
	m := &Map[V]{
		shards: make([]*shard[V], n),
		mask:   uint64(n - 1),
	}
	for i := range m.shards {
		m.shards[i] = &shard[V]{items: make(map[string]V)}
	}
	return m
}

// ShardFor returns the shard index key maps to.
func (m *Map[V]) ShardFor(key string) int {
	return int(murmur3.Sum64([]byte(key)) & m.mask)
}

func (m *Map[V]) shard(key string) *shard[V] {
	return m.shards[m.ShardFor(key)]
}

// Get returns the value stored under key.
func (m *Map[V]) Get(key string) (V, bool) {
	s := m.shard(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (m *Map[V]) Set(key string, value V) {
	s := m.shard(key)
	s.mu.Lock()
	s.items[key] = value
	s.mu.Unlock()
}

// SetIfAbsent stores value only when key is unused and reports whether
// it did.
func (m *Map[V]) SetIfAbsent(key string, value V) bool {
	s := m.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; ok {
		return false
	}
	s.items[key] = value
	return true
}

// Delete removes key.
func (m *Map[V]) Delete(key string) {
	s := m.shard(key)
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

// Count returns the number of keys.
func (m *Map[V]) Count() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}

// Range calls fn for every pair until fn returns false. fn must not
// write to the map.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// KeysWithPrefix returns the keys starting with prefix in sorted order.
func (m *Map[V]) KeysWithPrefix(prefix string) []string {
	var keys []string
	m.Range(func(k string, _ V) bool {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
		return true
	})
	sort.Strings(keys)
	return keys
}

// Clear removes every key.
func (m *Map[V]) Clear() {
	for _, s := range m.shards {
		s.mu.Lock()
		s.items = make(map[string]V)
		s.mu.Unlock()
	}
}
