package memory

import (
	"context"
	"sync/atomic"

	"github.com/Saiguru2554/Health-Link-Qr/internal/storage"
	"github.com/Saiguru2554/Health-Link-Qr/pkg/cmap"
)

// Store is a concurrent in-memory KV.
type Store struct {
	items  *cmap.Map[[]byte]
	closed atomic.Bool
}

// Option configures the Store.
type Option func(*Store)

// WithShards sets the number of map shards (a power of two).
func WithShards(n int) Option {
	return func(s *Store) {
		s.items = cmap.NewWithShards[[]byte](n)
	}
}

// New creates a new in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		items: cmap.New[[]byte](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, storage.ErrClosed
	}
	v, ok := s.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

// Set stores a key-value pair.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	if key == "" {
		return storage.ErrInvalidKey
	}
	s.items.Set(key, clone(value))
	return nil
}

// SetIfAbsent stores the pair only when the key is unused.
func (s *Store) SetIfAbsent(_ context.Context, key string, value []byte) (bool, error) {
	if s.closed.Load() {
		return false, storage.ErrClosed
	}
	if key == "" {
		return false, storage.ErrInvalidKey
	}
	return s.items.SetIfAbsent(key, clone(value)), nil
}

// Delete removes a key.
func (s *Store) Delete(_ context.Context, key string) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	s.items.Delete(key)
	return nil
}

// Scan iterates over keys with a given prefix in key order.
//
// The key set is snapshotted before the callback runs, so fn may call back
// into the store.
func (s *Store) Scan(ctx context.Context, prefix string, fn func(key string, value []byte) bool) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}

	for _, k := range s.items.KeysWithPrefix(prefix) {
		if err := ctx.Err(); err != nil {
			return err
		}
		v, ok := s.items.Get(k)
		if !ok {
			continue // deleted since the snapshot
		}
		if !fn(k, clone(v)) {
			break
		}
	}
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	return s.items.Count()
}

// Close drops all data.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return storage.ErrClosed
	}
	s.items.Clear()
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

var _ storage.KV = (*Store)(nil)
