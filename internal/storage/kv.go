package storage

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrClosed     = errors.New("kv engine closed")
	ErrInvalidKey = errors.New("kv key is empty")
)

// KV is the key-value contract used by the registry.
//
// Get reports absence through its bool result rather than an error, so a
// miss is never confused with a storage failure.
//
// Implementation requirements:
// - Thread-safe: concurrent reads/writes must be safe
// - Values returned to callers must not alias internal buffers
type KV interface {
	// Get retrieves a value by key.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a key-value pair, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// SetIfAbsent stores the pair only when key is unused.
	// Returns false if the key already existed.
	SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error)

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Scan iterates over keys with a given prefix in key order.
	// Callback returns false to stop iteration.
	Scan(ctx context.Context, prefix string, fn func(key string, value []byte) bool) error

	// Close releases resources. Further calls return ErrClosed.
	Close() error
}

// KVStats contains storage engine statistics.
type KVStats struct {
	// TotalSize is the total disk usage in bytes.
	TotalSize uint64

	// LSMSize is the LSM tree size.
	LSMSize uint64

	// ValueLogSize is the value log size.
	ValueLogSize uint64

	// LastGCTime is the last GC run timestamp (Unix milliseconds).
	LastGCTime int64

	// GCRuns is the number of value log files rewritten by GC.
	GCRuns uint64
}

// KVConfig configures the persistent KV engine.
type KVConfig struct {
	// Dir is the storage directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps all data in RAM (tests and ephemeral deployments).
	InMemory bool

	// Badger-specific configuration
	Badger BadgerConfig
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic GC runs.
	// Default: 10m
	GCInterval string

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5 (run GC when 50% of data is stale)
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 64MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 256MB
	ValueLogFileSize int64

	// SyncWrites enables sync writes (fsync after each write).
	// Default: true; patient records have no other durable copy.
	SyncWrites bool
}

// DefaultKVConfig returns the default KV configuration.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:       "10m",
		GCThreshold:      0.5,
		CacheSize:        64 << 20,  // 64MB
		ValueLogFileSize: 256 << 20, // 256MB
		SyncWrites:       true,
	}
}
