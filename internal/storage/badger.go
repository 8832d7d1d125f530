package storage

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Saiguru2554/Health-Link-Qr/internal/telemetry/logger"
)

// BadgerKV implements KV using Badger v3.
type BadgerKV struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger logger.Logger
	closed atomic.Bool

	// Internal counters
	lastGCTime atomic.Int64  // Unix milliseconds
	gcRuns     atomic.Uint64 // Value log files rewritten

	// Prometheus metrics
	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsLastGCTime   prometheus.Gauge

	// Shutdown
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewBadgerKV opens a Badger-backed KV.
func NewBadgerKV(cfg KVConfig, log logger.Logger) (*BadgerKV, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if log == nil {
		log = logger.Default()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Dir)
		opts.ValueLogFileSize = cfg.Badger.ValueLogFileSize
	}
	opts.Logger = &badgerLogger{logger: log.With("component", "badger")}
	opts.BlockCacheSize = cfg.Badger.CacheSize
	opts.SyncWrites = cfg.Badger.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	kv := &BadgerKV{
		db:     db,
		cfg:    cfg.Badger,
		logger: log,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go kv.gcLoop()

	log.Info("badger engine started",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory,
		"cache_size", cfg.Badger.CacheSize,
		"gc_interval", cfg.Badger.GCInterval)

	return kv, nil
}

// Get retrieves a value by key.
func (e *BadgerKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if e.closed.Load() {
		return nil, false, ErrClosed
	}
	if key == "" {
		return nil, false, ErrInvalidKey
	}

	var value []byte
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set stores a key-value pair.
func (e *BadgerKV) Set(ctx context.Context, key string, value []byte) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if key == "" {
		return ErrInvalidKey
	}
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// SetIfAbsent stores the pair only when the key is unused.
// Conflicting concurrent transactions are retried.
func (e *BadgerKV) SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	if e.closed.Load() {
		return false, ErrClosed
	}
	if key == "" {
		return false, ErrInvalidKey
	}

	for {
		var stored bool
		err := e.db.Update(func(txn *badger.Txn) error {
			_, err := txn.Get([]byte(key))
			if err == nil {
				return nil
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			stored = true
			return txn.Set([]byte(key), value)
		})
		if errors.Is(err, badger.ErrConflict) {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			continue
		}
		if err != nil {
			return false, err
		}
		return stored, nil
	}
}

// Delete removes a key.
func (e *BadgerKV) Delete(ctx context.Context, key string) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if key == "" {
		return ErrInvalidKey
	}
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Scan iterates over keys with a given prefix.
func (e *BadgerKV) Scan(ctx context.Context, prefix string, fn func(key string, value []byte) bool) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if !fn(string(item.Key()), value) {
				break
			}
		}
		return nil
	})
}

// GC runs value log garbage collection until nothing is left to rewrite.
// Returns the number of value log files rewritten.
func (e *BadgerKV) GC(ctx context.Context) (uint64, error) {
	if e.closed.Load() {
		return 0, ErrClosed
	}
	start := time.Now()

	var runs uint64
	for ctx.Err() == nil {
		err := e.db.RunValueLogGC(e.cfg.GCThreshold)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			break
		}
		if err != nil {
			return runs, fmt.Errorf("gc: %w", err)
		}
		runs++
	}

	e.lastGCTime.Store(time.Now().UnixMilli())
	e.gcRuns.Add(runs)

	e.logger.Debug("gc completed",
		"files_rewritten", runs,
		"elapsed", time.Since(start))

	return runs, nil
}

// Stats returns storage statistics.
func (e *BadgerKV) Stats() KVStats {
	lsm, vlog := e.db.Size()
	return KVStats{
		TotalSize:    uint64(lsm + vlog),
		LSMSize:      uint64(lsm),
		ValueLogSize: uint64(vlog),
		LastGCTime:   e.lastGCTime.Load(),
		GCRuns:       e.gcRuns.Load(),
	}
}

// Close gracefully shuts down the engine.
func (e *BadgerKV) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	close(e.stopCh)
	<-e.doneCh

	if err := e.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	e.logger.Info("badger engine shutdown complete")
	return nil
}

// RegisterMetrics registers Badger gauges with Prometheus and starts
// refreshing them. Returns the engine for method chaining.
func (e *BadgerKV) RegisterMetrics(registry *prometheus.Registry) *BadgerKV {
	e.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "healthqr",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})
	e.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "healthqr",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})
	e.metricsLastGCTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "healthqr",
		Subsystem: "badger",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last Badger GC run",
	})

	registry.MustRegister(e.metricsLSMSize, e.metricsValueLogSize, e.metricsLastGCTime)
	e.updateMetrics()

	go e.metricsUpdateLoop()
	return e
}

func (e *BadgerKV) updateMetrics() {
	stats := e.Stats()
	e.metricsLSMSize.Set(float64(stats.LSMSize))
	e.metricsValueLogSize.Set(float64(stats.ValueLogSize))
	if stats.LastGCTime > 0 {
		e.metricsLastGCTime.Set(float64(stats.LastGCTime) / 1000.0)
	}
}

// metricsUpdateLoop periodically updates Prometheus metrics.
func (e *BadgerKV) metricsUpdateLoop() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if e.closed.Load() {
				return
			}
			e.updateMetrics()
		case <-e.stopCh:
			return
		}
	}
}

// gcLoop runs periodic garbage collection.
func (e *BadgerKV) gcLoop() {
	defer close(e.doneCh)

	interval, err := time.ParseDuration(e.cfg.GCInterval)
	if err != nil || interval <= 0 {
		e.logger.Warn("invalid gc_interval, using default 10m", "gc_interval", e.cfg.GCInterval)
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if _, err := e.GC(ctx); err != nil && !errors.Is(err, ErrClosed) {
				e.logger.Error("auto gc failed", "error", err)
			}
			cancel()

		case <-e.stopCh:
			return
		}
	}
}

// badgerLogger adapts logger.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
