package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// BadgerEngine implements KVEngine using Badger v3.
type BadgerEngine struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger *slog.Logger

	lastGCTime atomic.Int64 // Unix milliseconds
	gcRuns     atomic.Uint64

	// Prometheus metrics
	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsGCRuns       prometheus.Counter

	closeOnce sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewBadgerEngine creates a new Badger-based KV engine.
func NewBadgerEngine(cfg KVConfig, logger *slog.Logger) (*BadgerEngine, error) {
	badgerCfg := cfg.Badger
	if cfg.Dir == "" && !badgerCfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if badgerCfg.GCInterval <= 0 {
		badgerCfg.GCInterval = 10 * time.Minute
	}
	if badgerCfg.GCThreshold <= 0 || badgerCfg.GCThreshold >= 1 {
		badgerCfg.GCThreshold = 0.5
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if badgerCfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.SyncWrites = badgerCfg.SyncWrites
	// Cookie records are tiny; keep the footprint small.
	opts.NumMemtables = 1
	opts.MemTableSize = 8 << 20
	opts.ValueLogFileSize = 16 << 20
	opts.BlockCacheSize = 4 << 20

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	engine := &BadgerEngine{
		db:     db,
		cfg:    badgerCfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go engine.gcLoop()

	logger.Debug("badger engine started",
		"dir", cfg.Dir,
		"in_memory", badgerCfg.InMemory,
		"gc_interval", badgerCfg.GCInterval)

	return engine, nil
}

// Get retrieves a value by key.
func (e *BadgerEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	var value []byte

	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, e.mapErr(err)
	}

	return value, nil
}

// Set stores a key-value pair.
func (e *BadgerEngine) Set(ctx context.Context, key, value []byte) error {
	return e.mapErr(e.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	}))
}

// Delete removes a key.
func (e *BadgerEngine) Delete(ctx context.Context, key []byte) error {
	return e.mapErr(e.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	}))
}

// Scan iterates over keys with a given prefix.
func (e *BadgerEngine) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	return e.mapErr(e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
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

			if !fn(item.KeyCopy(nil), value) {
				break
			}
		}

		return nil
	}))
}

// GC runs value log garbage collection until nothing more can be rewritten.
func (e *BadgerEngine) GC(ctx context.Context) error {
	if e.cfg.InMemory {
		return nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := e.db.RunValueLogGC(e.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
				break
			}
			return fmt.Errorf("gc: %w", err)
		}
	}

	e.lastGCTime.Store(time.Now().UnixMilli())
	e.gcRuns.Add(1)
	if e.metricsGCRuns != nil {
		e.metricsGCRuns.Inc()
	}
	return nil
}

// Size returns the LSM and value log sizes in bytes.
func (e *BadgerEngine) Size() (lsm, vlog int64) {
	return e.db.Size()
}

// Close gracefully shuts down the Badger engine.
func (e *BadgerEngine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.stopCh)
		<-e.doneCh

		if cerr := e.db.Close(); cerr != nil {
			err = fmt.Errorf("close db: %w", cerr)
		}
		e.logger.Debug("badger engine closed")
	})
	return err
}

// RegisterMetrics registers Badger metrics with Prometheus.
// Returns the engine for method chaining.
func (e *BadgerEngine) RegisterMetrics(registry *prometheus.Registry) *BadgerEngine {
	e.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mobsession",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})

	e.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mobsession",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})

	e.metricsGCRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mobsession",
		Subsystem: "badger",
		Name:      "gc_runs_total",
		Help:      "Completed Badger value log GC runs",
	})

	registry.MustRegister(e.metricsLSMSize, e.metricsValueLogSize, e.metricsGCRuns)
	e.updateSizeMetrics()

	go e.metricsUpdateLoop()

	return e
}

func (e *BadgerEngine) updateSizeMetrics() {
	lsm, vlog := e.db.Size()
	e.metricsLSMSize.Set(float64(lsm))
	e.metricsValueLogSize.Set(float64(vlog))
}

// metricsUpdateLoop periodically updates Prometheus size gauges.
func (e *BadgerEngine) metricsUpdateLoop() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.updateSizeMetrics()
		case <-e.stopCh:
			return
		}
	}
}

// gcLoop runs periodic garbage collection.
func (e *BadgerEngine) gcLoop() {
	defer close(e.doneCh)

	ticker := time.NewTicker(e.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if err := e.GC(ctx); err != nil {
				e.logger.Error("auto gc failed", "error", err)
			}
			cancel()

		case <-e.stopCh:
			return
		}
	}
}

func (e *BadgerEngine) mapErr(err error) error {
	if errors.Is(err, badger.ErrDBClosed) {
		return ErrClosed
	}
	return err
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
// Badger's info chatter is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
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
