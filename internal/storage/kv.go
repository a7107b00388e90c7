package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("kv engine closed")
)

// Engine names accepted by KVConfig.Engine.
const (
	EngineBadger = "badger"
	EngineBolt   = "bbolt"
	EngineFile   = "file"
	EngineMemory = "memory"
)

// KVEngine defines the interface for key-value persistence.
//
// Implementations must be safe for concurrent use.
type KVEngine interface {
	// Get retrieves a value by key.
	// Returns ErrKeyNotFound if key doesn't exist.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set stores a key-value pair.
	Set(ctx context.Context, key, value []byte) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key []byte) error

	// Scan iterates over keys with a given prefix.
	// Callback returns false to stop iteration.
	Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error

	// Close releases the engine.
	Close() error
}

// KVConfig configures a KV engine.
type KVConfig struct {
	// Engine specifies the engine type ("badger", "bbolt", "file", "memory").
	// Default: "file"
	Engine string

	// Dir is the badger directory, or the directory holding the bbolt
	// database or the file engine's document.
	Dir string

	// Passphrase seals the file engine's document when non-empty.
	Passphrase []byte

	// Badger-specific configuration
	Badger BadgerConfig
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic value log GC runs.
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// InMemory keeps all data in memory; Dir is ignored.
	InMemory bool

	// SyncWrites enables fsync after each write.
	// Default: true (cookie writes are rare and must survive crashes)
	SyncWrites bool
}

// DefaultKVConfig returns the default KV configuration.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{
		Engine: EngineFile,
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
		SyncWrites:  true,
	}
}

// Open creates the engine selected by cfg.Engine.
func Open(cfg KVConfig, logger *slog.Logger) (KVEngine, error) {
	switch cfg.Engine {
	case EngineBadger:
		return NewBadgerEngine(cfg, logger)
	case EngineBolt:
		return NewBoltEngine(cfg)
	case EngineFile, "":
		return NewFileEngine(cfg)
	case EngineMemory:
		return NewMemoryEngine(), nil
	default:
		return nil, fmt.Errorf("storage: unknown engine %q", cfg.Engine)
	}
}
