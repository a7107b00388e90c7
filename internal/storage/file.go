package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileName is the document name inside KVConfig.Dir.
const FileName = "cookies.json"

// FileEngine keeps the whole key space in one JSON document that is
// rewritten atomically on every mutation.
type FileEngine struct {
	mu     sync.RWMutex
	path   string
	data   map[string][]byte
	sealer *sealer
	closed bool
}

// NewFileEngine opens (or creates) the document in cfg.Dir.
func NewFileEngine(cfg KVConfig) (*FileEngine, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("file engine: dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("file engine: create dir: %w", err)
	}

	e := &FileEngine{
		path: filepath.Join(cfg.Dir, FileName),
		data: make(map[string][]byte),
	}
	if len(cfg.Passphrase) > 0 {
		s, err := newSealer(cfg.Passphrase)
		if err != nil {
			return nil, err
		}
		e.sealer = s
	}

	if err := e.load(); err != nil {
		return nil, err
	}
	return e, nil
}

// Path returns the document location.
func (e *FileEngine) Path() string { return e.path }

func (e *FileEngine) load() error {
	raw, err := os.ReadFile(e.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("file engine: read: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}

	switch {
	case IsSealed(raw) && e.sealer == nil:
		return fmt.Errorf("file engine: %s is sealed, passphrase required", e.path)
	case IsSealed(raw):
		if raw, err = e.sealer.Open(raw); err != nil {
			return err
		}
	}

	if err := json.Unmarshal(raw, &e.data); err != nil {
		return fmt.Errorf("file engine: decode %s: %w", e.path, err)
	}
	return nil
}

// flush writes data as the document. e.mu must be held for writing.
func (e *FileEngine) flush(data map[string][]byte) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("file engine: encode: %w", err)
	}
	if e.sealer != nil {
		if raw, err = e.sealer.Seal(raw); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(e.path), ".cookies-*.tmp")
	if err != nil {
		return fmt.Errorf("file engine: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("file engine: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("file engine: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file engine: close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("file engine: chmod: %w", err)
	}
	return os.Rename(tmp.Name(), e.path)
}

// Get retrieves a value by key.
func (e *FileEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, ErrClosed
	}
	v, ok := e.data[string(key)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return bytes.Clone(v), nil
}

// Set stores a key-value pair and rewrites the document.
func (e *FileEngine) Set(ctx context.Context, key, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	next := maps.Clone(e.data)
	if next == nil {
		next = make(map[string][]byte, 1)
	}
	next[string(key)] = bytes.Clone(value)
	return e.commit(next)
}

// Delete removes a key and rewrites the document.
func (e *FileEngine) Delete(ctx context.Context, key []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if _, ok := e.data[string(key)]; !ok {
		return nil
	}
	next := maps.Clone(e.data)
	delete(next, string(key))
	return e.commit(next)
}

// commit writes next and only then makes it the in-memory state.
func (e *FileEngine) commit(next map[string][]byte) error {
	if err := e.flush(next); err != nil {
		return err
	}
	e.data = next
	return nil
}

// Scan iterates over keys with a given prefix in lexical order.
func (e *FileEngine) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrClosed
	}

	keys := make([]string, 0, len(e.data))
	for k := range e.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !fn([]byte(k), bytes.Clone(e.data[k])) {
			break
		}
	}
	return nil
}

// Close marks the engine closed. Data is already on disk.
func (e *FileEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
