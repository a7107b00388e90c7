package storage

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/yndnr/mobsession-go/pkg/cmap"
)

// MemoryEngine is a process-local KVEngine backed by a sharded map.
type MemoryEngine struct {
	items  *cmap.Map[string, []byte]
	closed atomic.Bool
}

// NewMemoryEngine creates an empty in-memory engine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{items: cmap.New[string, []byte]()}
}

func (e *MemoryEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	v, ok := e.items.Get(string(key))
	if !ok {
		return nil, ErrKeyNotFound
	}
	return bytes.Clone(v), nil
}

func (e *MemoryEngine) Set(ctx context.Context, key, value []byte) error {
	if e.closed.Load() {
		return ErrClosed
	}
	e.items.Set(string(key), bytes.Clone(value))
	return nil
}

func (e *MemoryEngine) Delete(ctx context.Context, key []byte) error {
	if e.closed.Load() {
		return ErrClosed
	}
	e.items.Delete(string(key))
	return nil
}

func (e *MemoryEngine) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	if e.closed.Load() {
		return ErrClosed
	}
	keys := make([]string, 0)
	e.items.Range(func(k string, _ []byte) bool {
		if strings.HasPrefix(k, string(prefix)) {
			keys = append(keys, k)
		}
		return true
	})
	sort.Strings(keys)

	for _, k := range keys {
		v, ok := e.items.Get(k)
		if !ok {
			continue
		}
		if !fn([]byte(k), bytes.Clone(v)) {
			break
		}
	}
	return nil
}

func (e *MemoryEngine) Close() error {
	e.closed.Store(true)
	e.items.Clear()
	return nil
}
