package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// BoltFileName is the database file of the bbolt engine inside KVConfig.Dir.
const BoltFileName = "cookies.db"

var boltBucket = []byte("kv")

// BoltEngine implements KVEngine on a single bbolt database file.
type BoltEngine struct {
	db *bbolt.DB
}

// NewBoltEngine opens (or creates) Dir/cookies.db.
func NewBoltEngine(cfg KVConfig) (*BoltEngine, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("bbolt: dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("bbolt: create dir: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(cfg.Dir, BoltFileName), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt: open db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bbolt: create bucket: %w", err)
	}
	return &BoltEngine{db: db}, nil
}

// Get retrieves a value by key.
func (e *BoltEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	var value []byte
	err := e.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(boltBucket).Get(key)
		if v == nil {
			return ErrKeyNotFound
		}
		value = bytes.Clone(v)
		return nil
	})
	if err != nil {
		return nil, e.mapErr(err)
	}
	return value, nil
}

// Set stores a key-value pair.
func (e *BoltEngine) Set(ctx context.Context, key, value []byte) error {
	return e.mapErr(e.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBucket).Put(key, value)
	}))
}

// Delete removes a key.
func (e *BoltEngine) Delete(ctx context.Context, key []byte) error {
	return e.mapErr(e.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBucket).Delete(key)
	}))
}

// Scan iterates over keys with a given prefix in key order.
func (e *BoltEngine) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	return e.mapErr(e.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(boltBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !fn(bytes.Clone(k), bytes.Clone(v)) {
				break
			}
		}
		return nil
	}))
}

// Close closes the database. Closing twice is a no-op.
func (e *BoltEngine) Close() error {
	return e.db.Close()
}

func (e *BoltEngine) mapErr(err error) error {
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}
