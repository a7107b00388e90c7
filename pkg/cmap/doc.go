// Package cmap provides a concurrent map sharded by key hash.
//
// Each shard has its own RWMutex, so writers to different shards do not
// contend.
//
//	m := cmap.New[string, []byte]()
//	m.Set("cookies/alice", raw)
//	v, ok := m.Get("cookies/alice")
package cmap
