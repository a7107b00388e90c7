// Package storage provides the key-value engines behind cookie persistence.
//
// Three engines implement KVEngine:
//
//   - BadgerEngine: embedded LSM store, suited to many accounts per host
//   - FileEngine: a single JSON document, optionally sealed with a passphrase
//   - MemoryEngine: process-local, nothing survives a restart
//
// Open selects an engine from KVConfig.
package storage
