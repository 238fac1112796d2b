// Package storage provides the client-side key-value stores that persist
// the supplier portal session.
//
// Backends:
//
//   - MemoryStore: process-local map, used by the interactive shell and tests
//   - FileStore: YAML file written with atomic rename (the default)
//   - BadgerStore: embedded Badger database
//   - RedisStore: shared Redis instance, keys namespaced per client
//   - EncryptedStore: wraps any backend with authenticated encryption
//
// Every backend applies a multi-key Put or Delete atomically, so a reader
// never observes a half-written session.
package storage
