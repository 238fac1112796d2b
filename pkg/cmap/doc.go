// Package cmap provides a sharded concurrent map keyed by strings.
//
// The mock endpoint keeps its token table here. Each shard has its own
// RWMutex, so lookups for different tokens rarely contend:
//
//	m := cmap.New[*grant]()
//	m.Set(hash, g)
//	g, ok := m.Get(hash)
//
// DeleteFunc sweeps expired entries one shard at a time.
package cmap
