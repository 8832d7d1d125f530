// Package cmap provides a string-keyed map sharded across RWMutexes.
//
// Keys are spread over shards by their murmur3 hash, so the same key
// always lands in the same shard across processes. Iteration locks one
// shard at a time and therefore sees no global snapshot.
//
//	m := cmap.New[[]byte]()
//	m.Set("patient:P1", data)
//	v, ok := m.Get("patient:P1")
package cmap
