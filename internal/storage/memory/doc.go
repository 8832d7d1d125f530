// Package memory provides in-memory key-value storage for Health QR Link.
//
// Values live in a sharded concurrent map. Stored values are copied on
// the way in and on the way out so callers never share buffers with the
// store.
//
// Thread Safety:
//
// All operations are thread-safe through per-shard locking.
package memory
