// Package cache memoizes capability results.
//
// Wrap decorates a function with a cache lookup keyed by a deterministic
// function of the call arguments. A fresh entry is returned without calling
// the function; an entry inside its stale-while-revalidate window is
// returned while a background refresh runs; anything else calls the
// function and stores the result. Errors are never cached, and a failing
// key function calls straight through.
//
// Concurrent misses and refreshes of one key share a single execution
// (golang.org/x/sync/singleflight).
//
// Entries live in a Store: MemoryStore for a single process, RedisStore
// to share a cache between replicas, or SQLiteStore to keep it across
// restarts. Memory and SQLite stores are swept periodically by the
// application.
package cache
