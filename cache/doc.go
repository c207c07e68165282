// Package cache provides content-addressed result caching for units of
// work. Keys are derived from a canonical serialization of the input, so
// two inputs that are structurally equal map to the same key regardless of
// map iteration order. An in-memory LRU store and a Redis-backed store
// share the same Store contract.
package cache
