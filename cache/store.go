package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// IsCacheMiss reports whether err signals a cache miss.
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

// SetOptions control one Set call.
type SetOptions struct {
	// TTL is the entry lifetime. Zero means the entry never expires.
	TTL time.Duration
	// Size is the entry's accounted size in bytes. Stores with a byte
	// ceiling use it for eviction; zero-size entries count only against
	// the entry ceiling.
	Size int64
}

// Store is the contract shared by the cache backends.
type Store interface {
	// Get returns the cached value or ErrCacheMiss.
	Get(ctx context.Context, key string) (any, error)
	// Set stores value under key.
	Set(ctx context.Context, key string, value any, opts SetOptions) error
	// Invalidate removes the given keys. Missing keys are not an error.
	Invalidate(ctx context.Context, keys ...string) error
	// InvalidatePrefix removes every key with the given prefix and
	// returns the number removed.
	InvalidatePrefix(ctx context.Context, prefix string) (int, error)
}

// Do is a read-through helper: it derives the content-addressed key for
// input under namespace, returns the cached value on a hit, and otherwise
// runs fn and stores its result. When the input cannot be canonicalized
// (self-referential values), fn runs uncached and the derivation error is
// swallowed, so an awkward input degrades to a cache bypass rather than a
// failure.
func Do(ctx context.Context, store Store, namespace string, input any, opts SetOptions, fn func(ctx context.Context) (any, error)) (any, error) {
	key, err := DeriveKey(namespace, input)
	if err != nil {
		return fn(ctx)
	}

	if v, err := store.Get(ctx, key); err == nil {
		return v, nil
	} else if !IsCacheMiss(err) {
		return nil, err
	}

	out, err := fn(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.Set(ctx, key, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
