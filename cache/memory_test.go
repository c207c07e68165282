package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestMemoryStore_GetSet(t *testing.T) {
	s := NewMemoryStore(MemoryConfig{MaxEntries: 10})
	ctx := context.Background()

	_, err := s.Get(ctx, "k")
	require.True(t, IsCacheMiss(err))

	require.NoError(t, s.Set(ctx, "k", "v", SetOptions{}))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	stats := s.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	s := NewMemoryStore(MemoryConfig{MaxEntries: 2})
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", 1, SetOptions{}))
	require.NoError(t, s.Set(ctx, "b", 2, SetOptions{}))

	// Touch a so b becomes the eviction candidate.
	_, err := s.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "c", 3, SetOptions{}))

	_, err = s.Get(ctx, "b")
	assert.True(t, IsCacheMiss(err), "least recently used entry must be evicted")
	_, err = s.Get(ctx, "a")
	assert.NoError(t, err)
	_, err = s.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestMemoryStore_ByteCeiling(t *testing.T) {
	s := NewMemoryStore(MemoryConfig{MaxBytes: 100})
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", "x", SetOptions{Size: 60}))
	require.NoError(t, s.Set(ctx, "b", "y", SetOptions{Size: 60}))

	_, err := s.Get(ctx, "a")
	assert.True(t, IsCacheMiss(err))
	assert.LessOrEqual(t, s.Stats().Bytes, int64(100))
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	now := time.Unix(1000, 0)
	s := NewMemoryStore(MemoryConfig{MaxEntries: 10},
		WithMemoryClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", SetOptions{TTL: time.Minute}))

	_, err := s.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(61 * time.Second)
	_, err = s.Get(ctx, "k")
	assert.True(t, IsCacheMiss(err), "entry past its ttl must read as a miss")
	assert.Equal(t, 0, s.Len(), "expired entry is removed on read")
}

func TestMemoryStore_ZeroTTLNeverExpires(t *testing.T) {
	now := time.Unix(1000, 0)
	s := NewMemoryStore(MemoryConfig{MaxEntries: 10},
		WithMemoryClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", SetOptions{}))
	now = now.Add(1000 * time.Hour)

	_, err := s.Get(ctx, "k")
	assert.NoError(t, err)
}

func TestMemoryStore_Invalidate(t *testing.T) {
	s := NewMemoryStore(MemoryConfig{})
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "ns:1", 1, SetOptions{}))
	require.NoError(t, s.Set(ctx, "ns:2", 2, SetOptions{}))
	require.NoError(t, s.Set(ctx, "other:3", 3, SetOptions{}))

	require.NoError(t, s.Invalidate(ctx, "ns:1", "missing"))
	_, err := s.Get(ctx, "ns:1")
	assert.True(t, IsCacheMiss(err))

	removed, err := s.InvalidatePrefix(ctx, "ns:")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Len())
}

// TestMemoryStore_EntryBoundProperty inserts more entries than the ceiling
// allows and checks the store never holds more than the ceiling.
func TestMemoryStore_EntryBoundProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ceiling := rapid.IntRange(1, 10).Draw(rt, "ceiling")
		inserts := rapid.IntRange(1, 50).Draw(rt, "inserts")

		s := NewMemoryStore(MemoryConfig{MaxEntries: ceiling})
		ctx := context.Background()
		for i := 0; i < inserts; i++ {
			key := fmt.Sprintf("k%d", rapid.IntRange(0, 30).Draw(rt, "key"))
			if err := s.Set(ctx, key, i, SetOptions{}); err != nil {
				rt.Fatalf("set: %v", err)
			}
			if got := s.Len(); got > ceiling {
				rt.Fatalf("store holds %d entries, ceiling is %d", got, ceiling)
			}
		}
	})
}

func TestDo_ReadThrough(t *testing.T) {
	s := NewMemoryStore(MemoryConfig{MaxEntries: 10})
	ctx := context.Background()
	calls := 0
	fn := func(ctx context.Context) (any, error) {
		calls++
		return "computed", nil
	}

	input := map[string]any{"doc": "hello"}
	out, err := Do(ctx, s, "summarize", input, SetOptions{}, fn)
	require.NoError(t, err)
	assert.Equal(t, "computed", out)

	// Structurally equal input hits the cache.
	out, err = Do(ctx, s, "summarize", map[string]any{"doc": "hello"}, SetOptions{}, fn)
	require.NoError(t, err)
	assert.Equal(t, "computed", out)
	assert.Equal(t, 1, calls)

	// A different namespace misses.
	_, err = Do(ctx, s, "translate", input, SetOptions{}, fn)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_FailureIsNotCached(t *testing.T) {
	s := NewMemoryStore(MemoryConfig{MaxEntries: 10})
	ctx := context.Background()
	calls := 0

	fn := func(ctx context.Context) (any, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient")
		}
		return "ok", nil
	}

	_, err := Do(ctx, s, "ns", "in", SetOptions{}, fn)
	require.Error(t, err)

	out, err := Do(ctx, s, "ns", "in", SetOptions{}, fn)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 2, calls)
}

func TestDo_UncanonicalizableInputBypassesCache(t *testing.T) {
	s := NewMemoryStore(MemoryConfig{MaxEntries: 10})
	ctx := context.Background()
	calls := 0

	cyclic := map[string]any{}
	cyclic["self"] = cyclic
	fn := func(ctx context.Context) (any, error) {
		calls++
		return "fresh", nil
	}

	for i := 0; i < 2; i++ {
		out, err := Do(ctx, s, "ns", cyclic, SetOptions{}, fn)
		require.NoError(t, err)
		assert.Equal(t, "fresh", out)
	}
	assert.Equal(t, 2, calls, "self-referential input must run uncached every time")
}
