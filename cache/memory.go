package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryConfig bounds an in-memory store.
type MemoryConfig struct {
	// MaxEntries is the entry-count ceiling. Zero means unbounded.
	MaxEntries int `yaml:"max_entries" json:"max_entries"`
	// MaxBytes is the total accounted-size ceiling. Zero means unbounded.
	MaxBytes int64 `yaml:"max_bytes" json:"max_bytes"`
}

// MemoryStats is a point-in-time view of a memory store.
type MemoryStats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Entries int    `json:"entries"`
	Bytes   int64  `json:"bytes"`
}

type memoryEntry struct {
	key       string
	value     any
	size      int64
	expiresAt time.Time // zero means never
}

// MemoryStore is a process-local Store with LRU eviction. Both ceilings are
// enforced on insert; expiry is lazy, checked on read. An expired entry
// still occupies space until it is read or evicted.
type MemoryStore struct {
	mu      sync.Mutex
	order   *list.List // front is most recently used
	entries map[string]*list.Element
	bytes   int64
	hits    uint64
	misses  uint64

	config MemoryConfig
	logger *zap.Logger
	now    func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryLogger sets the diagnostic logger.
func WithMemoryLogger(logger *zap.Logger) MemoryOption {
	return func(s *MemoryStore) {
		s.logger = logger.With(zap.String("component", "cache"))
	}
}

// WithMemoryClock overrides the expiry clock. Intended for tests.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates a bounded in-memory store.
func NewMemoryStore(config MemoryConfig, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		order:   list.New(),
		entries: make(map[string]*list.Element),
		config:  config,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cached value and refreshes its recency. An entry past its
// expiry is removed and reported as a miss.
func (s *MemoryStore) Get(ctx context.Context, key string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[key]
	if !ok {
		s.misses++
		return nil, ErrCacheMiss
	}
	e := el.Value.(*memoryEntry)
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		s.removeLocked(el)
		s.misses++
		return nil, ErrCacheMiss
	}
	s.order.MoveToFront(el)
	s.hits++
	return e.value, nil
}

// Set stores value under key, replacing any existing entry, then evicts
// least recently used entries until both ceilings hold.
func (s *MemoryStore) Set(ctx context.Context, key string, value any, opts SetOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[key]; ok {
		s.removeLocked(el)
	}

	e := &memoryEntry{key: key, value: value, size: opts.Size}
	if opts.TTL > 0 {
		e.expiresAt = s.now().Add(opts.TTL)
	}
	s.entries[key] = s.order.PushFront(e)
	s.bytes += e.size

	for s.overCeiling() {
		back := s.order.Back()
		if back == nil {
			break
		}
		evicted := back.Value.(*memoryEntry)
		s.removeLocked(back)
		s.logger.Debug("evicted cache entry", zap.String("key", evicted.key))
	}
	return nil
}

// Invalidate removes the given keys.
func (s *MemoryStore) Invalidate(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		if el, ok := s.entries[key]; ok {
			s.removeLocked(el)
		}
	}
	return nil
}

// InvalidatePrefix removes every key with the given prefix.
func (s *MemoryStore) InvalidatePrefix(ctx context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, el := range s.entries {
		if strings.HasPrefix(key, prefix) {
			s.removeLocked(el)
			removed++
		}
	}
	return removed, nil
}

// Stats returns hit/miss counters and current occupancy.
func (s *MemoryStore) Stats() MemoryStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return MemoryStats{
		Hits:    s.hits,
		Misses:  s.misses,
		Entries: len(s.entries),
		Bytes:   s.bytes,
	}
}

// Len returns the number of entries currently held, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) overCeiling() bool {
	if s.config.MaxEntries > 0 && len(s.entries) > s.config.MaxEntries {
		return true
	}
	if s.config.MaxBytes > 0 && s.bytes > s.config.MaxBytes {
		return true
	}
	return false
}

func (s *MemoryStore) removeLocked(el *list.Element) {
	e := el.Value.(*memoryEntry)
	s.order.Remove(el)
	delete(s.entries, e.key)
	s.bytes -= e.size
}
