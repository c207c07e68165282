package config

import "time"

// DefaultConfig returns the built-in defaults. Every loader run starts from
// this value before file and environment overrides apply.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:            "info",
			Format:           "json",
			OutputPaths:      []string{"stdout"},
			EnableCaller:     true,
			EnableStacktrace: true,
		},
		Cache: CacheConfig{
			MaxEntries: 1024,
			MaxBytes:   64 << 20,
			DefaultTTL: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			DB:           0,
			PoolSize:     10,
			MinIdleConns: 2,
		},
		Parallel: ParallelConfig{
			MaxConcurrent: 8,
		},
	}
}
