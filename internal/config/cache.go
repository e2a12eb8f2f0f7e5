package config

import "time"

// ProfileCacheConfig defines settings for the profile cache. Redis is used
// when reachable; otherwise profiles are cached in process, bounded by
// MemorySize entries.
type ProfileCacheConfig struct {
	TTL        time.Duration
	Prefix     string
	MemorySize int
}

// LoadProfileCacheConfig reads PROFILE_CACHE_* variables. Defaults are used
// when variables are not set.
func LoadProfileCacheConfig() ProfileCacheConfig {
	cfg := ProfileCacheConfig{
		TTL:        parseDur(getenv("PROFILE_CACHE_TTL", "300s"), 300*time.Second),
		Prefix:     getenv("PROFILE_CACHE_PREFIX", ""),
		MemorySize: atoi(getenv("PROFILE_CACHE_MEMORY_SIZE", "10000")),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 300 * time.Second
	}
	if cfg.MemorySize <= 0 {
		cfg.MemorySize = 10000
	}
	return cfg
}
