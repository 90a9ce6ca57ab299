package config

import "time"

// CacheConfig controls the Redis response cache in front of the lesson read
// endpoints.  Writes purge everything under Prefix, so TTL only bounds how
// stale a listing can get when another process changes the store.
type CacheConfig struct {
	Enabled      bool          // CACHE_ENABLED
	TTL          time.Duration // CACHE_TTL
	Prefix       string        // CACHE_PREFIX
	MaxBodyBytes int           // CACHE_MAX_BODY_BYTES; larger responses are not stored
}

func cacheFromEnv() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDuration("CACHE_TTL", 30*time.Second),
		Prefix:       getenv("CACHE_PREFIX", "skillhub:cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
