package config

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig locates the Redis server used by the response cache.
// REDIS_HOST plus REDIS_PORT wins over REDIS_ADDR.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TLS      bool
}

func redisFromEnv() RedisConfig {
	addr := getenv("REDIS_ADDR", "localhost:6379")
	if host, port := getenv("REDIS_HOST", ""), getenv("REDIS_PORT", ""); host != "" && port != "" {
		addr = host + ":" + port
	}
	return RedisConfig{
		Addr:     addr,
		Password: getenv("REDIS_PASSWORD", ""),
		DB:       envInt("REDIS_DB", 0),
		TLS:      envBool("REDIS_TLS", false),
	}
}

// Options converts rc into go-redis client options.
func (rc RedisConfig) Options() *redis.Options {
	opts := &redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	}
	if rc.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}

// NewRedisClient connects and pings.  On failure the client is closed and
// the error returned; callers run without a cache in that case.
func NewRedisClient(ctx context.Context, rc RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(rc.Options())

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", rc.Addr, err)
	}
	return client, nil
}
