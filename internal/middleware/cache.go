package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/skillhub-booking/internal/config"
)

const headerXCache = "X-Cache"

// bodyRecorder tees the response body into buf, giving up once more than
// limit bytes have been written.
type bodyRecorder struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	if !r.overflow {
		if r.limit > 0 && r.buf.Len()+len(b) > r.limit {
			r.overflow = true
			r.buf.Reset()
		} else {
			r.buf.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

// cachedResponse is what gets stored in Redis for one listing.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// cacheKey hashes method, route and the query with its parameters sorted,
// so ?order=desc&sortBy=price and ?sortBy=price&order=desc share an entry.
// The prefix stays readable for Purge.
func cacheKey(prefix string, c echo.Context) string {
	r := c.Request()
	sum := sha1.Sum([]byte(r.Method + " " + c.Path() + "?" + r.URL.Query().Encode()))
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// ResponseCache stores successful lesson listings in Redis.  A nil client or
// a disabled config turns both the middleware and Purge into no-ops.
type ResponseCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
	log *zap.Logger
}

// NewResponseCache binds the cache to rdb, which may be nil.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client, log *zap.Logger) *ResponseCache {
	if cfg.Prefix == "" {
		cfg.Prefix = "skillhub:cache"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ResponseCache{cfg: cfg, rdb: rdb, log: log}
}

// Active reports whether responses are actually cached.
func (rc *ResponseCache) Active() bool {
	return rc != nil && rc.cfg.Enabled && rc.rdb != nil
}

// Middleware replays cached 200 GET responses and stores fresh ones.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rc.Active() || c.Request().Method != http.MethodGet {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKey(rc.cfg.Prefix, c)

			if hit, ok := rc.lookup(ctx, key); ok {
				c.Response().Header().Set(headerXCache, "HIT")
				return c.Blob(hit.Status, hit.ContentType, hit.Body)
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: rc.cfg.MaxBodyBytes}
			c.Response().Writer = rec
			c.Response().Header().Set(headerXCache, "MISS")

			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.overflow {
				return nil
			}
			rc.store(context.WithoutCancel(ctx), key, cachedResponse{
				Status:      rec.status,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        rec.buf.Bytes(),
			})
			return nil
		}
	}
}

func (rc *ResponseCache) lookup(ctx context.Context, key string) (cachedResponse, bool) {
	var cr cachedResponse
	bs, err := rc.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			rc.log.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
		}
		return cr, false
	}
	if err := json.Unmarshal(bs, &cr); err != nil || cr.Status == 0 {
		return cr, false
	}
	return cr, true
}

func (rc *ResponseCache) store(ctx context.Context, key string, cr cachedResponse) {
	bs, err := json.Marshal(cr)
	if err != nil {
		return
	}
	if err := rc.rdb.Set(ctx, key, bs, rc.cfg.TTL).Err(); err != nil {
		rc.log.Warn("cache store failed", zap.String("key", key), zap.Error(err))
	}
}

// Purge drops every cached response under the configured prefix.  It is
// called after any write that changes lessons.
func (rc *ResponseCache) Purge(ctx context.Context) error {
	if !rc.Active() {
		return nil
	}
	var keys []string
	iter := rc.rdb.Scan(ctx, 0, rc.cfg.Prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := rc.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete cache keys: %w", err)
	}
	return nil
}
