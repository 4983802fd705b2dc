// Package redis holds the redis-backed clients. The generation cache
// lives here: a session-scoped key-value store for sanitized diagrams and
// generated images, so repeat requests inside one study session skip the
// expensive call. Redis serves it when REDIS_ADDR is set; otherwise an
// in-process TTL map keeps the feature working on a single instance.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/menttor/menttor-backend/internal/platform/envutil"
	"github.com/menttor/menttor-backend/internal/platform/logger"
)

const (
	genCacheDefaultTTL = 30 * time.Minute
	genCacheMaxEntries = 1024
)

// GenCache is best-effort: lookups miss instead of failing and writes
// never surface errors, so callers degrade to regenerating.
type GenCache interface {
	Get(ctx context.Context, kind, sessionID, concept, content string) (string, bool)
	Set(ctx context.Context, kind, sessionID, concept, content, value string)
	Close() error
}

// genKey builds gen:{kind}:{session}:{digest}. Concept and content are
// truncated before hashing so oversized prompts still collapse onto the
// same key as their first 64/256 runes.
func genKey(kind, sessionID, concept, content string) string {
	h := sha256.Sum256([]byte(truncate(concept, 64) + "|" + truncate(content, 256)))
	return fmt.Sprintf("gen:%s:%s:%s", kind, sessionID, hex.EncodeToString(h[:])[:16])
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// NewGenCache picks the backend from the environment: redis when
// REDIS_ADDR is set and reachable, the in-process map otherwise.
func NewGenCache(baseLog *logger.Logger) GenCache {
	log := baseLog.With("service", "GenCache")
	ttl := envutil.Duration("GEN_CACHE_TTL", genCacheDefaultTTL)

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		log.Info("generation cache using in-process store", "ttl", ttl.String())
		return newMemGenCache(ttl, time.Now)
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		log.Warn("redis unreachable; generation cache in-process", "error", err)
		return newMemGenCache(ttl, time.Now)
	}

	log.Info("generation cache using redis", "addr", addr, "ttl", ttl.String())
	return &redisGenCache{log: log, rdb: rdb, ttl: ttl}
}

type redisGenCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func (c *redisGenCache) Get(ctx context.Context, kind, sessionID, concept, content string) (string, bool) {
	val, err := c.rdb.Get(ctx, genKey(kind, sessionID, concept, content)).Result()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("generation cache get failed", "error", err)
		}
		return "", false
	}
	return val, true
}

func (c *redisGenCache) Set(ctx context.Context, kind, sessionID, concept, content, value string) {
	if err := c.rdb.Set(ctx, genKey(kind, sessionID, concept, content), value, c.ttl).Err(); err != nil {
		c.log.Warn("generation cache set failed", "error", err)
	}
}

func (c *redisGenCache) Close() error { return c.rdb.Close() }

type memEntry struct {
	value   string
	expires time.Time
}

type memGenCache struct {
	mu  sync.Mutex
	m   map[string]memEntry
	ttl time.Duration
	now func() time.Time
}

func newMemGenCache(ttl time.Duration, now func() time.Time) *memGenCache {
	return &memGenCache{m: make(map[string]memEntry), ttl: ttl, now: now}
}

func (c *memGenCache) Get(_ context.Context, kind, sessionID, concept, content string) (string, bool) {
	key := genKey(kind, sessionID, concept, content)
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return "", false
	}
	if c.now().After(e.expires) {
		delete(c.m, key)
		return "", false
	}
	return e.value, true
}

func (c *memGenCache) Set(_ context.Context, kind, sessionID, concept, content, value string) {
	key := genKey(kind, sessionID, concept, content)
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.m) >= genCacheMaxEntries {
		c.evictLocked()
	}
	c.m[key] = memEntry{value: value, expires: c.now().Add(c.ttl)}
}

// evictLocked drops expired entries, then arbitrary ones until there is
// room. The cache is advisory, so losing an entry only costs a regen.
func (c *memGenCache) evictLocked() {
	now := c.now()
	for k, e := range c.m {
		if now.After(e.expires) {
			delete(c.m, k)
		}
	}
	for k := range c.m {
		if len(c.m) < genCacheMaxEntries {
			break
		}
		delete(c.m, k)
	}
}

func (c *memGenCache) Close() error { return nil }
