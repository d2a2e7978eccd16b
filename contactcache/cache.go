package contactcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrMiss reports an absent entry.
	ErrMiss = errors.New("cache miss")
	// ErrUnavailable wraps Redis transport failures.
	ErrUnavailable = errors.New("cache unavailable")
)

// Outcome classifies how a read-through was served.
type Outcome int

const (
	// OutcomeHit means the value came straight from the cache.
	OutcomeHit Outcome = iota
	// OutcomeMiss means the loader ran and the result was cached.
	OutcomeMiss
	// OutcomeDegraded means the cache was unreachable and the loader
	// served the read directly.
	OutcomeDegraded
)

// Config tunes one cache namespace.
type Config struct {
	// Prefix namespaces every key, e.g. "gk:cc" for contacts.
	Prefix string
	// TTL bounds staleness for entries and the owner index.
	TTL time.Duration
}

// Cache is an owner-scoped byte cache. A nil *Cache is valid and behaves
// as permanently degraded.
type Cache struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// New returns a Cache over redisClient, or nil when redisClient is nil.
func New(redisClient redis.UniversalClient, cfg Config) *Cache {
	if redisClient == nil {
		return nil
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "gk:cc"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Minute
	}
	return &Cache{redis: redisClient, prefix: cfg.Prefix, ttl: cfg.TTL}
}

func (c *Cache) entryKey(owner, entry string) string {
	return c.prefix + ":" + owner + ":" + entry
}

func (c *Cache) indexKey(owner string) string {
	return c.prefix + ":" + owner + ":index"
}

// Get fetches one entry. Absent entries return ErrMiss, transport
// failures wrap ErrUnavailable.
func (c *Cache) Get(ctx context.Context, owner, entry string) ([]byte, error) {
	if c == nil {
		return nil, ErrUnavailable
	}

	val, err := c.redis.Get(ctx, c.entryKey(owner, entry)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return val, nil
}

// Set stores an entry and records it in the owner index so that
// InvalidateOwner can find it later. Entry and index share the TTL; the
// index is refreshed on every write.
func (c *Cache) Set(ctx context.Context, owner, entry string, value []byte) error {
	if c == nil {
		return ErrUnavailable
	}

	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.entryKey(owner, entry), value, c.ttl)
		pipe.SAdd(ctx, c.indexKey(owner), entry)
		pipe.Expire(ctx, c.indexKey(owner), c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// ReadThrough serves entry from the cache, falling back to load on a miss
// and populating the cache with the loaded value. Cache failures never
// fail the read; the loader serves it and the outcome reports degraded.
// Loader errors propagate unchanged.
func (c *Cache) ReadThrough(ctx context.Context, owner, entry string, load func(context.Context) ([]byte, error)) ([]byte, Outcome, error) {
	cached, err := c.Get(ctx, owner, entry)
	if err == nil {
		return cached, OutcomeHit, nil
	}

	outcome := OutcomeMiss
	if !errors.Is(err, ErrMiss) {
		outcome = OutcomeDegraded
	}

	loaded, err := load(ctx)
	if err != nil {
		return nil, outcome, err
	}

	if outcome == OutcomeMiss {
		// A failed populate downgrades the read, nothing more.
		if err := c.Set(ctx, owner, entry, loaded); err != nil {
			outcome = OutcomeDegraded
		}
	}
	return loaded, outcome, nil
}

// InvalidateOwner removes every cached entry for owner along with the
// index itself.
func (c *Cache) InvalidateOwner(ctx context.Context, owner string) error {
	if c == nil {
		return ErrUnavailable
	}

	entries, err := c.redis.SMembers(ctx, c.indexKey(owner)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	keys := make([]string, 0, len(entries)+1)
	for _, entry := range entries {
		keys = append(keys, c.entryKey(owner, entry))
	}
	keys = append(keys, c.indexKey(owner))

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
