// Package cache provides a two-tier cache for evaluation results: an
// in-process LRU tier backed by an optional shared Redis tier. Evaluation
// is deterministic, so a result can be cached for as long as the catalog
// and engine configuration stay fixed; both are part of the key.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/rx-timeline-engine/internal/domain"
)

// Stats tracks cache effectiveness per tier.
type Stats struct {
	MemoryHits   int64 `json:"memory_hits"`
	MemoryMisses int64 `json:"memory_misses"`
	RedisHits    int64 `json:"redis_hits"`
	RedisMisses  int64 `json:"redis_misses"`
	Stores       int64 `json:"stores"`
}

// EvaluationCache caches evaluation results keyed by the canonical input.
type EvaluationCache struct {
	memory *lru.Cache[string, *domain.EvaluationResult]
	redis  *redis.Client
	ttl    time.Duration
	logger *logrus.Logger

	mu    sync.Mutex
	stats Stats
}

// New creates the cache. A nil or empty Redis URL disables the shared tier;
// a bad URL is an error because a configured tier must not silently vanish.
func New(cfg domain.CacheConfig, logger *logrus.Logger) (*EvaluationCache, error) {
	size := cfg.MemorySize
	if size <= 0 {
		size = 512
	}
	memory, err := lru.New[string, *domain.EvaluationResult](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	c := &EvaluationCache{
		memory: memory,
		ttl:    cfg.DefaultTTL,
		logger: logger,
	}
	if c.ttl <= 0 {
		c.ttl = 24 * time.Hour
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts.MaxRetries = cfg.MaxRetries
		if cfg.PoolSize > 0 {
			opts.PoolSize = cfg.PoolSize
		}
		if cfg.PoolTimeout > 0 {
			opts.PoolTimeout = cfg.PoolTimeout
		}
		c.redis = redis.NewClient(opts)
		logger.WithField("addr", opts.Addr).Info("Evaluation cache redis tier enabled")
	}

	return c, nil
}

// Key derives the content-addressed cache key for a request evaluated
// under a given catalog version and engine configuration. Records are
// assumed canonically ordered by the caller.
func Key(req *domain.EvaluationRequest, catalogVersion string, engineCfg domain.EngineConfig) (string, error) {
	payload := struct {
		Request        *domain.EvaluationRequest `json:"request"`
		CatalogVersion string                    `json:"catalog_version"`
		Engine         domain.EngineConfig       `json:"engine"`
	}{req, catalogVersion, engineCfg}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cache key payload: %w", err)
	}
	sum := sha256.Sum256(data)
	return "eval:" + hex.EncodeToString(sum[:]), nil
}

// Get checks the memory tier, then Redis. A Redis hit is promoted into
// the memory tier. Redis errors degrade to a miss.
func (c *EvaluationCache) Get(ctx context.Context, key string) (*domain.EvaluationResult, bool) {
	if result, ok := c.memory.Get(key); ok {
		c.bump(func(s *Stats) { s.MemoryHits++ })
		return result, true
	}
	c.bump(func(s *Stats) { s.MemoryMisses++ })

	if c.redis == nil {
		return nil, false
	}

	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Warn("Evaluation cache redis get failed")
		}
		c.bump(func(s *Stats) { s.RedisMisses++ })
		return nil, false
	}

	var result domain.EvaluationResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.WithError(err).Warn("Evaluation cache entry corrupt; dropping")
		c.redis.Del(ctx, key)
		c.bump(func(s *Stats) { s.RedisMisses++ })
		return nil, false
	}

	c.bump(func(s *Stats) { s.RedisHits++ })
	c.memory.Add(key, &result)
	return &result, true
}

// Put stores a result in both tiers. Redis failures are logged, not fatal.
func (c *EvaluationCache) Put(ctx context.Context, key string, result *domain.EvaluationResult) {
	c.memory.Add(key, result)
	c.bump(func(s *Stats) { s.Stores++ })

	if c.redis == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.WithError(err).Warn("Evaluation cache marshal failed")
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("Evaluation cache redis set failed")
	}
}

// Purge clears the memory tier. Used when a new catalog is loaded.
func (c *EvaluationCache) Purge() {
	c.memory.Purge()
}

// Stats returns a copy of the counters.
func (c *EvaluationCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Close releases the Redis client, if any.
func (c *EvaluationCache) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}

func (c *EvaluationCache) bump(f func(*Stats)) {
	c.mu.Lock()
	f(&c.stats)
	c.mu.Unlock()
}
