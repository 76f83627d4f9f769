// Package cache provides the in-process cache behind ports.Cache.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
)

// Metrics receives hit and miss counts
type Metrics interface {
	RecordCacheHit()
	RecordCacheMiss()
}

type noopMetrics struct{}

func (noopMetrics) RecordCacheHit()  {}
func (noopMetrics) RecordCacheMiss() {}

// Config sizes the cache. MaxItems bounds the entry count; every entry costs 1.
type Config struct {
	MaxItems int64
}

func DefaultConfig() Config {
	return Config{MaxItems: 10000}
}

// RistrettoCache implements ports.Cache on ristretto
type RistrettoCache struct {
	cache   *ristretto.Cache
	metrics Metrics
}

var _ ports.Cache = (*RistrettoCache)(nil)

type Option func(*RistrettoCache)

func WithMetrics(m Metrics) Option {
	return func(c *RistrettoCache) {
		if m != nil {
			c.metrics = m
		}
	}
}

func NewRistrettoCache(cfg Config, opts ...Option) (*RistrettoCache, error) {
	if cfg.MaxItems <= 0 {
		cfg = DefaultConfig()
	}
	rc, err := ristretto.NewCache(&ristretto.Config{
		// ristretto recommends 10x the expected item count
		NumCounters: cfg.MaxItems * 10,
		MaxCost:     cfg.MaxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	c := &RistrettoCache{cache: rc, metrics: noopMetrics{}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *RistrettoCache) Get(ctx context.Context, key string) (interface{}, bool) {
	v, ok := c.cache.Get(key)
	if ok {
		c.metrics.RecordCacheHit()
	} else {
		c.metrics.RecordCacheMiss()
	}
	return v, ok
}

// Set stores value for ttl seconds. The write is visible to the next Get.
func (c *RistrettoCache) Set(ctx context.Context, key string, value interface{}, ttl int) error {
	if ttl <= 0 {
		return nil
	}
	if !c.cache.SetWithTTL(key, value, 1, time.Duration(ttl)*time.Second) {
		// dropped by the admission policy; the next read goes to the store
		return nil
	}
	c.cache.Wait()
	return nil
}

func (c *RistrettoCache) Delete(ctx context.Context, key string) error {
	c.cache.Del(key)
	return nil
}

func (c *RistrettoCache) Close() {
	c.cache.Close()
}
