// Package cache keeps short-lived results, such as recommendation lists,
// in a bounded in-process LRU.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type Cache interface {
	Get(ctx context.Context, key string) (any, bool)
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Clear(ctx context.Context)
	Size(ctx context.Context) int
}

type lruCache struct {
	lru  *expirable.LRU[string, cacheItem]
	opts *options
}

type cacheItem struct {
	value      any
	expiration time.Time
}

type options struct {
	defaultTTL time.Duration
	maxSize    int
}

type Option func(*options)

// WithTTL sets the lifetime of entries stored with a zero ttl. It also
// caps the lifetime of every entry.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.defaultTTL = ttl
	}
}

// WithMaxSize bounds the number of entries; the least recently used entry
// is evicted first. Zero means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(o *options) {
		o.maxSize = maxSize
	}
}

func New(opts ...Option) Cache {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return &lruCache{
		lru:  expirable.NewLRU[string, cacheItem](o.maxSize, nil, o.defaultTTL),
		opts: o,
	}
}

func (c *lruCache) Get(_ context.Context, key string) (any, bool) {
	item, found := c.lru.Get(key)
	if !found {
		return nil, false
	}
	if !item.expiration.IsZero() && time.Now().After(item.expiration) {
		c.lru.Remove(key)
		return nil, false
	}
	return item.value, true
}

func (c *lruCache) Set(_ context.Context, key string, value any, ttl time.Duration) {
	if ttl == 0 {
		ttl = c.opts.defaultTTL
	}

	var expiration time.Time
	if ttl > 0 {
		expiration = time.Now().Add(ttl)
	}
	c.lru.Add(key, cacheItem{value: value, expiration: expiration})
}

func (c *lruCache) Delete(_ context.Context, key string) {
	c.lru.Remove(key)
}

func (c *lruCache) Clear(_ context.Context) {
	c.lru.Purge()
}

func (c *lruCache) Size(_ context.Context) int {
	return c.lru.Len()
}

// Fingerprint derives a cache key from prefix and the JSON encoding of
// payload. Map keys encode sorted, so equal requests share a key.
func Fingerprint(prefix string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode %s payload: %w", prefix, err)
	}
	sum := sha256.Sum256(data)
	return prefix + ":" + hex.EncodeToString(sum[:]), nil
}
