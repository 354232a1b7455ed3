// Package responsecache stores paginated bridge API responses under
// content-addressed keys. Each entry carries one staleness clock set when the
// entry is created, and every page is verified against its sha256 digest on
// read. Storage failures never reach callers; they degrade to a cache miss.
package responsecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/rail-service/bridge_service/internal/infrastructure/cache"
	"github.com/rail-service/bridge_service/pkg/metrics"
	"github.com/rail-service/bridge_service/pkg/tracing"
)

const (
	DefaultPrefix = "bridgeCache"
	DefaultPage   = "default"
	DefaultTTL    = 15 * time.Minute
)

// Cache is safe for concurrent use. Writes to the same key are not serialized
// against each other; only Do coalesces concurrent fetches.
type Cache struct {
	storage cache.Storage
	prefix  string
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics
	group   singleflight.Group
}

type Option func(*Cache)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

func New(storage cache.Storage, logger *zap.Logger, opts ...Option) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{
		storage: storage,
		prefix:  DefaultPrefix,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns prefix:url:sha256(json(body)). Bodies that encode to the same
// JSON share a key; struct field order is part of the encoding.
func (c *Cache) Key(url string, body interface{}) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode cache key body: %w", err)
	}
	return c.prefix + ":" + url + ":" + digest(data), nil
}

// Prefix is the key prefix shared by every entry of this cache
func (c *Cache) Prefix() string {
	return c.prefix + ":"
}

func (c *Cache) isStale(e *entry) bool {
	created := time.UnixMilli(e.Timestamp)
	return c.now().Sub(created) >= c.ttl
}

// Retrieve returns the stored response for page. A stale entry, a page whose
// digest does not match, or an unreadable entry is deleted and reported as a miss.
func (c *Cache) Retrieve(ctx context.Context, key, page string) (jsoniter.RawMessage, bool) {
	if page == "" {
		page = DefaultPage
	}
	ctx, span := tracing.StartSpan(ctx, "responsecache.Retrieve", attribute.String("cache.page", page))
	defer span.End()

	data, err := c.storage.Get(ctx, key)
	if errors.Is(err, cache.ErrKeyNotFound) {
		c.metrics.CacheMiss()
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Failed to load cache entry", zap.String("key", key), zap.Error(err))
		c.invalidate(ctx, key, metrics.ReasonCorrupt)
		return nil, false
	}

	e, err := decodeEntry(data)
	if err != nil {
		c.logger.Warn("Discarding unreadable cache entry", zap.String("key", key), zap.Error(err))
		c.invalidate(ctx, key, metrics.ReasonCorrupt)
		return nil, false
	}

	cached, ok := e.Pages[page]
	if !ok {
		c.metrics.CacheMiss()
		return nil, false
	}

	switch {
	case !cached.valid():
		c.logger.Warn("Cache page digest mismatch", zap.String("key", key), zap.String("page", page))
		c.invalidate(ctx, key, metrics.ReasonHashMismatch)
		return nil, false
	case c.isStale(e):
		c.invalidate(ctx, key, metrics.ReasonStale)
		return nil, false
	}

	span.SetAttributes(attribute.Bool("cache.hit", true))
	c.metrics.CacheHit()
	return cached.CachedResponse, true
}

// RetrieveInto decodes a cached response into v
func (c *Cache) RetrieveInto(ctx context.Context, key, page string, v interface{}) bool {
	raw, ok := c.Retrieve(ctx, key, page)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		c.logger.Warn("Cached response does not match the requested type", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *Cache) invalidate(ctx context.Context, key, reason string) {
	c.metrics.CacheInvalidated(reason)
	c.metrics.CacheMiss()
	if err := c.storage.Remove(ctx, key); err != nil {
		c.logger.Warn("Failed to remove cache entry", zap.String("key", key), zap.Error(err))
	}
}

// Update stores response as page of the entry at key. The entry timestamp is
// only set when the entry is created. On a failed write the key is removed.
func (c *Cache) Update(ctx context.Context, response interface{}, key, page string) error {
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("encode cached response: %w", err)
	}
	return c.updateRaw(ctx, data, key, page)
}

func (c *Cache) updateRaw(ctx context.Context, data []byte, key, page string) error {
	if page == "" {
		page = DefaultPage
	}
	if page == timestampField {
		return fmt.Errorf("page name %q is reserved", page)
	}

	e := c.load(ctx, key)
	if e == nil {
		e = newEntry(c.now().UnixMilli())
	}
	e.Pages[page] = cachedPage{CachedResponse: data, Hash: digest(data)}

	encoded, err := encodeEntry(e)
	if err == nil {
		err = c.storage.Set(ctx, key, encoded)
	}
	if err != nil {
		c.metrics.CacheWriteFailed()
		if rmErr := c.storage.Remove(ctx, key); rmErr != nil {
			c.logger.Warn("Failed to remove cache entry after write failure", zap.String("key", key), zap.Error(rmErr))
		}
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// load returns the decoded entry at key, or nil when it is absent or unreadable
func (c *Cache) load(ctx context.Context, key string) *entry {
	data, err := c.storage.Get(ctx, key)
	if err != nil {
		return nil
	}
	e, err := decodeEntry(data)
	if err != nil {
		return nil
	}
	return e
}

// Do returns the cached page or calls fetch once for all concurrent callers
// of the same key and page, stores the result and returns it encoded.
// Fetch errors are not cached.
func (c *Cache) Do(ctx context.Context, key, page string, fetch func(ctx context.Context) (interface{}, error)) (jsoniter.RawMessage, error) {
	if page == "" {
		page = DefaultPage
	}
	if raw, ok := c.Retrieve(ctx, key, page); ok {
		return raw, nil
	}

	v, err, _ := c.group.Do(key+"\x00"+page, func() (interface{}, error) {
		resp, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("encode fetched response: %w", err)
		}
		if err := c.updateRaw(ctx, data, key, page); err != nil {
			c.logger.Warn("Failed to cache response", zap.String("key", key), zap.Error(err))
		}
		return jsoniter.RawMessage(data), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(jsoniter.RawMessage), nil
}

// Fetch is Do with the response decoded into T
func Fetch[T any](ctx context.Context, c *Cache, key, page string, fetch func(ctx context.Context) (T, error)) (T, error) {
	var out T
	raw, err := c.Do(ctx, key, page, func(ctx context.Context) (interface{}, error) {
		return fetch(ctx)
	})
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode cached response: %w", err)
	}
	return out, nil
}
