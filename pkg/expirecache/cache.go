package expirecache

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/reksie/crosspay-cache/pkg/interfaces"
	"github.com/reksie/crosspay-cache/pkg/keys"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultNamespace = "crosspay_cache_"
	DefaultTTL       = 60 * time.Minute
)

var errMissingData = errors.New("entry has no data field")

// Entry is the stored form of a cached value.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // write time, unix milliseconds
	TTL       int64           `json:"ttl"`       // milliseconds
}

// Expired reports whether the entry is past its ttl at now. An entry read at
// exactly Timestamp+TTL is still live.
func (e Entry) Expired(now time.Time) bool {
	return now.UnixMilli()-e.Timestamp > e.TTL
}

// Cache is a namespaced key-value cache with per-entry expiry over a
// persistent store. Expired entries are removed lazily when read; nothing
// sweeps the store in the background.
//
// None of the operations return an error. Failures are logged, counted and
// handed to the error handler, and the operation degrades to a no-op (writes)
// or a miss (reads).
type Cache struct {
	store      interfaces.Storage
	namespace  keys.Namespace
	clock      clock.Clock
	logger     *zap.Logger
	metrics    *Metrics
	onError    func(*OpError)
	defaultTTL time.Duration

	lastErr atomic.Pointer[OpError]
	group   singleflight.Group
}

type Option func(*Cache)

func WithNamespace(ns string) Option {
	return func(c *Cache) { c.namespace = keys.Namespace(ns) }
}

func WithClock(clk clock.Clock) Option {
	return func(c *Cache) { c.clock = clk }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithErrorHandler registers a callback invoked for every swallowed failure.
func WithErrorHandler(fn func(*OpError)) Option {
	return func(c *Cache) { c.onError = fn }
}

// WithDefaultTTL changes the ttl used by Set.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.defaultTTL = ttl }
}

func New(store interfaces.Storage, opts ...Option) *Cache {
	c := &Cache{
		store:      store,
		namespace:  DefaultNamespace,
		clock:      clock.New(),
		logger:     zap.NewNop(),
		defaultTTL: DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Namespace() string {
	return string(c.namespace)
}

// LastError returns the most recent swallowed failure, or nil.
func (c *Cache) LastError() error {
	if err := c.lastErr.Load(); err != nil {
		return err
	}
	return nil
}

// Set stores value under key with the default ttl.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	c.SetWithTTL(ctx, key, value, c.defaultTTL)
}

// SetMinutes stores value under key for the given number of minutes.
func (c *Cache) SetMinutes(ctx context.Context, key string, value any, minutes int) {
	c.SetWithTTL(ctx, key, value, time.Duration(minutes)*time.Minute)
}

// SetWithTTL stores value under key, replacing any prior entry. The ttl is
// kept at millisecond precision and is not validated.
func (c *Cache) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) {
	storeKey := c.namespace.Key(key)

	data, err := json.Marshal(value)
	if err != nil {
		c.report("set", storeKey, ErrSerialize, err)
		return
	}

	raw, err := json.Marshal(Entry{
		Data:      data,
		Timestamp: c.clock.Now().UnixMilli(),
		TTL:       ttl.Milliseconds(),
	})
	if err != nil {
		c.report("set", storeKey, ErrSerialize, err)
		return
	}

	if err := c.store.Set(ctx, storeKey, string(raw)); err != nil {
		c.report("set", storeKey, ErrStorage, err)
	}
}

// Get decodes the live entry under key into dst and reports whether it did.
// A nil dst only checks for a live entry. An expired entry is removed.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	storeKey := c.namespace.Key(key)

	entry, ok := c.load(ctx, "get", storeKey)
	if !ok {
		c.metrics.miss(c.Namespace())
		return false
	}

	if entry.Expired(c.clock.Now()) {
		c.Remove(ctx, key)
		c.metrics.expired(c.Namespace())
		c.metrics.miss(c.Namespace())
		return false
	}

	if dst != nil {
		if err := json.Unmarshal(entry.Data, dst); err != nil {
			c.report("get", storeKey, ErrDeserialize, err)
			c.metrics.miss(c.Namespace())
			return false
		}
	}

	c.metrics.hit(c.Namespace())
	return true
}

// GetAs returns the live value under key decoded as T.
func GetAs[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var v T
	if !c.Get(ctx, key, &v) {
		var zero T
		return zero, false
	}
	return v, true
}

// Remove deletes the entry under key. Removing a missing key is a no-op.
func (c *Cache) Remove(ctx context.Context, key string) {
	storeKey := c.namespace.Key(key)
	if err := c.store.Delete(ctx, storeKey); err != nil {
		c.report("remove", storeKey, ErrStorage, err)
	}
}

// Clear removes every entry in the cache namespace and leaves other keys in
// the store alone.
func (c *Cache) Clear(ctx context.Context) {
	var (
		storeKeys []string
		err       error
	)
	if lister, ok := c.store.(interfaces.PrefixLister); ok {
		storeKeys, err = lister.KeysWithPrefix(ctx, c.Namespace())
	} else {
		storeKeys, err = c.store.Keys(ctx)
	}
	if err != nil {
		c.report("clear", "", ErrStorage, err)
		return
	}

	for _, storeKey := range storeKeys {
		if !c.namespace.Owns(storeKey) {
			continue
		}
		if err := c.store.Delete(ctx, storeKey); err != nil {
			c.report("clear", storeKey, ErrStorage, err)
		}
	}
}

// IsExpired reports whether key has no live entry: it is missing, malformed
// or past its ttl. Nothing is removed.
func (c *Cache) IsExpired(ctx context.Context, key string) bool {
	entry, ok := c.load(ctx, "is_expired", c.namespace.Key(key))
	if !ok {
		return true
	}
	return entry.Expired(c.clock.Now())
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	return c.store.Close()
}

func (c *Cache) load(ctx context.Context, op, storeKey string) (Entry, bool) {
	raw, found, err := c.store.Get(ctx, storeKey)
	if err != nil {
		c.report(op, storeKey, ErrStorage, err)
		return Entry{}, false
	}
	if !found {
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.report(op, storeKey, ErrDeserialize, err)
		return Entry{}, false
	}
	if entry.Data == nil {
		c.report(op, storeKey, ErrDeserialize, errMissingData)
		return Entry{}, false
	}
	return entry, true
}

func (c *Cache) report(op, storeKey string, kind, err error) {
	opErr := &OpError{Op: op, Key: storeKey, Kind: kind, Err: err}
	c.lastErr.Store(opErr)
	c.metrics.failed(c.Namespace(), kind)
	c.logger.Warn("cache operation failed",
		zap.String("op", op),
		zap.String("key", storeKey),
		zap.String("kind", kindLabel(kind)),
		zap.Error(err),
	)
	if c.onError != nil {
		c.onError(opErr)
	}
}
