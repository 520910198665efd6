package stores

import (
	"context"
	"errors"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/reksie/crosspay-cache/pkg/interfaces"
)

// persistentLifeWindow keeps bigcache from retiring entries on its own; expiry
// is decided by the cache layered on top.
const persistentLifeWindow = 100 * 365 * 24 * time.Hour

type bigCacheStore struct {
	name  string
	cache *bigcache.BigCache
}

// MemoryStoreConfig returns a bigcache configuration that behaves like a
// persistent medium: no life window cleaning, entries live until deleted.
func MemoryStoreConfig() bigcache.Config {
	config := bigcache.DefaultConfig(persistentLifeWindow)
	config.CleanWindow = 0
	return config
}

// NewMemoryStore creates a bigcache instance with MemoryStoreConfig and wraps it.
func NewMemoryStore(ctx context.Context, name string) (interfaces.Storage, error) {
	cache, err := bigcache.New(ctx, MemoryStoreConfig())
	if err != nil {
		return nil, err
	}
	return CreateMemoryStore(name, cache), nil
}

func CreateMemoryStore(name string, cache *bigcache.BigCache) interfaces.Storage {
	return &bigCacheStore{
		name:  name,
		cache: cache,
	}
}

func (b *bigCacheStore) Name() string {
	return b.name
}

func (b *bigCacheStore) Get(_ context.Context, key string) (string, bool, error) {
	data, err := b.cache.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

func (b *bigCacheStore) Set(_ context.Context, key string, value string) error {
	return b.cache.Set(key, []byte(value))
}

func (b *bigCacheStore) Delete(_ context.Context, key string) error {
	err := b.cache.Delete(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil
	}
	return err
}

func (b *bigCacheStore) Keys(_ context.Context) ([]string, error) {
	keys := make([]string, 0, b.cache.Len())
	it := b.cache.Iterator()
	for it.SetNext() {
		info, err := it.Value()
		if err != nil {
			// entry removed while iterating
			continue
		}
		keys = append(keys, info.Key())
	}
	return keys, nil
}

func (b *bigCacheStore) Close() error {
	return b.cache.Close()
}
