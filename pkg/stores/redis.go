package stores

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/reksie/crosspay-cache/pkg/interfaces"
)

const defaultScanCount = 100

type RedisStoreConfig struct {
	// ScanCount is the COUNT hint passed to SCAN while enumerating keys.
	ScanCount int64
}

type redisStore struct {
	name   string
	client *redis.Client
	config RedisStoreConfig
}

func CreateRedisStore(name string, client *redis.Client, config RedisStoreConfig) interfaces.Storage {
	if config.ScanCount <= 0 {
		config.ScanCount = defaultScanCount
	}
	return &redisStore{
		name:   name,
		client: client,
		config: config,
	}
}

func (r *redisStore) Name() string {
	return r.name
}

func (r *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores without a Redis TTL; expiry is owned by the cache layer.
func (r *redisStore) Set(ctx context.Context, key string, value string) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

func (r *redisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisStore) Keys(ctx context.Context) ([]string, error) {
	return r.scan(ctx, "*")
}

func (r *redisStore) KeysWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	return r.scan(ctx, escapeGlob(prefix)+"*")
}

func (r *redisStore) scan(ctx context.Context, match string) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, match, r.config.ScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *redisStore) Close() error {
	return r.client.Close()
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// escapeGlob quotes the SCAN MATCH metacharacters in s.
func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
