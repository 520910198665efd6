package expirecache

import (
	"context"
	"time"
)

// Remember returns the live value under key, or loads, caches and returns it.
// Concurrent misses for the same key share one load. Load errors are returned
// as is and nothing is cached for them.
//
// The shared load runs detached from any single caller's cancellation; each
// caller stops waiting when its own ctx is done.
func Remember[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := GetAs[T](ctx, c, key); ok {
		return v, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		v, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.SetWithTTL(loadCtx, key, v, ttl)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		typed, _ := res.Val.(T)
		return typed, nil
	}
}
