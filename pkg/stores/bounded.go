package stores

import (
	"context"
	"sync"

	"github.com/jellydator/ttlcache/v3"
	"github.com/reksie/crosspay-cache/pkg/interfaces"
)

// boundedStore holds at most capacity keys and refuses new keys once full,
// the way an origin-scoped browser store fails on quota.
type boundedStore struct {
	name     string
	capacity int

	// guards the capacity check against the insert
	mu    sync.Mutex
	cache *ttlcache.Cache[string, string]
}

// CreateBoundedStore returns a store limited to capacity keys. Writing a new
// key into a full store fails with interfaces.ErrQuotaExceeded; overwriting an
// existing key always succeeds. A capacity <= 0 means unbounded.
func CreateBoundedStore(name string, capacity int) interfaces.Storage {
	return &boundedStore{
		name:     name,
		capacity: capacity,
		cache: ttlcache.New[string, string](
			ttlcache.WithTTL[string, string](ttlcache.NoTTL),
			ttlcache.WithDisableTouchOnHit[string, string](),
		),
	}
}

func (s *boundedStore) Name() string {
	return s.name
}

func (s *boundedStore) Get(_ context.Context, key string) (string, bool, error) {
	item := s.cache.Get(key)
	if item == nil {
		return "", false, nil
	}
	return item.Value(), true, nil
}

func (s *boundedStore) Set(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capacity > 0 && s.cache.Len() >= s.capacity && !s.cache.Has(key) {
		return interfaces.ErrQuotaExceeded
	}
	s.cache.Set(key, value, ttlcache.NoTTL)
	return nil
}

func (s *boundedStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(key)
	return nil
}

func (s *boundedStore) Keys(_ context.Context) ([]string, error) {
	return s.cache.Keys(), nil
}

func (s *boundedStore) Close() error {
	s.cache.DeleteAll()
	return nil
}
