package returns

import (
	"sync"

	"go.uber.org/zap"

	domain "github.com/returns/backend/internal/domain/returns"
)

// Cache holds the latest validated whole-collection snapshot. The store
// pushes full replacement slices; every read sees a consistent snapshot and
// the guard can run locally without a round trip.
type Cache[T any] struct {
	mu    sync.RWMutex
	items []T
	id    func(T) string
}

func NewCache[T any](id func(T) string) *Cache[T] {
	return &Cache[T]{id: id}
}

// Replace swaps in a new snapshot. Wired as the repository's onSnapshot.
func (c *Cache[T]) Replace(items []T) {
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
}

// All returns a copy of the current snapshot.
func (c *Cache[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Get returns the item with the given id, read from the snapshot.
func (c *Cache[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if c.id(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// NewRecordCache subscribes a record cache to its repository. Subscription
// errors after the initial snapshot only get logged; the cache keeps serving
// the last good snapshot.
func NewRecordCache(repo domain.ReturnRecordRepository, logger *zap.Logger) (*Cache[domain.ReturnRecord], domain.Unsubscribe, error) {
	cache := NewCache(func(r domain.ReturnRecord) string { return r.ID })
	unsub, err := repo.Subscribe(cache.Replace, func(err error) {
		logger.Error("return record subscription failed", zap.Error(err))
	})
	if err != nil {
		return nil, nil, err
	}
	return cache, unsub, nil
}

// NewOrderCache subscribes a collection order cache to its repository.
func NewOrderCache(repo domain.CollectionOrderRepository, logger *zap.Logger) (*Cache[domain.CollectionOrder], domain.Unsubscribe, error) {
	cache := NewCache(func(o domain.CollectionOrder) string { return o.ID })
	unsub, err := repo.Subscribe(cache.Replace, func(err error) {
		logger.Error("collection order subscription failed", zap.Error(err))
	})
	if err != nil {
		return nil, nil, err
	}
	return cache, unsub, nil
}
