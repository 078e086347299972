package limited

import (
	"strconv"
	"time"

	"go.uber.org/zap"

	"goflare.io/broker/internal/models"
	"goflare.io/broker/internal/utils"
)

// Cache holds recently served pages in process memory. A page lives only
// as long as it would still be fresh, so the local tier can never serve
// anything the shared tier would consider stale.
type Cache struct {
	store     Store
	tracker   *Tracker
	freshness time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a new Cache instance.
func New(maxEntries int64, freshness time.Duration, logger *zap.Logger) (*Cache, error) {
	store, err := NewRistrettoStore(maxEntries, logger)
	if err != nil {
		return nil, err
	}

	return &Cache{
		store:     store,
		tracker:   NewTracker(),
		freshness: freshness,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// PageKey is the local key for a (kind, limit) page.
func PageKey(kind models.Kind, limit int) string {
	return utils.Key(string(kind), strconv.Itoa(limit))
}

// Put stores a page if it is still fresh.
func (c *Cache) Put(kind models.Kind, limit int, entry models.Entry) {
	ttl := entry.Remaining(c.now(), c.freshness)
	if ttl <= 0 {
		return
	}
	key := PageKey(kind, limit)
	if err := c.store.Set(key, entry, ttl); err != nil {
		c.logger.Debug("Failed to set local cache", zap.String("key", key), zap.Error(err))
		return
	}
	c.tracker.Add(kind, key)
}

// Get returns a fresh page, if one is held.
func (c *Cache) Get(kind models.Kind, limit int) (models.Entry, bool) {
	entry, ok := c.store.Get(PageKey(kind, limit))
	if !ok || !entry.Fresh(c.now(), c.freshness) {
		return models.Entry{}, false
	}
	return entry, true
}

// Invalidate drops every page held for kind.
func (c *Cache) Invalidate(kind models.Kind) {
	for _, key := range c.tracker.Take(kind) {
		c.store.Delete(key)
	}
}

// Flush clears the entire cache.
func (c *Cache) Flush() {
	c.store.Flush()
	c.tracker.Reset()
}

// Close closes the Cache.
func (c *Cache) Close() error {
	c.store.Close()
	return nil
}
