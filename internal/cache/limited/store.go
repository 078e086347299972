package limited

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"go.uber.org/zap"

	"goflare.io/broker/internal/models"
)

var errRejected = errors.New("entry rejected by admission policy")

// Store defines the in-process page storage.
type Store interface {
	Set(key string, entry models.Entry, ttl time.Duration) error
	Get(key string) (models.Entry, bool)
	Delete(key string)
	Flush()
	Close()
}

// RistrettoStore implements the Store interface using Ristretto.
type RistrettoStore struct {
	cache  *ristretto.Cache[string, models.Entry]
	logger *zap.Logger
}

// NewRistrettoStore creates a store holding at most maxEntries pages.
func NewRistrettoStore(maxEntries int64, logger *zap.Logger) (*RistrettoStore, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, models.Entry]{
		NumCounters: 10 * maxEntries,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Ristretto cache: %w", err)
	}

	return &RistrettoStore{
		cache:  c,
		logger: logger,
	}, nil
}

// Set stores a page for ttl. Each page costs one slot. The write is
// flushed through ristretto's buffers before returning so a subsequent
// Get observes it.
func (s *RistrettoStore) Set(key string, entry models.Entry, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if !s.cache.SetWithTTL(key, entry, 1, ttl) {
		s.logger.Debug("Ristretto SetWithTTL dropped", zap.String("key", key))
		return errRejected
	}
	s.cache.Wait()
	return nil
}

// Get retrieves a page.
func (s *RistrettoStore) Get(key string) (models.Entry, bool) {
	return s.cache.Get(key)
}

// Delete removes a page.
func (s *RistrettoStore) Delete(key string) {
	s.cache.Del(key)
}

// Flush clears the entire cache.
func (s *RistrettoStore) Flush() {
	s.cache.Clear()
}

// Close closes the cache.
func (s *RistrettoStore) Close() {
	s.cache.Close()
}
