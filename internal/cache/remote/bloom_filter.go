package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"goflare.io/broker/internal/models"
)

const bloomTTL = 24 * time.Hour

// BloomFilter remembers which record IDs have been written to the store so
// point lookups for unknown IDs skip the round trip. A negative answer
// only means "not written by anyone this filter has seen"; callers must
// still be able to fall back to the primary store.
type BloomFilter struct {
	store  *Store
	logger *zap.Logger

	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewBloomFilter creates a new BloomFilter instance.
func NewBloomFilter(store *Store) *BloomFilter {
	return &BloomFilter{
		store:  store,
		logger: store.logger,
		filter: store.newFilter(),
	}
}

func bloomItem(kind models.Kind, id string) []byte {
	return []byte(string(kind) + "|" + id)
}

// Add adds a record to the bloom filter.
func (bf *BloomFilter) Add(kind models.Kind, id string) {
	bf.mu.Lock()
	bf.filter.Add(bloomItem(kind, id))
	bf.mu.Unlock()
}

// Test checks if a record might be in the store.
func (bf *BloomFilter) Test(kind models.Kind, id string) bool {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	return bf.filter.Test(bloomItem(kind, id))
}

// Save persists the bloom filter to Redis.
func (bf *BloomFilter) Save(ctx context.Context) error {
	var buf bytes.Buffer
	bf.mu.RLock()
	_, err := bf.filter.WriteTo(&buf)
	bf.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to serialize bloom filter: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())
	return bf.store.res.do(ctx, func() error {
		return bf.store.client.Set(ctx, bf.store.bloomKey(), encoded, bloomTTL).Err()
	})
}

// Load retrieves the bloom filter from Redis. It reports false when no
// filter has been saved yet.
func (bf *BloomFilter) Load(ctx context.Context) (bool, error) {
	var encoded string
	err := bf.store.res.do(ctx, func() error {
		var err error
		encoded, err = bf.store.client.Get(ctx, bf.store.bloomKey()).Result()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load bloom filter: %w", err)
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false, fmt.Errorf("failed to decode bloom filter data: %w", err)
	}

	filter := bf.store.newFilter()
	if _, err := filter.ReadFrom(bytes.NewReader(decoded)); err != nil {
		return false, fmt.Errorf("failed to deserialize bloom filter: %w", err)
	}

	bf.mu.Lock()
	bf.filter = filter
	bf.mu.Unlock()
	return true, nil
}

// Rebuild reconstructs the bloom filter from the record hashes of every
// kind, then saves it.
func (bf *BloomFilter) Rebuild(ctx context.Context) error {
	filter := bf.store.newFilter()

	for _, kind := range models.Kinds() {
		var ids []string
		err := bf.store.res.do(ctx, func() error {
			var err error
			ids, err = bf.store.client.HKeys(ctx, bf.store.recordsKey(kind)).Result()
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to list %s records: %w", kind, err)
		}
		for _, id := range ids {
			filter.Add(bloomItem(kind, id))
		}
	}

	bf.mu.Lock()
	bf.filter = filter
	bf.mu.Unlock()

	return bf.Save(ctx)
}

// PeriodicRebuild periodically rebuilds the bloom filter.
func (bf *BloomFilter) PeriodicRebuild(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := bf.Rebuild(ctx); err != nil {
				bf.logger.Error("Failed to rebuild bloom filter", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}
