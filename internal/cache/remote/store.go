// Package remote is the shared secondary store: enriched records kept in
// Redis, one hash of records and one recency index per kind.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"goflare.io/broker/internal/config"
	"goflare.io/broker/internal/metrics"
	"goflare.io/broker/internal/models"
	"goflare.io/broker/internal/utils"
	"goflare.io/broker/pkg/serialization"
)

// Store reads and writes enriched records in Redis.
type Store struct {
	client redis.Cmdable
	config *config.Config
	codec  serialization.Codec
	res    *resilience
	tracer trace.Tracer
	logger *zap.Logger

	bloomFilter *BloomFilter
}

// New creates a Store and primes its bloom filter, from a saved copy when
// one exists or by scanning the record hashes otherwise.
func New(ctx context.Context, client redis.Cmdable, cfg *config.Config) (*Store, error) {
	res, err := newResilience(cfg.ResilienceConfig)
	if err != nil {
		return nil, err
	}

	s := &Store{
		client: client,
		config: cfg,
		codec:  cfg.Serialization.Codec,
		res:    res,
		tracer: otel.Tracer("goflare.io/broker/remote"),
		logger: cfg.Logger,
	}
	s.bloomFilter = NewBloomFilter(s)

	loaded, err := s.bloomFilter.Load(ctx)
	if err != nil {
		s.logger.Warn("Failed to load bloom filter, rebuilding", zap.Error(err))
	}
	if !loaded {
		if err := s.bloomFilter.Rebuild(ctx); err != nil {
			s.logger.Warn("Failed to rebuild bloom filter", zap.Error(err))
		}
	}

	return s, nil
}

func (s *Store) newFilter() *bloom.BloomFilter {
	return bloom.NewWithEstimates(s.config.BloomFilter.ExpectedItems, s.config.BloomFilter.FalsePositiveRate)
}

func (s *Store) recordsKey(kind models.Kind) string {
	return utils.Key(s.config.KeyPrefix, string(kind), "records")
}

func (s *Store) recentKey(kind models.Kind) string {
	return utils.Key(s.config.KeyPrefix, string(kind), "recent")
}

func (s *Store) bloomKey() string {
	return utils.Key(s.config.KeyPrefix, s.config.BloomFilter.RedisKey)
}

// score orders the recency index by publication time, falling back to
// computation time for records that were never published.
func score(r models.Record) float64 {
	t := r.PublishedAt
	if t.IsZero() {
		t = r.ComputedAt
	}
	return float64(t.UnixMilli())
}

// Recent returns up to limit records of kind, newest first. An empty entry
// means the store holds nothing for kind.
func (s *Store) Recent(ctx context.Context, kind models.Kind, limit int) (*models.Entry, error) {
	ctx, span := s.tracer.Start(ctx, "Store.Recent", trace.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.Int("limit", limit),
	))
	defer span.End()

	if limit <= 0 {
		return models.NewEntry(nil), nil
	}

	var ids []string
	err := s.res.do(ctx, func() error {
		var err error
		ids, err = s.client.ZRevRange(ctx, s.recentKey(kind), 0, int64(limit-1)).Result()
		return err
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues(metrics.StoreSecondary, "recent").Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read %s index: %w", kind, err)
	}
	if len(ids) == 0 {
		return models.NewEntry(nil), nil
	}

	var values []interface{}
	err = s.res.do(ctx, func() error {
		var err error
		values, err = s.client.HMGet(ctx, s.recordsKey(kind), ids...).Result()
		return err
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues(metrics.StoreSecondary, "recent").Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read %s records: %w", kind, err)
	}

	records := make([]models.Record, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// index entry without a record; the next upsert repairs it
			continue
		}
		var r models.Record
		if err := s.codec.Unmarshal([]byte(raw), &r); err != nil {
			s.logger.Warn("Failed to decode record", zap.String("kind", string(kind)), zap.String("id", ids[i]), zap.Error(err))
			continue
		}
		records = append(records, r)
	}
	return models.NewEntry(records), nil
}

// Find returns a single record. It answers ErrNotFound without touching
// Redis when the bloom filter has never seen the ID.
func (s *Store) Find(ctx context.Context, kind models.Kind, id string) (models.Record, error) {
	ctx, span := s.tracer.Start(ctx, "Store.Find", trace.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("id", id),
	))
	defer span.End()

	if !s.bloomFilter.Test(kind, id) {
		s.logger.Debug("Bloom filter negative for record", zap.String("kind", string(kind)), zap.String("id", id))
		return models.Record{}, models.ErrNotFound
	}

	var raw string
	err := s.res.do(ctx, func() error {
		var err error
		raw, err = s.client.HGet(ctx, s.recordsKey(kind), id).Result()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return models.Record{}, models.ErrNotFound
	}
	if err != nil {
		metrics.StoreErrors.WithLabelValues(metrics.StoreSecondary, "find").Inc()
		span.RecordError(err)
		return models.Record{}, fmt.Errorf("failed to read record %s/%s: %w", kind, id, err)
	}

	var r models.Record
	if err := s.codec.Unmarshal([]byte(raw), &r); err != nil {
		return models.Record{}, err
	}
	return r, nil
}

// Upsert writes records keyed by ID, replacing any previous version, and
// refreshes the retention TTL on both keys.
func (s *Store) Upsert(ctx context.Context, kind models.Kind, records []models.Record) error {
	ctx, span := s.tracer.Start(ctx, "Store.Upsert", trace.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.Int("count", len(records)),
	))
	defer span.End()

	if len(records) == 0 {
		return nil
	}

	fields := make([]interface{}, 0, 2*len(records))
	members := make([]redis.Z, 0, len(records))
	for _, r := range records {
		data, err := s.codec.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal record %s: %w", r.ID, err)
		}
		fields = append(fields, r.ID, data)
		members = append(members, redis.Z{Score: score(r), Member: r.ID})
	}

	recordsKey, recentKey := s.recordsKey(kind), s.recentKey(kind)
	err := s.res.do(ctx, func() error {
		pipe := s.client.TxPipeline()
		pipe.HSet(ctx, recordsKey, fields...)
		pipe.ZAdd(ctx, recentKey, members...)
		if s.config.Retention > 0 {
			pipe.Expire(ctx, recordsKey, s.config.Retention)
			pipe.Expire(ctx, recentKey, s.config.Retention)
		}
		_, err := pipe.Exec(ctx)
		return err
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues(metrics.StoreSecondary, "upsert").Inc()
		span.RecordError(err)
		return fmt.Errorf("failed to upsert %s records: %w", kind, err)
	}

	for _, r := range records {
		s.bloomFilter.Add(kind, r.ID)
	}
	return nil
}

// Run rebuilds the bloom filter on the configured interval until ctx is done.
func (s *Store) Run(ctx context.Context) {
	if s.config.BloomFilter.RebuildInterval <= 0 {
		return
	}
	s.bloomFilter.PeriodicRebuild(ctx, s.config.BloomFilter.RebuildInterval)
}

// Close persists the bloom filter. The Redis client belongs to the caller.
func (s *Store) Close(ctx context.Context) error {
	if err := s.bloomFilter.Save(ctx); err != nil {
		return fmt.Errorf("failed to save bloom filter: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
