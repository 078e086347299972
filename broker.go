// Package broker serves enriched, display-oriented records (headlines,
// engagement pulse, briefings) from a shared Redis cache, recomputing them
// from the primary content store when the cache is missing or stale.
package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"goflare.io/broker/internal/cache/limited"
	"goflare.io/broker/internal/cache/readthrough"
	"goflare.io/broker/internal/cache/remote"
	"goflare.io/broker/internal/config"
	"goflare.io/broker/internal/enrich"
	"goflare.io/broker/internal/models"
	"goflare.io/broker/internal/writeback"
)

type (
	Kind   = models.Kind
	Source = models.Source
	Item   = models.Item
	Record = models.Record
	Result = models.Result
	Stats  = models.MetricsSnapshot
)

const (
	KindHeadlines = models.KindHeadlines
	KindPulse     = models.KindPulse
	KindBriefing  = models.KindBriefing

	SourceCache       = models.SourceCache
	SourceBroker      = models.SourceBroker
	SourceUnavailable = models.SourceUnavailable
)

// PrimaryStore is the system of record the broker recomputes from.
type PrimaryStore = readthrough.Primary

// Broker 定義 Broker 庫的主要結構體
type Broker struct {
	cache     *readthrough.Cache
	secondary *remote.Store
	queue     *writeback.Queue
	local     *limited.Cache
	stats     *models.Metrics
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// New wires a Broker over an existing Redis client and primary store. Both
// stay owned by the caller; Close does not close them.
func New(ctx context.Context, client redis.Cmdable, primary PrimaryStore, opts ...Option) (*Broker, error) {
	if client == nil || primary == nil {
		return nil, errors.New("redis client and primary store are required")
	}

	cfg, err := config.NewConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create config: %w", err)
	}
	logger := cfg.Logger

	catalog, err := enrich.LoadCatalogFile(cfg.Enrichment.TeamsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load team catalog: %w", err)
	}

	secondary, err := remote.New(ctx, client, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secondary store: %w", err)
	}

	var local *limited.Cache
	if cfg.LocalCache.Enabled {
		local, err = limited.New(cfg.LocalCache.MaxEntries, cfg.Freshness, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local cache: %w", err)
		}
	}

	stats := models.NewMetrics()
	queue := writeback.New(secondary, cfg.WriteBack, stats, logger)

	b := &Broker{
		cache:     readthrough.New(cfg, secondary, primary, enrich.NewDeriver(catalog, cfg.Enrichment), queue, local, stats),
		secondary: secondary,
		queue:     queue,
		local:     local,
		stats:     stats,
		logger:    logger,
	}

	if kinds := cfg.Prefetch.WarmupKinds; len(kinds) > 0 {
		if err := b.cache.Warmup(ctx, kinds...); err != nil {
			logger.Warn("Failed to warm up", zap.Error(err))
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.wg.Add(2)
	go func() {
		defer b.wg.Done()
		secondary.Run(runCtx)
	}()
	go func() {
		defer b.wg.Done()
		b.cache.Run(runCtx)
	}()

	logger.Info("Broker started",
		zap.Duration("freshness", cfg.Freshness),
		zap.Bool("localCache", cfg.LocalCache.Enabled),
		zap.String("codec", cfg.Serialization.Codec.Name()),
	)
	return b, nil
}

// Get returns up to limit records of kind, most recent first. Store
// failures never produce an error; they show up in Result.Source.
func (b *Broker) Get(ctx context.Context, kind Kind, limit int) (Result, error) {
	if b.closed.Load() {
		return Result{}, ErrClosed
	}
	return b.cache.Get(ctx, kind, limit)
}

// Lookup returns the record of kind for one primary item.
func (b *Broker) Lookup(ctx context.Context, kind Kind, id string) (Result, error) {
	if b.closed.Load() {
		return Result{}, ErrClosed
	}
	return b.cache.Lookup(ctx, kind, id)
}

// Refresh recomputes kind from the primary store, ignoring the cache.
func (b *Broker) Refresh(ctx context.Context, kind Kind, limit int) (Result, error) {
	if b.closed.Load() {
		return Result{}, ErrClosed
	}
	return b.cache.Refresh(ctx, kind, limit)
}

// Warmup reads kinds once so the caches are populated.
func (b *Broker) Warmup(ctx context.Context, kinds ...Kind) error {
	if b.closed.Load() {
		return ErrClosed
	}
	return b.cache.Warmup(ctx, kinds...)
}

// Stats returns the in-process counters.
func (b *Broker) Stats() Stats {
	return b.stats.Snapshot()
}

// Ping checks the secondary store connection.
func (b *Broker) Ping(ctx context.Context) error {
	return b.secondary.Ping(ctx)
}

// Close stops background work, drains the write-back queue until ctx is
// done and persists the bloom filter.
func (b *Broker) Close(ctx context.Context) error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	b.logger.Info("Closing Broker")

	b.cancel()
	b.wg.Wait()

	var errs []error
	if err := b.queue.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := b.secondary.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if b.local != nil {
		if err := b.local.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close local cache: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors occurred while closing Broker: %w", errors.Join(errs...))
	}
	return nil
}
