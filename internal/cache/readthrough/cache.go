// Package readthrough serves enriched records from the secondary store
// while fresh and recomputes them from the primary store otherwise.
//
// A read never fails because a store failed. The caller always gets the
// best available data, fresh over stale over nothing, tagged with the
// path that produced it.
package readthrough

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"goflare.io/broker/internal/cache/limited"
	"goflare.io/broker/internal/config"
	"goflare.io/broker/internal/metrics"
	"goflare.io/broker/internal/models"
	"goflare.io/broker/internal/utils"
)

// Secondary is the shared store of enriched records.
type Secondary interface {
	Recent(ctx context.Context, kind models.Kind, limit int) (*models.Entry, error)
	Find(ctx context.Context, kind models.Kind, id string) (models.Record, error)
}

// Primary is the system of record for raw content.
type Primary interface {
	Published(ctx context.Context, limit int) ([]models.Item, error)
	Item(ctx context.Context, id string) (models.Item, error)
}

// Deriver projects raw items into enriched records.
type Deriver interface {
	Derive(kind models.Kind, items []models.Item, computedAt time.Time) ([]models.Record, error)
}

// Dispatcher hands derived records to the write-back path. It must not block.
type Dispatcher interface {
	Dispatch(kind models.Kind, records []models.Record) bool
}

// Cache is the read-through enrichment cache.
type Cache struct {
	secondary  Secondary
	primary    Primary
	deriver    Deriver
	dispatcher Dispatcher
	local      *limited.Cache

	config  *config.Config
	stats   *models.Metrics
	breaker *gobreaker.CircuitBreaker
	sf      singleflight.Group
	tracer  trace.Tracer
	logger  *zap.Logger
	now     func() time.Time
}

// New wires a Cache. local may be nil to disable the in-process tier.
func New(
	cfg *config.Config,
	secondary Secondary,
	primary Primary,
	deriver Deriver,
	dispatcher Dispatcher,
	local *limited.Cache,
	stats *models.Metrics,
) *Cache {
	if stats == nil {
		stats = models.NewMetrics()
	}

	settings := cfg.ResilienceConfig.PrimaryCircuitBreaker
	if settings.IsSuccessful == nil {
		settings.IsSuccessful = func(err error) bool {
			return err == nil || errors.Is(err, models.ErrNotFound) || models.IsCanceled(err)
		}
	}

	return &Cache{
		secondary:  secondary,
		primary:    primary,
		deriver:    deriver,
		dispatcher: dispatcher,
		local:      local,
		config:     cfg,
		stats:      stats,
		breaker:    gobreaker.NewCircuitBreaker(settings),
		tracer:     otel.Tracer("goflare.io/broker/readthrough"),
		logger:     cfg.Logger,
		now:        time.Now,
	}
}

// Get returns up to limit records of kind, most recent first.
func (c *Cache) Get(ctx context.Context, kind models.Kind, limit int) (models.Result, error) {
	return c.read(ctx, "Cache.Get", kind, limit, false)
}

// Refresh recomputes kind from the primary store regardless of what the
// cache holds. Fallbacks are the same as for Get.
func (c *Cache) Refresh(ctx context.Context, kind models.Kind, limit int) (models.Result, error) {
	return c.read(ctx, "Cache.Refresh", kind, limit, true)
}

func (c *Cache) read(ctx context.Context, op string, kind models.Kind, limit int, force bool) (models.Result, error) {
	if !kind.Valid() {
		return models.Result{}, fmt.Errorf("%w: %q", models.ErrUnknownKind, kind)
	}
	limit = c.config.ClampLimit(limit)

	ctx, span := c.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.Int("limit", limit),
	))
	defer span.End()

	result := c.resolve(ctx, kind, limit, force)
	span.SetAttributes(attribute.String("source", string(result.Source)), attribute.Bool("stale", result.Stale))
	metrics.Reads.WithLabelValues(string(kind), string(result.Source)).Inc()
	return result, nil
}

func (c *Cache) resolve(ctx context.Context, kind models.Kind, limit int, force bool) models.Result {
	if force && c.local != nil {
		c.local.Invalidate(kind)
	}

	if !force && c.local != nil {
		if entry, ok := c.local.Get(kind, limit); ok {
			c.stats.LocalHits.Inc()
			return c.fromCache(entry.Records, false)
		}
	}

	cached, err := c.secondary.Recent(ctx, kind, limit)
	if err != nil {
		c.stats.SecondaryErrors.Inc()
		c.logger.Warn("Failed to read secondary store", zap.String("kind", string(kind)), zap.Error(err))
		cached = nil
	}

	if !force && cached.Fresh(c.now(), c.config.Freshness) {
		c.stats.CacheHits.Inc()
		if c.local != nil {
			c.local.Put(kind, limit, *cached)
		}
		return c.fromCache(cached.Records, false)
	}

	records, err := c.recompute(ctx, kind, limit)
	if err != nil {
		c.logger.Warn("Failed to recompute from primary store", zap.String("kind", string(kind)), zap.Error(err))
	}
	if len(records) > 0 {
		c.stats.BrokerServed.Inc()
		return models.Result{Data: records, Source: models.SourceBroker, FetchedAt: c.now()}
	}

	return c.fallback(kind, cached)
}

// fallback serves whatever the secondary store had, or reports unavailability.
func (c *Cache) fallback(kind models.Kind, cached *models.Entry) models.Result {
	if !cached.Empty() {
		stale := !cached.Fresh(c.now(), c.config.Freshness)
		if stale {
			c.stats.StaleServed.Inc()
		} else {
			c.stats.CacheHits.Inc()
		}
		c.logger.Debug("Serving cached records without recompute",
			zap.String("kind", string(kind)),
			zap.Bool("stale", stale),
			zap.Duration("age", cached.Age(c.now())),
		)
		return c.fromCache(cached.Records, stale)
	}

	c.stats.Unavailable.Inc()
	return models.Unavailable(c.now())
}

func (c *Cache) fromCache(records []models.Record, stale bool) models.Result {
	return models.Result{Data: records, Source: models.SourceCache, Stale: stale, FetchedAt: c.now()}
}

// recompute reads the primary store and derives records. Concurrent callers
// for the same page share one computation, and only that one computation
// is written back.
func (c *Cache) recompute(ctx context.Context, kind models.Kind, limit int) ([]models.Record, error) {
	key := utils.Key(string(kind), strconv.Itoa(limit))
	v, err, shared := c.sf.Do(key, func() (interface{}, error) {
		ctx, cancel := c.detach(ctx)
		defer cancel()

		start := time.Now()
		res, err := c.breaker.Execute(func() (interface{}, error) {
			return c.primary.Published(ctx, limit)
		})
		if err != nil {
			c.stats.PrimaryErrors.Inc()
			metrics.StoreErrors.WithLabelValues(metrics.StorePrimary, "published").Inc()
			return nil, err
		}

		items, _ := res.([]models.Item)
		if len(items) == 0 {
			return []models.Record(nil), nil
		}

		records, err := c.deriver.Derive(kind, items, c.now())
		if err != nil {
			return nil, err
		}
		metrics.Recompute.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

		c.writeBack(kind, records)
		if c.local != nil {
			c.local.Put(kind, limit, *models.NewEntry(records))
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("Joined in-flight recompute", zap.String("key", key))
	}
	records, _ := v.([]models.Record)
	return records, nil
}

// detach returns the context a shared recompute runs under: it keeps ctx's
// values, ignores its cancellation and is bounded by PrimaryTimeout.
func (c *Cache) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if timeout := c.config.ResilienceConfig.PrimaryTimeout; timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

func (c *Cache) writeBack(kind models.Kind, records []models.Record) {
	if c.dispatcher == nil {
		return
	}
	if !c.dispatcher.Dispatch(kind, records) {
		c.logger.Warn("Write-back not queued", zap.String("kind", string(kind)), zap.Int("count", len(records)))
	}
}
