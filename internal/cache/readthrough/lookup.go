package readthrough

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"goflare.io/broker/internal/metrics"
	"goflare.io/broker/internal/models"
	"goflare.io/broker/internal/utils"
)

// Lookup returns the single record of kind derived from primary item id.
func (c *Cache) Lookup(ctx context.Context, kind models.Kind, id string) (models.Result, error) {
	if !kind.Valid() {
		return models.Result{}, fmt.Errorf("%w: %q", models.ErrUnknownKind, kind)
	}

	ctx, span := c.tracer.Start(ctx, "Cache.Lookup", trace.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("id", id),
	))
	defer span.End()

	result := c.lookup(ctx, kind, id)
	span.SetAttributes(attribute.String("source", string(result.Source)), attribute.Bool("stale", result.Stale))
	metrics.Reads.WithLabelValues(string(kind), string(result.Source)).Inc()
	return result, nil
}

func (c *Cache) lookup(ctx context.Context, kind models.Kind, id string) models.Result {
	if id == "" {
		c.stats.Unavailable.Inc()
		return models.Unavailable(c.now())
	}

	var cached *models.Entry
	record, err := c.secondary.Find(ctx, kind, id)
	switch {
	case err == nil:
		cached = models.NewEntry([]models.Record{record})
		if cached.Fresh(c.now(), c.config.Freshness) {
			c.stats.CacheHits.Inc()
			return c.fromCache(cached.Records, false)
		}
	case errors.Is(err, models.ErrNotFound):
	default:
		c.stats.SecondaryErrors.Inc()
		c.logger.Warn("Failed to read secondary store",
			zap.String("kind", string(kind)),
			zap.String("id", id),
			zap.Error(err),
		)
	}

	records, err := c.recomputeItem(ctx, kind, id)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		c.logger.Warn("Failed to recompute item from primary store",
			zap.String("kind", string(kind)),
			zap.String("id", id),
			zap.Error(err),
		)
	}
	if len(records) > 0 {
		c.stats.BrokerServed.Inc()
		return models.Result{Data: records, Source: models.SourceBroker, FetchedAt: c.now()}
	}

	return c.fallback(kind, cached)
}

func (c *Cache) recomputeItem(ctx context.Context, kind models.Kind, id string) ([]models.Record, error) {
	v, err, _ := c.sf.Do(utils.Key(string(kind), "item", id), func() (interface{}, error) {
		ctx, cancel := c.detach(ctx)
		defer cancel()

		res, err := c.breaker.Execute(func() (interface{}, error) {
			return c.primary.Item(ctx, id)
		})
		if err != nil {
			if !errors.Is(err, models.ErrNotFound) {
				c.stats.PrimaryErrors.Inc()
				metrics.StoreErrors.WithLabelValues(metrics.StorePrimary, "item").Inc()
			}
			return nil, err
		}

		item, _ := res.(models.Item)
		records, err := c.deriver.Derive(kind, []models.Item{item}, c.now())
		if err != nil {
			return nil, err
		}
		c.writeBack(kind, records)
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	records, _ := v.([]models.Record)
	return records, nil
}
