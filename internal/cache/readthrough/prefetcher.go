package readthrough

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"goflare.io/broker/internal/models"
)

// Warmup reads each kind once at the default limit so the caches are
// populated before the first real request. Unavailable kinds are logged,
// not returned.
func (c *Cache) Warmup(ctx context.Context, kinds ...models.Kind) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, kind := range kinds {
		wg.Add(1)
		go func(k models.Kind) {
			defer wg.Done()
			result, err := c.Get(ctx, k, c.config.DefaultLimit)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}
			if result.Source == models.SourceUnavailable {
				c.logger.Warn("Failed to warm up kind", zap.String("kind", string(k)))
				return
			}
			c.logger.Debug("Warmed up kind",
				zap.String("kind", string(k)),
				zap.String("source", string(result.Source)),
				zap.Int("count", len(result.Data)),
			)
		}(kind)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// Run warms the configured kinds on every interval tick until ctx is done.
// It returns immediately when periodic prefetch is disabled.
func (c *Cache) Run(ctx context.Context) {
	interval := c.config.Prefetch.Interval
	if interval <= 0 || len(c.config.Prefetch.WarmupKinds) == 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Warmup(ctx, c.config.Prefetch.WarmupKinds...); err != nil {
				c.logger.Warn("Failed to prefetch", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}
