package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"goflare.io/broker/internal/config"
	"goflare.io/broker/internal/models"
	"goflare.io/broker/internal/retrier"
)

// resilience wraps every Redis round trip in a retrier and a circuit breaker.
type resilience struct {
	retrier *retrier.Retrier
	breaker *gobreaker.CircuitBreaker
}

func newResilience(cfg config.ResilienceConfig) (*resilience, error) {
	r, err := retrier.NewRetrier(
		cfg.MaxRetries,
		cfg.InitialInterval,
		cfg.MaxInterval,
		cfg.Multiplier,
		cfg.RandomizationFactor,
		retrier.ExponentialBackoff,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retrier: %w", err)
	}

	settings := cfg.SecondaryCircuitBreaker
	if settings.IsSuccessful == nil {
		// a miss is an answer, and an abandoned call says nothing about Redis
		settings.IsSuccessful = func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil) || models.IsCanceled(err)
		}
	}

	return &resilience{
		retrier: r,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}, nil
}

func (r *resilience) do(ctx context.Context, fn func() error) error {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.retrier.Run(ctx, fn)
	})
	return err
}
