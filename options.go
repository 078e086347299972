package broker

import (
	"time"

	"go.uber.org/zap"

	"goflare.io/broker/internal/config"
)

// Option 定義初始化 Broker 的選項
type Option = config.Option

// EnrichmentConfig holds the derivation settings.
type EnrichmentConfig = config.EnrichmentConfig

// WithLogger 設置自定義的日誌記錄器
func WithLogger(logger *zap.Logger) Option {
	return config.WithLogger(logger)
}

// WithFreshness sets how old a cached page may be before it is recomputed.
func WithFreshness(d time.Duration) Option {
	return config.WithFreshness(d)
}

// WithLimits sets the default and maximum page sizes.
func WithLimits(defaultLimit, maxLimit int) Option {
	return config.WithLimits(defaultLimit, maxLimit)
}

// WithRetention sets the TTL applied to Redis keys on every write.
func WithRetention(d time.Duration) Option {
	return config.WithRetention(d)
}

// WithKeyPrefix namespaces the Redis keys.
func WithKeyPrefix(prefix string) Option {
	return config.WithKeyPrefix(prefix)
}

// WithLocalCache 設置本地快取
func WithLocalCache(enabled bool, maxEntries int64) Option {
	return config.WithLocalCache(enabled, maxEntries)
}

// WithEnrichment replaces the derivation settings.
func WithEnrichment(e EnrichmentConfig) Option {
	return config.WithEnrichment(e)
}

// WithQuorum sets how many of title, excerpt and body must carry a
// statistic for it to count as corroborated.
func WithQuorum(n int) Option {
	return config.WithQuorum(n)
}

// WithTeamsFile loads the team catalog from a YAML file.
func WithTeamsFile(path string) Option {
	return config.WithTeamsFile(path)
}

// WithWriteBack sizes the write-back queue.
func WithWriteBack(workers, queueSize int, timeout time.Duration) Option {
	return config.WithWriteBack(workers, queueSize, timeout)
}

// WithRetries tunes retries against Redis.
func WithRetries(maxRetries int, initial, max time.Duration) Option {
	return config.WithRetries(maxRetries, initial, max)
}

// WithPrimaryTimeout bounds each recompute from the primary store.
func WithPrimaryTimeout(d time.Duration) Option {
	return config.WithPrimaryTimeout(d)
}

// WithWarmup prefetches kinds at startup and, when interval > 0, on a ticker.
func WithWarmup(interval time.Duration, kinds ...Kind) Option {
	return config.WithWarmup(interval, kinds...)
}

// WithSerialization 設置序列化方式
func WithSerialization(name string) Option {
	return config.WithSerialization(name)
}
