package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"goflare.io/broker/internal/models"
	"goflare.io/broker/pkg/serialization"
)

// Config 用於 Broker 的配置
type Config struct {
	// Freshness is the maximum age of a cached page before it is recomputed.
	Freshness    time.Duration
	DefaultLimit int
	MaxLimit     int
	// Retention is applied as a TTL on the secondary store keys on every upsert.
	// Zero keeps keys forever.
	Retention time.Duration
	KeyPrefix string

	LocalCache       LocalCacheConfig
	Enrichment       EnrichmentConfig
	WriteBack        WriteBackConfig
	ResilienceConfig ResilienceConfig
	BloomFilter      BloomFilterConfig
	Prefetch         PrefetchConfig
	Serialization    SerializationConfig
	Logger           *zap.Logger
}

// LocalCacheConfig 本地快取配置
type LocalCacheConfig struct {
	Enabled    bool
	MaxEntries int64
}

// EnrichmentConfig holds the derivation knobs. None of these are business
// rules; they exist so they can be tuned without a release.
type EnrichmentConfig struct {
	DefaultReliability float64
	DefaultVelocity    float64
	VerifiedBonus      float64
	// Quorum is how many of the three text sources (title, excerpt, body)
	// must carry a statistic for it to count as corroborated.
	Quorum      int
	MaxStats    int
	FallbackTag string
	// TeamsFile overrides the embedded team catalog when set.
	TeamsFile string
}

// WriteBackConfig 寫回隊列配置
type WriteBackConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// ResilienceConfig 用於設置重試和熔斷器
type ResilienceConfig struct {
	SecondaryCircuitBreaker gobreaker.Settings
	PrimaryCircuitBreaker   gobreaker.Settings
	// PrimaryTimeout bounds one shared recompute from the primary store.
	PrimaryTimeout          time.Duration
	MaxRetries              int
	InitialInterval         time.Duration
	MaxInterval             time.Duration
	Multiplier              float64
	RandomizationFactor     float64
}

// BloomFilterConfig 用於布隆過濾器的配置
type BloomFilterConfig struct {
	ExpectedItems     uint
	FalsePositiveRate float64
	RebuildInterval   time.Duration
	RedisKey          string
}

// PrefetchConfig controls startup warmup and periodic refresh.
type PrefetchConfig struct {
	WarmupKinds []models.Kind
	// Interval of zero disables periodic refresh.
	Interval time.Duration
}

// SerializationConfig 序列化相關配置
type SerializationConfig struct {
	Codec serialization.Codec
}

// Option 函數類型
type Option func(*Config) error

var (
	ErrInvalidFreshness = errors.New("freshness threshold must be positive")
	ErrInvalidLimit     = errors.New("limits must be positive and default must not exceed max")
	ErrInvalidQuorum    = errors.New("quorum must be between 1 and 3")
	ErrInvalidWriteBack = errors.New("write-back workers and queue size must be positive")
)

// NewConfig 創建一個默認的 Config，允許覆蓋特定參數
func NewConfig(options ...Option) (*Config, error) {
	cfg := &Config{
		Freshness:    15 * time.Minute,
		DefaultLimit: 10,
		MaxLimit:     100,
		Retention:    7 * 24 * time.Hour,
		KeyPrefix:    "broker",
		LocalCache: LocalCacheConfig{
			Enabled:    true,
			MaxEntries: 1024,
		},
		Enrichment: EnrichmentConfig{
			DefaultReliability: 0.5,
			DefaultVelocity:    0,
			VerifiedBonus:      0.4,
			Quorum:             2,
			MaxStats:           5,
			FallbackTag:        "general",
		},
		WriteBack: WriteBackConfig{
			Workers:   2,
			QueueSize: 256,
			Timeout:   5 * time.Second,
		},
		ResilienceConfig: ResilienceConfig{
			SecondaryCircuitBreaker: gobreaker.Settings{
				Name:        "SecondaryStore",
				MaxRequests: 3,
				Interval:    60 * time.Second,
				Timeout:     30 * time.Second,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures > 5
				},
			},
			PrimaryCircuitBreaker: gobreaker.Settings{
				Name:        "PrimaryStore",
				MaxRequests: 3,
				Interval:    60 * time.Second,
				Timeout:     15 * time.Second,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures > 3
				},
			},
			PrimaryTimeout:      10 * time.Second,
			MaxRetries:          3,
			InitialInterval:     50 * time.Millisecond,
			MaxInterval:         time.Second,
			Multiplier:          2,
			RandomizationFactor: 0.1,
		},
		BloomFilter: BloomFilterConfig{
			ExpectedItems:     100_000,
			FalsePositiveRate: 0.01,
			RebuildInterval:   time.Hour,
			RedisKey:          "bloom",
		},
		Prefetch: PrefetchConfig{
			WarmupKinds: nil,
		},
		Serialization: SerializationConfig{
			Codec: serialization.NewJSONCodec(),
		},
		Logger: zap.NewNop(),
	}

	// 應用所有選項
	for _, option := range options {
		if err := option(cfg); err != nil {
			return nil, err
		}
	}

	// 最終檢查
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the invariants the read path depends on.
func (c *Config) Validate() error {
	if c.Freshness <= 0 {
		return ErrInvalidFreshness
	}
	if c.DefaultLimit <= 0 || c.MaxLimit <= 0 || c.DefaultLimit > c.MaxLimit {
		return ErrInvalidLimit
	}
	if c.Enrichment.Quorum < 1 || c.Enrichment.Quorum > 3 {
		return ErrInvalidQuorum
	}
	if c.WriteBack.Workers <= 0 || c.WriteBack.QueueSize <= 0 {
		return ErrInvalidWriteBack
	}
	for _, k := range c.Prefetch.WarmupKinds {
		if !k.Valid() {
			return fmt.Errorf("warmup: %w: %q", models.ErrUnknownKind, k)
		}
	}
	return nil
}

// ClampLimit maps a caller-supplied limit onto [1, MaxLimit], using the
// default for non-positive values.
func (c *Config) ClampLimit(limit int) int {
	if limit <= 0 {
		return c.DefaultLimit
	}
	if limit > c.MaxLimit {
		return c.MaxLimit
	}
	return limit
}

// WithLogger 設置自定義 Logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) error {
		if logger != nil {
			c.Logger = logger
		}
		return nil
	}
}

// WithFreshness sets the freshness threshold.
func WithFreshness(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return ErrInvalidFreshness
		}
		c.Freshness = d
		return nil
	}
}

// WithLimits sets the default and maximum page sizes.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(c *Config) error {
		c.DefaultLimit = defaultLimit
		c.MaxLimit = maxLimit
		return nil
	}
}

// WithRetention sets the secondary store key TTL.
func WithRetention(d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 {
			return errors.New("retention must not be negative")
		}
		c.Retention = d
		return nil
	}
}

// WithKeyPrefix namespaces every secondary store key.
func WithKeyPrefix(prefix string) Option {
	return func(c *Config) error {
		if prefix == "" {
			return errors.New("key prefix must not be empty")
		}
		c.KeyPrefix = prefix
		return nil
	}
}

// WithLocalCache enables or disables the in-process cache tier.
func WithLocalCache(enabled bool, maxEntries int64) Option {
	return func(c *Config) error {
		if enabled && maxEntries <= 0 {
			return errors.New("local cache max entries must be greater than 0")
		}
		c.LocalCache = LocalCacheConfig{Enabled: enabled, MaxEntries: maxEntries}
		return nil
	}
}

// WithEnrichment replaces the derivation settings.
func WithEnrichment(e EnrichmentConfig) Option {
	return func(c *Config) error {
		c.Enrichment = e
		return nil
	}
}

// WithQuorum sets how many sources must agree on a statistic.
func WithQuorum(n int) Option {
	return func(c *Config) error {
		c.Enrichment.Quorum = n
		return nil
	}
}

// WithTeamsFile loads the team catalog from a YAML file instead of the
// embedded one.
func WithTeamsFile(path string) Option {
	return func(c *Config) error {
		c.Enrichment.TeamsFile = path
		return nil
	}
}

// WithWriteBack sizes the write-back queue.
func WithWriteBack(workers, queueSize int, timeout time.Duration) Option {
	return func(c *Config) error {
		c.WriteBack = WriteBackConfig{Workers: workers, QueueSize: queueSize, Timeout: timeout}
		return nil
	}
}

// WithRetries tunes the secondary store retrier.
func WithRetries(maxRetries int, initial, max time.Duration) Option {
	return func(c *Config) error {
		c.ResilienceConfig.MaxRetries = maxRetries
		c.ResilienceConfig.InitialInterval = initial
		c.ResilienceConfig.MaxInterval = max
		return nil
	}
}

// WithPrimaryTimeout bounds each recompute from the primary store. Zero
// leaves it unbounded.
func WithPrimaryTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 {
			return errors.New("primary timeout must not be negative")
		}
		c.ResilienceConfig.PrimaryTimeout = d
		return nil
	}
}

// WithWarmup lists kinds to prefetch at startup and, when interval > 0,
// on a ticker afterwards.
func WithWarmup(interval time.Duration, kinds ...models.Kind) Option {
	return func(c *Config) error {
		c.Prefetch = PrefetchConfig{WarmupKinds: kinds, Interval: interval}
		return nil
	}
}

// WithSerialization 設置序列化方式
func WithSerialization(name string) Option {
	return func(c *Config) error {
		codec, err := serialization.ByName(name)
		if err != nil {
			return err
		}
		c.Serialization.Codec = codec
		return nil
	}
}
