package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"goflare.io/broker/internal/models"
)

// Environment is the process configuration of the brokerd binary, read from
// BROKER_* variables.
type Environment struct {
	Logger   LoggerEnv   `envPrefix:"LOGGER_"`
	HTTP     HTTPEnv     `envPrefix:"HTTP_"`
	Redis    RedisEnv    `envPrefix:"REDIS_"`
	Database DatabaseEnv `envPrefix:"DATABASE_"`
	Broker   BrokerEnv
}

type LoggerEnv struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

type HTTPEnv struct {
	Address        string   `env:"ADDRESS,expand" envDefault:":3080"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*"`
}

type RedisEnv struct {
	Addr     string `env:"ADDR,expand" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD,expand"`
	DB       int    `env:"DB" envDefault:"0"`
}

type DatabaseEnv struct {
	DSN string `env:"DSN,expand" envDefault:"content.sqlite"`
}

type BrokerEnv struct {
	Freshness        time.Duration `env:"FRESHNESS" envDefault:"15m"`
	DefaultLimit     int           `env:"DEFAULT_LIMIT" envDefault:"10"`
	MaxLimit         int           `env:"MAX_LIMIT" envDefault:"100"`
	Retention        time.Duration `env:"RETENTION" envDefault:"168h"`
	KeyPrefix        string        `env:"KEY_PREFIX" envDefault:"broker"`
	Quorum           int           `env:"QUORUM" envDefault:"2"`
	TeamsFile        string        `env:"TEAMS_FILE"`
	Serialization    string        `env:"SERIALIZATION" envDefault:"json"`
	LocalCache       bool          `env:"LOCAL_CACHE" envDefault:"true"`
	LocalCacheSize   int64         `env:"LOCAL_CACHE_SIZE" envDefault:"1024"`
	WriteBackWorkers int           `env:"WRITEBACK_WORKERS" envDefault:"2"`
	WriteBackQueue   int           `env:"WRITEBACK_QUEUE" envDefault:"256"`
	WriteBackTimeout time.Duration `env:"WRITEBACK_TIMEOUT" envDefault:"5s"`
	PrimaryTimeout   time.Duration `env:"PRIMARY_TIMEOUT" envDefault:"10s"`
	WarmupKinds      []string      `env:"WARMUP_KINDS"`
	PrefetchInterval time.Duration `env:"PREFETCH_INTERVAL" envDefault:"0s"`
}

// ParseEnvironment reads the process environment.
func ParseEnvironment() (*Environment, error) {
	e, err := env.ParseAsWithOptions[Environment](env.Options{
		Prefix: "BROKER_",
	})
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &e, nil
}

// Options converts the broker section into library options.
func (e *Environment) Options() ([]Option, error) {
	b := e.Broker

	kinds := make([]models.Kind, 0, len(b.WarmupKinds))
	for _, raw := range b.WarmupKinds {
		k, err := models.ParseKind(raw)
		if err != nil {
			return nil, fmt.Errorf("BROKER_WARMUP_KINDS: %w", err)
		}
		kinds = append(kinds, k)
	}

	return []Option{
		WithFreshness(b.Freshness),
		WithLimits(b.DefaultLimit, b.MaxLimit),
		WithRetention(b.Retention),
		WithKeyPrefix(b.KeyPrefix),
		WithQuorum(b.Quorum),
		WithSerialization(b.Serialization),
		WithLocalCache(b.LocalCache, b.LocalCacheSize),
		WithWriteBack(b.WriteBackWorkers, b.WriteBackQueue, b.WriteBackTimeout),
		WithPrimaryTimeout(b.PrimaryTimeout),
		WithWarmup(b.PrefetchInterval, kinds...),
		WithTeamsFile(b.TeamsFile),
	}, nil
}
