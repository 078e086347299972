package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"goflare.io/broker"
	"goflare.io/broker/internal/config"
	"goflare.io/broker/internal/content"
)

// runtime holds everything a command needs. close releases it in reverse
// order of construction.
type runtime struct {
	env     *config.Environment
	logger  *zap.Logger
	redis   *redis.Client
	content *content.Store
	broker  *broker.Broker
}

func newLogger(e config.LoggerEnv) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(e.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", e.Level)
	}

	var cfg zap.Config
	if e.Format == "console" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	return cfg.Build()
}

func setup(ctx context.Context, withBroker bool) (*runtime, error) {
	env, err := config.ParseEnvironment()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	logger, err := newLogger(env.Logger)
	if err != nil {
		return nil, err
	}

	rt := &runtime{env: env, logger: logger}

	rt.content, err = content.Open(env.Database.DSN, logger)
	if err != nil {
		return nil, errors.Wrap(err, "could not open content store")
	}

	if !withBroker {
		return rt, nil
	}

	rt.redis = redis.NewClient(&redis.Options{
		Addr:     env.Redis.Addr,
		Password: env.Redis.Password,
		DB:       env.Redis.DB,
	})

	opts, err := env.Options()
	if err != nil {
		rt.close(ctx)
		return nil, errors.WithStack(err)
	}
	opts = append(opts, broker.WithLogger(logger))

	rt.broker, err = broker.New(ctx, rt.redis, rt.content, opts...)
	if err != nil {
		rt.close(ctx)
		return nil, errors.Wrap(err, "could not start broker")
	}

	return rt, nil
}

func (rt *runtime) close(ctx context.Context) {
	if rt.broker != nil {
		if err := rt.broker.Close(ctx); err != nil {
			rt.logger.Error("Failed to close broker", zap.Error(err))
		}
	}
	if rt.redis != nil {
		if err := rt.redis.Close(); err != nil {
			rt.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}
	if rt.content != nil {
		if err := rt.content.Close(); err != nil {
			rt.logger.Error("Failed to close content store", zap.Error(err))
		}
	}
	_ = rt.logger.Sync()
}
