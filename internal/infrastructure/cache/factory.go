package cache

import (
	"fmt"

	"github.com/goodsdist/backend/internal/domain/shared"
	"github.com/goodsdist/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ReplayStoreFactory creates replay stores based on configuration
type ReplayStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ReplayStoreFactoryOption is a functional option for configuring the factory
type ReplayStoreFactoryOption func(*ReplayStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ReplayStoreFactoryOption {
	return func(f *ReplayStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) ReplayStoreFactoryOption {
	return func(f *ReplayStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewReplayStoreFactory creates a new factory
func NewReplayStoreFactory(cfg config.RedisConfig, opts ...ReplayStoreFactoryOption) *ReplayStoreFactory {
	f := &ReplayStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a Redis store when Redis is enabled and reachable, and
// the in-memory store otherwise (if fallback is allowed).
func (f *ReplayStoreFactory) CreateStore() (shared.ReplayStore, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory replay store")
		return NewInMemoryReplayStore(), nil
	}

	store, err := NewRedisReplayStore(f.redisConfig.Addr(), f.redisConfig.Password, f.redisConfig.DB)
	if err == nil {
		f.logger.Info("using Redis replay store", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for replay store but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory replay store. "+
		"Retried replenishments may be applied twice across instances.",
		zap.Error(err),
	)
	return NewInMemoryReplayStore(), nil
}
