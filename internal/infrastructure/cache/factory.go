package cache

import (
	"github.com/redis/go-redis/v9"
	"github.com/retailpos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Factory builds the Redis backed stores when a client is available and the
// in-memory ones otherwise
type Factory struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// NewFactory accepts a nil client, meaning Redis is disabled or unreachable
func NewFactory(client redis.UniversalClient, opts ...FactoryOption) *Factory {
	f := &Factory{client: client, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) IdempotencyStore() shared.IdempotencyStore {
	if f.client != nil {
		f.logger.Info("using Redis idempotency store")
		return NewRedisIdempotencyStore(f.client)
	}
	f.logger.Warn("Redis unavailable, using in-memory idempotency store; " +
		"payment retries are only deduplicated within this instance")
	return NewInMemoryIdempotencyStore()
}

func (f *Factory) ReportCache() ReportCache {
	if f.client != nil {
		f.logger.Info("using Redis report cache")
		return NewRedisReportCache(f.client)
	}
	f.logger.Warn("Redis unavailable, using in-memory report cache")
	return NewInMemoryReportCache()
}
