// Package store builds the optional prediction cache selected by configuration.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HatiCode/rnncast/cmd/predictor/config"
	"github.com/HatiCode/rnncast/pkg/storage"
)

// Cache is a prediction store that owns resources released by Close.
type Cache interface {
	storage.Store
	Close() error
}

// New creates the cache for cfg.Cache. It returns a nil Cache and a nil
// health check when caching is disabled. The health check is non-nil only
// for backends that can become unreachable.
func New(cfg *config.Config, logger *slog.Logger) (Cache, func(ctx context.Context) error, error) {
	switch cfg.Cache {
	case config.CacheNone, "":
		logger.Info("prediction cache disabled")
		return nil, nil, nil

	case config.CacheMemory:
		logger.Info("using in-memory prediction cache", "ttl", cfg.CacheTTL)
		cleanup := cfg.CacheTTL / 2
		if cleanup <= 0 {
			cleanup = cfg.CacheTTL
		}
		return storage.NewMemoryStoreWithTTL(cfg.CacheTTL, cleanup), nil, nil

	case config.CacheRedis:
		logger.Info("using Redis prediction cache",
			"addr", cfg.RedisAddr,
			"db", cfg.RedisDB,
			"ttl", cfg.CacheTTL,
		)
		rs, err := storage.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("create redis store: %w", err)
		}
		return rs, rs.Ping, nil

	default:
		return nil, nil, fmt.Errorf("invalid cache %q", cfg.Cache)
	}
}
