package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/roguepath/internal/config"
	"github.com/aretw0/roguepath/pkg/adapters/file"
	"github.com/aretw0/roguepath/pkg/adapters/memory"
	"github.com/aretw0/roguepath/pkg/adapters/redis"
	"github.com/aretw0/roguepath/pkg/adapters/sqlstore"
	"github.com/aretw0/roguepath/pkg/persistence/middleware"
	"github.com/aretw0/roguepath/pkg/ports"
)

// backend is the configured persistence.
type backend struct {
	store  ports.GraphStore
	locker ports.DistributedLocker
	close  func() error
}

func openBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backend, error) {
	b := &backend{close: func() error { return nil }}
	switch cfg.Store {
	case config.StoreMemory:
		b.store = memory.NewStore()
	case config.StoreFile:
		b.store = file.New(cfg.StoreDir)
	case config.StoreRedis:
		s := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			redis.WithPrefix(cfg.RedisPrefix+"graph:"),
			redis.WithTTL(cfg.RedisTTL),
		)
		if err := s.Client().Ping(ctx).Err(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		b.store = s
		b.close = s.Close
		if cfg.RedisLock {
			b.locker = redis.NewLocker(s.Client(), cfg.RedisPrefix)
		}
	case config.StorePostgres, config.StoreSQLite:
		dialect, err := sqlstore.DialectFor(cfg.Store)
		if err != nil {
			return nil, err
		}
		s, err := sqlstore.Open(ctx, dialect, cfg.StoreDSN)
		if err != nil {
			return nil, err
		}
		b.store = s
		b.close = s.Close
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	mws := []middleware.Middleware{middleware.NewTracingMiddleware(cfg.Store, nil)}
	active, fallback, err := cfg.StoreKeys()
	if err != nil {
		_ = b.close()
		return nil, err
	}
	if active != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
		if err != nil {
			_ = b.close()
			return nil, err
		}
		mws = append(mws, enc)
	}
	b.store = middleware.Chain(b.store, mws...)

	logger.Info("Path store ready", "store", cfg.Store, "locking", b.locker != nil, "encrypted", active != nil)
	return b, nil
}
