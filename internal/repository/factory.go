package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"shortlink-proxy/internal/config"
)

// NewStore 按 store.driver 创建存储，调用方负责 Close
func NewStore(cfg *config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.Store.Driver {
	case "", "memory":
		logger.Warn("Using in-memory store, links are lost on restart")
		return NewMemoryStore(), nil

	case "badger":
		return OpenBadgerStore(cfg.Store.BadgerPath, logger)

	case "redis":
		pool := NewRedisPool(cfg.Redis, logger)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		conn, err := pool.GetContext(ctx)
		if err != nil {
			_ = pool.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		if _, err := conn.Do("PING"); err != nil {
			_ = conn.Close()
			_ = pool.Close()
			return nil, fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr, err)
		}
		_ = conn.Close()
		return NewRedisStore(pool, logger), nil

	case "mysql", "sqlite":
		db, err := OpenDB(cfg.Store.Driver, cfg.Store.DSN, logger)
		if err != nil {
			return nil, err
		}
		return NewGormStore(db), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
