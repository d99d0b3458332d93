package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"
	"shortlink-proxy/constant"
	"shortlink-proxy/internal/config"
	"shortlink-proxy/internal/model"
)

const (
	scanCount = 200
	mgetBatch = 100
)

// NewRedisPool 创建 Redis 连接池
func NewRedisPool(cfg config.RedisConfig, logger *zap.Logger) *redis.Pool {
	addr := cfg.Addr

	return &redis.Pool{
		MaxIdle:     10,
		IdleTimeout: 240 * time.Second,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			conn, err := redis.DialContext(ctx, "tcp", addr,
				redis.DialPassword(cfg.Password),
				redis.DialDatabase(cfg.DB),
				redis.DialConnectTimeout(5*time.Second),
			)
			if err != nil {
				logger.Error("Failed to connect Redis",
					zap.String("addr", addr),
					zap.Error(err),
				)
				return nil, err
			}

			logger.Debug("Redis connection established",
				zap.String("addr", addr),
				zap.Bool("auth", cfg.Password != ""),
			)
			return conn, nil
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) > time.Minute {
				_, err := c.Do("PING")
				if err != nil {
					logger.Warn("Redis connection health check failed",
						zap.String("addr", addr),
						zap.Error(err),
					)
				}
				return err
			}
			return nil
		},
	}
}

// RedisStore 以 proxy:<code> 为键、JSON 为值保存短链
type RedisStore struct {
	pool   *redis.Pool
	logger *zap.Logger
}

func NewRedisStore(pool *redis.Pool, logger *zap.Logger) *RedisStore {
	return &RedisStore{pool: pool, logger: logger}
}

// do 取连接执行 fn，结束后归还连接
func (s *RedisStore) do(ctx context.Context, fn func(conn redis.Conn) error) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("get redis connection: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Error("Failed to close Redis connection",
				zap.Error(err),
				zap.String("operation", "close"),
				zap.String("connection_type", "redis"),
			)
		}
	}()
	return fn(conn)
}

func (s *RedisStore) Get(ctx context.Context, code string) (*model.ShortLink, error) {
	var link *model.ShortLink
	err := s.do(ctx, func(conn redis.Conn) error {
		data, err := redis.Bytes(redis.DoContext(conn, ctx, "GET", constant.GetRedisLinkKey(code)))
		if errors.Is(err, redis.ErrNil) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("redis GET: %w", err)
		}
		link, err = decodeLink(code, data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (s *RedisStore) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.do(ctx, func(conn redis.Conn) error {
		var err error
		exists, err = redis.Bool(redis.DoContext(conn, ctx, "EXISTS", constant.GetRedisLinkKey(code)))
		if err != nil {
			return fmt.Errorf("redis EXISTS: %w", err)
		}
		return nil
	})
	return exists, err
}

func (s *RedisStore) Set(ctx context.Context, link *model.ShortLink) error {
	data, err := encodeLink(link)
	if err != nil {
		return err
	}
	return s.do(ctx, func(conn redis.Conn) error {
		if _, err := redis.DoContext(conn, ctx, "SET", constant.GetRedisLinkKey(link.Code), data); err != nil {
			return fmt.Errorf("redis SET: %w", err)
		}
		return nil
	})
}

// List 用 SCAN 收集键（不阻塞 Redis），排序后分批 MGET
func (s *RedisStore) List(ctx context.Context) ([]model.ShortLink, error) {
	var links []model.ShortLink

	err := s.do(ctx, func(conn redis.Conn) error {
		keys, err := s.scanKeys(ctx, conn)
		if err != nil {
			return err
		}
		sort.Strings(keys)

		prefix := constant.GetRedisLinkKey("")
		for start := 0; start < len(keys); start += mgetBatch {
			end := min(start+mgetBatch, len(keys))
			args := redis.Args{}.AddFlat(keys[start:end])
			values, err := redis.ByteSlices(redis.DoContext(conn, ctx, "MGET", args...))
			if err != nil {
				return fmt.Errorf("redis MGET: %w", err)
			}
			for i, val := range values {
				if val == nil {
					continue // 键在 SCAN 之后被外部删除
				}
				code := strings.TrimPrefix(keys[start+i], prefix)
				link, err := decodeLink(code, val)
				if err != nil {
					s.logger.Warn("Skipping corrupt short link record",
						zap.String("code", code),
						zap.Error(err),
					)
					continue
				}
				links = append(links, *link)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (s *RedisStore) scanKeys(ctx context.Context, conn redis.Conn) ([]string, error) {
	var keys []string
	seen := make(map[string]struct{})
	cursor := 0
	for {
		reply, err := redis.Values(redis.DoContext(conn, ctx, "SCAN", cursor,
			"MATCH", constant.GetRedisLinkPattern(), "COUNT", scanCount))
		if err != nil {
			return nil, fmt.Errorf("redis SCAN: %w", err)
		}

		var batch []string
		if _, err := redis.Scan(reply, &cursor, &batch); err != nil {
			return nil, fmt.Errorf("parse SCAN reply: %w", err)
		}
		// SCAN 可能重复返回同一个键
		for _, key := range batch {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}

		if cursor == 0 {
			return keys, nil
		}
	}
}

func (s *RedisStore) Close() error {
	return s.pool.Close()
}
