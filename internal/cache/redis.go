package cache

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/stayease/pkg/config"
)

type Cache struct {
	Db *redis.Client
}

func New(ctx context.Context, cfg config.RedisConfig) (*Cache, error) {
	const op = "cache.New"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

func (c *Cache) Close() error {
	return c.Db.Close()
}

// Get returns "" with a nil error for a missing key.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return val, nil
}

func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	const op = "cache.Set"
	if err := c.Db.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Allow counts a hit against key in a fixed window and reports whether the
// count is still within limit.
func (c *Cache) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	const op = "cache.Allow"
	sum := sha256.Sum256([]byte(key))
	k := fmt.Sprintf("ratelimit:%x", sum)

	n, err := c.Db.Incr(ctx, k).Result()
	if err != nil {
		return true, fmt.Errorf("%s: %w", op, err)
	}
	if n == 1 {
		if err := c.Db.Expire(ctx, k, window).Err(); err != nil {
			return true, fmt.Errorf("%s: %w", op, err)
		}
	}
	return n <= int64(limit), nil
}
