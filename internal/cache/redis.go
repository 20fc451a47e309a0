package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kgviz/svc-kg/pkg/logger"
)

// Redis is the cross-process cache backend, enabled by REDIS_URL.
type Redis struct {
	client *redis.Client
}

func NewRedis(url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Redis{client: redis.NewClient(opts)}, nil
}

func (r *Redis) Kind() string {
	return "redis"
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Redis GET failed", "key", key, "err", err)
		}
		return nil, false
	}
	return raw, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.Warn("Redis SET failed", "key", key, "err", err)
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}
