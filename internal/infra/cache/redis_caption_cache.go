// internal/infra/cache/redis_caption_cache.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const captionKeyPrefix = "export-stats:meme:caption:"

// NewRedisClient connects to Redis and pings it.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// RedisCaptionCache stores generated meme URLs keyed by streak length.
type RedisCaptionCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisCaptionCache(client redis.Cmdable, ttl time.Duration) *RedisCaptionCache {
	return &RedisCaptionCache{client: client, ttl: ttl}
}

func captionKey(streak int) string {
	return captionKeyPrefix + strconv.Itoa(streak)
}

func (c *RedisCaptionCache) GetCaption(ctx context.Context, streak int) (string, bool, error) {
	url, err := c.client.Get(ctx, captionKey(streak)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("error reading caption from redis: %w", err)
	}
	return url, true, nil
}

func (c *RedisCaptionCache) SetCaption(ctx context.Context, streak int, url string) error {
	if err := c.client.Set(ctx, captionKey(streak), url, c.ttl).Err(); err != nil {
		return fmt.Errorf("error writing caption to redis: %w", err)
	}
	return nil
}
