package config

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

var (
	Redis *CacheService
)

type CacheService struct {
	Connection *redis.Client
}

func NewCacheService() error {
	c := redis.NewClient(&redis.Options{
		Addr:     Getenv("REDIS_HOST", "localhost") + ":" + Getenv("REDIS_PORT", "6379"),
		Username: os.Getenv("REDIS_USERNAME"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		return err
	}

	Redis = NewCacheServiceWithClient(c)

	return nil
}

func NewCacheServiceWithClient(c *redis.Client) *CacheService {
	return &CacheService{Connection: c}
}

// GetKey decodes the JSON value stored at key into dst. A missing key
// returns redis.Nil.
func (c *CacheService) GetKey(ctx context.Context, key string, dst interface{}) error {
	val, err := c.Connection.Get(ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(val), dst)
}

func (c *CacheService) SetKey(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	cacheEntry, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.Connection.Set(ctx, key, cacheEntry, expiration).Err()
}

func (c *CacheService) DeleteKey(ctx context.Context, key string) error {
	return c.Connection.Del(ctx, key).Err()
}
