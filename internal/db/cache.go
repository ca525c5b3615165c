package futurecash

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient() (*redis.Client, error) {
	// config
	addr := os.Getenv("FUTURECASH_CACHE_URL")
	if addr == "" {
		return nil, fmt.Errorf("env FUTURECASH_CACHE_URL is not set")
	}
	user := os.Getenv("FUTURECASH_CACHE_USER")
	pwd := os.Getenv("FUTURECASH_CACHE_PWD")

	// redis
	db := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    pwd,
		Username:    user,
		DB:          0,
		MaxRetries:  5,
		DialTimeout: 10 * time.Second,
	})
	err := db.Ping(context.Background()).Err()
	if err != nil {
		return nil, err
	}
	return db, nil
}

func NewCacheService(client *redis.Client, ttl time.Duration) *CacheService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CacheService{client, ttl}
}

func balanceKey(user uuid.UUID) string {
	return "futurecash:balance:" + user.String()
}

func (c *CacheService) GetBalance(ctx context.Context, user uuid.UUID) (points int64, err error) {
	val, err := c.client.Get(ctx, balanceKey(user)).Result()
	if err == redis.Nil {
		return 0, fmt.Errorf("not found")
	} else if err != nil {
		return 0, err
	}

	points, err = strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, err
	}
	return points, nil
}

func (c *CacheService) SetBalance(ctx context.Context, user uuid.UUID, points int64) (err error) {
	return c.client.Set(ctx, balanceKey(user), points, c.ttl).Err()
}

func (c *CacheService) InvalidateBalance(ctx context.Context, user uuid.UUID) error {
	return c.client.Del(ctx, balanceKey(user)).Err()
}
