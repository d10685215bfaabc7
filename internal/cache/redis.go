package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ameyrk91/fitbooking/config"
	"github.com/ameyrk91/fitbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client     *redis.Client
	classesTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, classesTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		classesTTL: classesTTL,
	}
}

func (c *RedisCache) GetClasses(ctx context.Context) ([]domain.FitnessClass, error) {
	data, err := c.client.Get(ctx, classesKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var classes []domain.FitnessClass
	if err := json.Unmarshal(data, &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

func (c *RedisCache) SetClasses(ctx context.Context, classes []domain.FitnessClass) error {
	payload, err := json.Marshal(classes)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, classesKey(), payload, c.classesTTL).Err()
}

// DenyRefreshToken records a logged-out refresh token until its natural
// expiry, after which the key is reaped by redis itself.
func (c *RedisCache) DenyRefreshToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, denyKey(jti), "revoked", ttl).Err()
}

func (c *RedisCache) IsRefreshTokenDenied(ctx context.Context, jti string) (bool, error) {
	n, err := c.client.Exists(ctx, denyKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func classesKey() string {
	return "cache:classes"
}

func denyKey(jti string) string {
	return "denylist:refresh:" + jti
}
