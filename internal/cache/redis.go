package cache

import (
	"context"
	"encoding/json"
	"time"

	"courtsched/config"
	"courtsched/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisCache holds the prefetched schedule window so that every page view
// does not hit the database. The payload is the date -> slot -> reservation
// mapping; it is dropped outright whenever a booking or cancellation lands.
type RedisCache struct {
	client      *redis.Client
	scheduleTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, scheduleTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:      redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		scheduleTTL: scheduleTTL,
	}
}

func (c *RedisCache) GetSchedule(ctx context.Context) (map[string]map[string]domain.Reservation, error) {
	data, err := c.client.Get(ctx, scheduleKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var days map[string]map[string]domain.Reservation
	if err := json.Unmarshal(data, &days); err != nil {
		return nil, err
	}
	return days, nil
}

func (c *RedisCache) SetSchedule(ctx context.Context, days map[string]map[string]domain.Reservation) error {
	payload, err := json.Marshal(days)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, scheduleKey(), payload, c.scheduleTTL).Err()
}

func (c *RedisCache) InvalidateSchedule(ctx context.Context) error {
	return c.client.Del(ctx, scheduleKey()).Err()
}

func scheduleKey() string {
	return "cache:schedule"
}
