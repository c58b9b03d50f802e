package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

type RedisCounter struct {
	rdb *redis.Client
	key string
}

func NewRedisCounter(rdb *redis.Client) *RedisCounter {
	return &RedisCounter{rdb: rdb, key: "restaurant:" + CounterKey}
}

func (r *RedisCounter) Load(ctx context.Context) (int, bool, error) {
	val, err := r.rdb.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load counter: %w", err)
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("counter %s holds %q: %w", r.key, val, err)
	}
	return n, true, nil
}

func (r *RedisCounter) Save(ctx context.Context, last int) error {
	if err := r.rdb.Set(ctx, r.key, last, 0).Err(); err != nil {
		return fmt.Errorf("save counter: %w", err)
	}
	return nil
}
