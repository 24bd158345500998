package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "linkboard:tx:"

// RedisGuard shares replay state between node processes through Redis.
// Each id is a key set with NX and an expiry equal to the window.
type RedisGuard struct {
	rdb    redis.UniversalClient
	window time.Duration
}

// NewRedis creates a RedisGuard over an existing client.
func NewRedis(rdb redis.UniversalClient, window time.Duration) *RedisGuard {
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisGuard{rdb: rdb, window: window}
}

// Dial connects to Redis at addr and checks the connection.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return rdb, nil
}

// Reserve implements Guard.
func (g *RedisGuard) Reserve(ctx context.Context, id string) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, keyPrefix+id, 1, g.window).Result()
	if err != nil {
		return false, fmt.Errorf("reserve transaction id: %w", err)
	}
	return ok, nil
}

// Release implements Guard.
func (g *RedisGuard) Release(ctx context.Context, id string) error {
	if err := g.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("release transaction id: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (g *RedisGuard) Ping(ctx context.Context) error {
	return g.rdb.Ping(ctx).Err()
}
