package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// New builds the shared client for the status/menu caches, event dedup and
// the payout-account store. Short timeouts: a slow cache must never stall a
// checkout.
func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func Exists(ctx context.Context, rdb *redis.Client, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}
