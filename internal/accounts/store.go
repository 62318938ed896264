// Package accounts maps a property to its payment-processor account id. The
// mapping lives in Redis so it survives restarts and is shared by every
// instance.
package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/eddiefio/guestify-checkout/internal/redisx"
)

var ErrNotFound = errors.New("no payout account for property")

type Store struct {
	Redis *redis.Client
}

func (s *Store) Set(ctx context.Context, propertyID, accountID string) error {
	key := fmt.Sprintf(redisx.KeyPayoutAccount, propertyID)
	return s.Redis.Set(ctx, key, accountID, 0).Err()
}

func (s *Store) Get(ctx context.Context, propertyID string) (string, error) {
	key := fmt.Sprintf(redisx.KeyPayoutAccount, propertyID)
	v, err := s.Redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}
