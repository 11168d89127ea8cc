package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// FreezeStore implements usecase.FreezeStore using Redis. A frozen retailer
// is a key holding the freeze reason, with no expiry: only an explicit
// unfreeze lifts it.
type FreezeStore struct {
	client *redis.Client
	prefix string
}

// NewFreezeStore creates a new FreezeStore.
func NewFreezeStore(client *redis.Client) *FreezeStore {
	return &FreezeStore{
		client: client,
		prefix: "settlement-freeze:",
	}
}

// Freeze blocks settlement execution for the retailer.
func (s *FreezeStore) Freeze(ctx context.Context, retailerID, reason string) error {
	return s.client.Set(ctx, s.prefix+retailerID, reason, 0).Err()
}

// IsFrozen reports whether the retailer is frozen and why.
func (s *FreezeStore) IsFrozen(ctx context.Context, retailerID string) (bool, string, error) {
	reason, err := s.client.Get(ctx, s.prefix+retailerID).Result()
	if errors.Is(err, redis.Nil) {
		return false, "", nil
	}
	if err != nil {
		return false, "", err
	}

	return true, reason, nil
}

// Unfreeze lifts the freeze.
func (s *FreezeStore) Unfreeze(ctx context.Context, retailerID string) error {
	return s.client.Del(ctx, s.prefix+retailerID).Err()
}
