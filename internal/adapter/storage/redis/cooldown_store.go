package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// CooldownStore implements ports.CooldownStore using Redis SET NX.
type CooldownStore struct {
	client *goredis.Client
	prefix string
}

// NewCooldownStore creates a new Redis-backed cooldown store.
func NewCooldownStore(client *goredis.Client) *CooldownStore {
	return &CooldownStore{
		client: client,
		prefix: "faucet:cooldown:",
	}
}

// CheckAndSet atomically starts a cooldown window for the account if none is
// active. Returns true if the window was started, false if one is running.
func (s *CooldownStore) CheckAndSet(ctx context.Context, account string, ttl time.Duration) (bool, error) {
	key := s.prefix + account
	result, err := s.client.SetArgs(ctx, key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if err == goredis.Nil {
			// Key already exists — the cooldown is still running
			return false, nil
		}
		return false, fmt.Errorf("redis cooldown check: %w", err)
	}
	return result == "OK", nil
}
