package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "blacklist:"

// revokedMarker is the stored value; only key presence matters.
const revokedMarker = "revoked"

// RevocationStore implements repository.RevocationStore using Redis.
// Each record's TTL equals the credential's remaining validity at revocation
// time, so the store never grows past what natural expiry already excludes.
type RevocationStore struct {
	client *redis.Client
}

// NewRevocationStore creates a new Redis-backed revocation store.
func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client}
}

// Revoke marks the credential invalid for the given TTL. A credential with
// no remaining validity needs no record; natural expiry already excludes it.
func (s *RevocationStore) Revoke(ctx context.Context, credential string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	if err := s.client.Set(ctx, blacklistPrefix+credential, revokedMarker, ttl).Err(); err != nil {
		return fmt.Errorf("redis set revocation: %w", err)
	}

	return nil
}

// IsRevoked reports whether the credential has a live revocation record.
func (s *RevocationStore) IsRevoked(ctx context.Context, credential string) (bool, error) {
	_, err := s.client.Get(ctx, blacklistPrefix+credential).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get revocation: %w", err)
	}

	return true, nil
}
