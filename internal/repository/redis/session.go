package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/TravelmateGo/internal/domain"
)

const (
	refreshPrefix = "refreshToken:"
	cachePrefix   = "refreshCache:"
)

// SessionStore implements repository.SessionStore using Redis. It keeps one
// active refresh credential per member (later writes supersede earlier ones)
// and a short-lived cache of rotation results keyed by the refresh
// credential that produced them.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a new Redis-backed session store.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func refreshKey(userNumber int) string {
	return refreshPrefix + strconv.Itoa(userNumber)
}

// StoreRefresh records the member's active refresh credential.
func (s *SessionStore) StoreRefresh(ctx context.Context, userNumber int, refreshToken string, ttl time.Duration) error {
	if err := s.client.Set(ctx, refreshKey(userNumber), refreshToken, ttl).Err(); err != nil {
		return fmt.Errorf("redis set refresh token: %w", err)
	}
	return nil
}

// GetRefresh returns the member's active refresh credential, or "" when none
// is stored.
func (s *SessionStore) GetRefresh(ctx context.Context, userNumber int) (string, error) {
	val, err := s.client.Get(ctx, refreshKey(userNumber)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis get refresh token: %w", err)
	}
	return val, nil
}

// DeleteRefresh removes the member's active refresh credential.
func (s *SessionStore) DeleteRefresh(ctx context.Context, userNumber int) error {
	if err := s.client.Del(ctx, refreshKey(userNumber)).Err(); err != nil {
		return fmt.Errorf("redis del refresh token: %w", err)
	}
	return nil
}

// CacheTokens stores a rotation result under the refresh credential that
// produced it, so a duplicate retry inside the TTL window converges on the
// same pair instead of rotating again.
func (s *SessionStore) CacheTokens(ctx context.Context, refreshToken string, pair *domain.TokenPair, ttl time.Duration) error {
	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("marshal token pair: %w", err)
	}

	if err := s.client.Set(ctx, cachePrefix+refreshToken, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set token cache: %w", err)
	}

	return nil
}

// GetCachedTokens returns the cached rotation result for the given refresh
// credential, or nil when none is cached.
func (s *SessionStore) GetCachedTokens(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	data, err := s.client.Get(ctx, cachePrefix+refreshToken).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get token cache: %w", err)
	}

	var pair domain.TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return nil, fmt.Errorf("unmarshal token pair: %w", err)
	}

	return &pair, nil
}
