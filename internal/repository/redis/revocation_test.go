package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRevocationStore(t *testing.T) (*RevocationStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRevocationStore(client), mr
}

func TestRevocationStore_Revoke_ThenIsRevoked(t *testing.T) {
	store, mr := setupRevocationStore(t)

	err := store.Revoke(context.Background(), "token-abc", 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("blacklist:token-abc"))

	revoked, err := store.IsRevoked(context.Background(), "token-abc")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRevocationStore_IsRevoked_UnknownToken(t *testing.T) {
	store, _ := setupRevocationStore(t)

	revoked, err := store.IsRevoked(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocationStore_Revoke_Idempotent(t *testing.T) {
	store, _ := setupRevocationStore(t)

	require.NoError(t, store.Revoke(context.Background(), "token-abc", 10*time.Minute))
	require.NoError(t, store.Revoke(context.Background(), "token-abc", 5*time.Minute))

	revoked, err := store.IsRevoked(context.Background(), "token-abc")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRevocationStore_Revoke_TTLMatchesRemainingValidity(t *testing.T) {
	store, mr := setupRevocationStore(t)

	require.NoError(t, store.Revoke(context.Background(), "token-abc", 15*time.Minute))

	ttl := mr.TTL("blacklist:token-abc")
	assert.True(t, ttl > 14*time.Minute, "expected TTL > 14m, got %v", ttl)
	assert.True(t, ttl <= 15*time.Minute, "expected TTL <= 15m, got %v", ttl)
}

func TestRevocationStore_Revoke_AlreadyExpiredToken(t *testing.T) {
	store, mr := setupRevocationStore(t)

	// A credential past its expiry needs no blacklist entry.
	require.NoError(t, store.Revoke(context.Background(), "stale-token", 0))
	require.NoError(t, store.Revoke(context.Background(), "stale-token", -time.Minute))
	assert.False(t, mr.Exists("blacklist:stale-token"))
}

func TestRevocationStore_EntryExpires(t *testing.T) {
	store, mr := setupRevocationStore(t)

	require.NoError(t, store.Revoke(context.Background(), "token-abc", time.Minute))

	mr.FastForward(2 * time.Minute)

	revoked, err := store.IsRevoked(context.Background(), "token-abc")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocationStore_IsRevoked_StoreUnavailable(t *testing.T) {
	store, mr := setupRevocationStore(t)

	mr.Close()

	_, err := store.IsRevoked(context.Background(), "token-abc")
	require.Error(t, err)
}
