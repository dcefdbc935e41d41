package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/TravelmateGo/internal/domain"
)

func setupSessionStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionStore(client), mr
}

func TestSessionStore_StoreRefresh_ThenGet(t *testing.T) {
	store, mr := setupSessionStore(t)

	err := store.StoreRefresh(context.Background(), 42, "refresh-token-1", 7*24*time.Hour)
	require.NoError(t, err)
	assert.True(t, mr.Exists("refreshToken:42"))

	got, err := store.GetRefresh(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "refresh-token-1", got)
}

func TestSessionStore_GetRefresh_NoneStored(t *testing.T) {
	store, _ := setupSessionStore(t)

	got, err := store.GetRefresh(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSessionStore_StoreRefresh_SupersedesPrevious(t *testing.T) {
	store, _ := setupSessionStore(t)

	require.NoError(t, store.StoreRefresh(context.Background(), 42, "old-token", 7*24*time.Hour))
	require.NoError(t, store.StoreRefresh(context.Background(), 42, "new-token", 7*24*time.Hour))

	got, err := store.GetRefresh(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "new-token", got)
}

func TestSessionStore_DeleteRefresh(t *testing.T) {
	store, mr := setupSessionStore(t)

	require.NoError(t, store.StoreRefresh(context.Background(), 42, "refresh-token-1", 7*24*time.Hour))
	require.NoError(t, store.DeleteRefresh(context.Background(), 42))

	assert.False(t, mr.Exists("refreshToken:42"))

	got, err := store.GetRefresh(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSessionStore_CacheTokens_ThenGet(t *testing.T) {
	store, mr := setupSessionStore(t)

	pair := &domain.TokenPair{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
	}

	err := store.CacheTokens(context.Background(), "used-refresh", pair, 30*time.Second)
	require.NoError(t, err)

	// Verify JSON content.
	raw, err := mr.Get("refreshCache:used-refresh")
	require.NoError(t, err)
	var stored domain.TokenPair
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, "new-access", stored.AccessToken)
	assert.Equal(t, "new-refresh", stored.RefreshToken)

	got, err := store.GetCachedTokens(context.Background(), "used-refresh")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *pair, *got)
}

func TestSessionStore_GetCachedTokens_NoneCached(t *testing.T) {
	store, _ := setupSessionStore(t)

	got, err := store.GetCachedTokens(context.Background(), "unknown-refresh")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStore_GetCachedTokens_Expired(t *testing.T) {
	store, mr := setupSessionStore(t)

	pair := &domain.TokenPair{AccessToken: "a", RefreshToken: "r"}
	require.NoError(t, store.CacheTokens(context.Background(), "used-refresh", pair, 30*time.Second))

	mr.FastForward(time.Minute)

	got, err := store.GetCachedTokens(context.Background(), "used-refresh")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStore_GetCachedTokens_InvalidJSON(t *testing.T) {
	store, mr := setupSessionStore(t)

	require.NoError(t, mr.Set("refreshCache:bad", "{{not-valid-json"))

	got, err := store.GetCachedTokens(context.Background(), "bad")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal token pair")
}
