package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/joshua-takyi/handyhub/internal/models"
	"github.com/joshua-takyi/handyhub/internal/testfixtures"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableRedis points at a port nothing listens on.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestProviderCacheFallsThroughWhenRedisIsDown(t *testing.T) {
	store := testfixtures.NewStore()
	provider, owner := testfixtures.SeedProvider(store, 45)
	cache := NewProviderCache(store, unreachableRedis(t), time.Minute, testfixtures.Logger())
	ctx := context.Background()

	byUser, err := cache.GetProviderByUserID(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, provider.ID, byUser.ID)

	byID, err := cache.GetProviderByID(ctx, provider.ID)
	require.NoError(t, err)
	assert.Equal(t, 45.0, byID.PricePerHour)

	_, err = cache.GetProviderByUserID(ctx, "nobody")
	assert.True(t, models.IsKind(err, models.KindNotFound))

	rated, err := cache.AddProviderRating(ctx, provider.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rated.RatingCount)
}

func TestProviderCacheServesRepeatLookupsAndInvalidatesOnRating(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := testfixtures.NewStore()
	provider, owner := testfixtures.SeedProvider(store, 45)
	cache := NewProviderCache(store, client, time.Minute, testfixtures.Logger())
	ctx := context.Background()
	key := providerByUserPrefix + owner

	first, err := cache.GetProviderByUserID(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, provider.ID, first.ID)
	require.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	// rated behind the cache's back: a cached lookup keeps the old count
	_, err = store.AddProviderRating(ctx, provider.ID, 5)
	require.NoError(t, err)
	cached, err := cache.GetProviderByUserID(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cached.RatingCount)

	rated, err := cache.AddProviderRating(ctx, provider.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rated.RatingCount)
	assert.False(t, mr.Exists(key))

	fresh, err := cache.GetProviderByUserID(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fresh.RatingCount)
	assert.Equal(t, 4.0, fresh.Rating)
	assert.True(t, mr.Exists(key))
}

func TestProviderCacheReplacesUnreadableEntries(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := testfixtures.NewStore()
	provider, owner := testfixtures.SeedProvider(store, 80)
	cache := NewProviderCache(store, client, time.Minute, testfixtures.Logger())
	key := providerByUserPrefix + owner
	require.NoError(t, mr.Set(key, "{not json"))

	got, err := cache.GetProviderByUserID(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, provider.ID, got.ID)

	raw, err := mr.Get(key)
	require.NoError(t, err)
	assert.Contains(t, raw, provider.ID.Hex())
}
