package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/joshua-takyi/handyhub/internal/models"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const providerByUserPrefix = "provider:user:"

// ProviderCache caches provider lookups by owning user in Redis. Lookups by provider id go
// straight to the directory so booking prices are always read fresh.
type ProviderCache struct {
	next   models.ProviderDirectory
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewProviderCache(next models.ProviderDirectory, client *redis.Client, ttl time.Duration, logger *slog.Logger) *ProviderCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProviderCache{next: next, client: client, ttl: ttl, logger: logger}
}

func (pc *ProviderCache) GetProviderByID(ctx context.Context, id primitive.ObjectID) (*models.ProviderProfile, error) {
	return pc.next.GetProviderByID(ctx, id)
}

func (pc *ProviderCache) GetProviderByUserID(ctx context.Context, userID string) (*models.ProviderProfile, error) {
	key := providerByUserPrefix + userID
	raw, err := pc.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p models.ProviderProfile
		if jsonErr := json.Unmarshal(raw, &p); jsonErr == nil {
			return &p, nil
		}
		pc.logger.Warn("Discarding unreadable cached provider", "key", key)
	case err != redis.Nil:
		pc.logger.Warn("Provider cache read failed", "key", key, "error", err)
	}

	p, err := pc.next.GetProviderByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(p); err == nil {
		if err := pc.client.Set(ctx, key, data, pc.ttl).Err(); err != nil {
			pc.logger.Warn("Provider cache write failed", "key", key, "error", err)
		}
	}
	return p, nil
}

func (pc *ProviderCache) AddProviderRating(ctx context.Context, id primitive.ObjectID, rating int) (*models.ProviderProfile, error) {
	p, err := pc.next.AddProviderRating(ctx, id, rating)
	if err != nil {
		return nil, err
	}
	if err := pc.client.Del(ctx, providerByUserPrefix+p.UserID).Err(); err != nil {
		pc.logger.Warn("Provider cache invalidation failed", "user_id", p.UserID, "error", err)
	}
	return p, nil
}
