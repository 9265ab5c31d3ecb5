package connect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joshua-takyi/handyhub/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// supabase init
func InitSupabase(url, key string) (*supabase.Client, error) {
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %v", err)
	}
	return client, nil
}

// mongo init

// MongoURI substitutes the <password> placeholder used by Atlas connection strings.
func MongoURI(uri, password string) string {
	return strings.Replace(uri, "<password>", password, 1)
}

func MongoDBConnect(uri, password string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	clientOptions := options.Client().ApplyURI(MongoURI(uri, password))

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the booking, chat and notification queries rely on.
func EnsureIndexes(ctx context.Context, client *mongo.Client, dbName string) error {
	db := client.Database(dbName)
	specs := map[string][]mongo.IndexModel{
		models.BookingColName: {
			{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "provider_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		models.MessageColName: {
			{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "is_read", Value: 1}, {Key: "sender_id", Value: 1}}},
		},
		models.NotificationColName: {
			{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		models.ProviderColName: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for col, indexes := range specs {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %v", col, err)
		}
	}
	return nil
}

func MongoDBDisconnect(client *mongo.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %v", err)
	}
	return nil
}

// redis init

func RedisConnect(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %v", err)
	}
	return client, nil
}
