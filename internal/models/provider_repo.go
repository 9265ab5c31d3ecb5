package models

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (mdb *MongodbRepo) GetProviderByID(ctx context.Context, id primitive.ObjectID) (*ProviderProfile, error) {
	return mdb.findProvider(ctx, bson.M{"_id": id})
}

func (mdb *MongodbRepo) GetProviderByUserID(ctx context.Context, userID string) (*ProviderProfile, error) {
	return mdb.findProvider(ctx, bson.M{"user_id": userID})
}

func (mdb *MongodbRepo) findProvider(ctx context.Context, filter bson.M) (*ProviderProfile, error) {
	col, err := mdb.GetCollection(ctx, ProviderColName)
	if err != nil {
		return nil, err
	}
	var p ProviderProfile
	err = col.FindOne(ctx, filter).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrProviderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find provider")
	}
	return &p, nil
}

// AddProviderRating updates rating and rating_count in one pipeline stage so both are
// computed from the same stored values.
func (mdb *MongodbRepo) AddProviderRating(ctx context.Context, id primitive.ObjectID, rating int) (*ProviderProfile, error) {
	col, err := mdb.GetCollection(ctx, ProviderColName)
	if err != nil {
		return nil, err
	}
	current := bson.D{{Key: "$ifNull", Value: bson.A{"$rating", 0}}}
	count := bson.D{{Key: "$ifNull", Value: bson.A{"$rating_count", 0}}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "rating", Value: bson.D{{Key: "$divide", Value: bson.A{
				bson.D{{Key: "$add", Value: bson.A{
					bson.D{{Key: "$multiply", Value: bson.A{current, count}}},
					rating,
				}}},
				bson.D{{Key: "$add", Value: bson.A{count, 1}}},
			}}}},
			{Key: "rating_count", Value: bson.D{{Key: "$add", Value: bson.A{count, 1}}}},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p ProviderProfile
	err = col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrProviderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to update provider rating")
	}
	return &p, nil
}
