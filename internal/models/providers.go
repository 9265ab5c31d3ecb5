package models

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProviderProfile is the part of a provider profile the booking workflow reads.
type ProviderProfile struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	UserID       string             `bson:"user_id" json:"user_id"`
	PricePerHour float64            `bson:"price_per_hour" json:"price_per_hour"`
	Rating       float64            `bson:"rating" json:"rating"`
	RatingCount  int64              `bson:"rating_count" json:"rating_count"`
}

var ErrProviderNotFound = NotFound("provider not found")

type ProviderDirectory interface {
	GetProviderByID(ctx context.Context, id primitive.ObjectID) (*ProviderProfile, error)
	GetProviderByUserID(ctx context.Context, userID string) (*ProviderProfile, error)
	// AddProviderRating folds one rating into the running mean.
	AddProviderRating(ctx context.Context, id primitive.ObjectID, rating int) (*ProviderProfile, error)
}

// NextRating is the running mean after folding in r.
func NextRating(current float64, count int64, r int) float64 {
	return (current*float64(count) + float64(r)) / float64(count+1)
}
