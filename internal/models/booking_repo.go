package models

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (mdb *MongodbRepo) CreateBooking(ctx context.Context, booking *Booking) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingColName)
	if err != nil {
		return nil, err
	}
	if err := booking.BeforeCreate(); err != nil {
		return nil, err
	}
	if _, err := col.InsertOne(ctx, booking); err != nil {
		return nil, errors.Wrap(err, "failed to insert booking")
	}
	return booking, nil
}

func (mdb *MongodbRepo) GetBookingByID(ctx context.Context, id primitive.ObjectID) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingColName)
	if err != nil {
		return nil, err
	}
	var booking Booking
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find booking")
	}
	return &booking, nil
}

func (mdb *MongodbRepo) ListBookingsByCustomer(ctx context.Context, customerID string, page Pagination) ([]*Booking, int64, error) {
	return mdb.listBookings(ctx, bson.M{"customer_id": customerID}, page)
}

func (mdb *MongodbRepo) ListBookingsByProvider(ctx context.Context, providerID primitive.ObjectID, page Pagination) ([]*Booking, int64, error) {
	return mdb.listBookings(ctx, bson.M{"provider_id": providerID}, page)
}

func (mdb *MongodbRepo) listBookings(ctx context.Context, filter bson.M, page Pagination) ([]*Booking, int64, error) {
	col, err := mdb.GetCollection(ctx, BookingColName)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Size))

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list bookings")
	}
	defer cursor.Close(ctx)

	bookings := []*Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, 0, errors.Wrap(err, "failed to decode bookings")
	}
	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to count bookings")
	}
	return bookings, total, nil
}

func (mdb *MongodbRepo) TransitionBooking(ctx context.Context, id, providerID primitive.ObjectID, from []BookingStatus, to BookingStatus) (*Booking, error) {
	filter := bson.M{
		"_id":         id,
		"provider_id": providerID,
		"status":      bson.M{"$in": from},
	}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": time.Now().UTC()}}
	return mdb.conditionalBookingUpdate(ctx, filter, update)
}

func (mdb *MongodbRepo) CancelBooking(ctx context.Context, id primitive.ObjectID, customerID string) (*Booking, error) {
	filter := bson.M{
		"_id":         id,
		"customer_id": customerID,
		"status":      StatusPending,
	}
	update := bson.M{"$set": bson.M{"status": StatusCancelled, "updated_at": time.Now().UTC()}}
	return mdb.conditionalBookingUpdate(ctx, filter, update)
}

func (mdb *MongodbRepo) RateBooking(ctx context.Context, id primitive.ObjectID, customerID string, rating int) (*Booking, error) {
	filter := bson.M{
		"_id":         id,
		"customer_id": customerID,
		"status":      StatusCompleted,
		"rating":      bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{"rating": rating, "updated_at": time.Now().UTC()}}
	return mdb.conditionalBookingUpdate(ctx, filter, update)
}

func (mdb *MongodbRepo) conditionalBookingUpdate(ctx context.Context, filter, update bson.M) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingColName)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking Booking
	err = col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to update booking")
	}
	return &booking, nil
}
