package models

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (mdb *MongodbRepo) CreateMessage(ctx context.Context, msg *Message) (*Message, error) {
	col, err := mdb.GetCollection(ctx, MessageColName)
	if err != nil {
		return nil, err
	}
	if err := msg.BeforeCreate(); err != nil {
		return nil, err
	}
	if _, err := col.InsertOne(ctx, msg); err != nil {
		return nil, errors.Wrap(err, "failed to insert message")
	}
	return msg, nil
}

func (mdb *MongodbRepo) ListMessagesByBooking(ctx context.Context, bookingID primitive.ObjectID, page Pagination) ([]*Message, int64, error) {
	col, err := mdb.GetCollection(ctx, MessageColName)
	if err != nil {
		return nil, 0, err
	}
	filter := bson.M{"booking_id": bookingID}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Size))

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list messages")
	}
	defer cursor.Close(ctx)

	msgs := []*Message{}
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, 0, errors.Wrap(err, "failed to decode messages")
	}
	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to count messages")
	}
	ReverseMessages(msgs)
	return msgs, total, nil
}

func (mdb *MongodbRepo) MarkMessagesRead(ctx context.Context, bookingID primitive.ObjectID, readerID string) (int64, error) {
	col, err := mdb.GetCollection(ctx, MessageColName)
	if err != nil {
		return 0, err
	}
	res, err := col.UpdateMany(ctx, unreadFilter(bookingID, readerID), bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, errors.Wrap(err, "failed to mark messages read")
	}
	return res.ModifiedCount, nil
}

func (mdb *MongodbRepo) CountUnreadMessages(ctx context.Context, bookingID primitive.ObjectID, readerID string) (int64, error) {
	col, err := mdb.GetCollection(ctx, MessageColName)
	if err != nil {
		return 0, err
	}
	n, err := col.CountDocuments(ctx, unreadFilter(bookingID, readerID))
	if err != nil {
		return 0, errors.Wrap(err, "failed to count unread messages")
	}
	return n, nil
}

func unreadFilter(bookingID primitive.ObjectID, readerID string) bson.M {
	return bson.M{
		"booking_id": bookingID,
		"sender_id":  bson.M{"$ne": readerID},
		"is_read":    false,
	}
}
