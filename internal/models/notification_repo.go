package models

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (mdb *MongodbRepo) CreateNotification(ctx context.Context, n *Notification) (*Notification, error) {
	col, err := mdb.GetCollection(ctx, NotificationColName)
	if err != nil {
		return nil, err
	}
	if err := n.BeforeCreate(); err != nil {
		return nil, err
	}
	if _, err := col.InsertOne(ctx, n); err != nil {
		return nil, errors.Wrap(err, "failed to insert notification")
	}
	return n, nil
}

func (mdb *MongodbRepo) ListNotificationsByRecipient(ctx context.Context, recipientID string, page Pagination) ([]*Notification, int64, int64, error) {
	col, err := mdb.GetCollection(ctx, NotificationColName)
	if err != nil {
		return nil, 0, 0, err
	}
	filter := bson.M{"recipient_id": recipientID}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Size))

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, 0, errors.Wrap(err, "failed to list notifications")
	}
	defer cursor.Close(ctx)

	items := []*Notification{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, 0, errors.Wrap(err, "failed to decode notifications")
	}
	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, 0, errors.Wrap(err, "failed to count notifications")
	}
	unread, err := col.CountDocuments(ctx, bson.M{"recipient_id": recipientID, "is_read": false})
	if err != nil {
		return nil, 0, 0, errors.Wrap(err, "failed to count unread notifications")
	}
	return items, total, unread, nil
}

func (mdb *MongodbRepo) MarkAllNotificationsRead(ctx context.Context, recipientID string) (int64, error) {
	col, err := mdb.GetCollection(ctx, NotificationColName)
	if err != nil {
		return 0, err
	}
	res, err := col.UpdateMany(ctx,
		bson.M{"recipient_id": recipientID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return 0, errors.Wrap(err, "failed to mark notifications read")
	}
	return res.ModifiedCount, nil
}

func (mdb *MongodbRepo) MarkNotificationRead(ctx context.Context, id primitive.ObjectID, recipientID string) (*Notification, error) {
	col, err := mdb.GetCollection(ctx, NotificationColName)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var n Notification
	err = col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "recipient_id": recipientID},
		bson.M{"$set": bson.M{"is_read": true}},
		opts,
	).Decode(&n)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to mark notification read")
	}
	return &n, nil
}
