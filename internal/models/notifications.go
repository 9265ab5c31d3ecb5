package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationBookingCreated   NotificationType = "booking_created"
	NotificationBookingAccepted  NotificationType = "booking_accepted"
	NotificationBookingRejected  NotificationType = "booking_rejected"
	NotificationBookingCompleted NotificationType = "booking_completed"
	NotificationBookingCancelled NotificationType = "booking_cancelled"
)

// NotificationTypeForStatus maps a booking status reached by a transition to its notification type.
func NotificationTypeForStatus(status BookingStatus) (NotificationType, bool) {
	switch status {
	case StatusPending:
		return NotificationBookingCreated, true
	case StatusAccepted:
		return NotificationBookingAccepted, true
	case StatusRejected:
		return NotificationBookingRejected, true
	case StatusCompleted:
		return NotificationBookingCompleted, true
	case StatusCancelled:
		return NotificationBookingCancelled, true
	}
	return "", false
}

type Notification struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	RecipientID string              `bson:"recipient_id" json:"recipient_id"`
	Type        NotificationType    `bson:"type" json:"type"`
	Title       string              `bson:"title" json:"title"`
	Message     string              `bson:"message" json:"message"`
	BookingID   *primitive.ObjectID `bson:"booking_id,omitempty" json:"booking_id,omitempty"`
	IsRead      bool                `bson:"is_read" json:"is_read"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
}

func (n *Notification) BeforeCreate() error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	n.IsRead = false
	return nil
}

var ErrNotificationNotFound = NotFound("notification not found")

type NotificationRepo interface {
	CreateNotification(ctx context.Context, n *Notification) (*Notification, error)
	// ListNotificationsByRecipient returns a newest-first page, the total and the unread count.
	ListNotificationsByRecipient(ctx context.Context, recipientID string, page Pagination) ([]*Notification, int64, int64, error)
	MarkAllNotificationsRead(ctx context.Context, recipientID string) (int64, error)
	// MarkNotificationRead returns nil when no notification with id belongs to recipientID.
	MarkNotificationRead(ctx context.Context, id primitive.ObjectID, recipientID string) (*Notification, error)
}
