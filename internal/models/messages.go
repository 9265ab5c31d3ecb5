package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SenderRole string

const (
	RoleUser     SenderRole = "user"
	RoleProvider SenderRole = "provider"
)

type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BookingID  primitive.ObjectID `bson:"booking_id" json:"booking_id"`
	SenderID   string             `bson:"sender_id" json:"sender_id"`
	SenderRole SenderRole         `bson:"sender_role" json:"sender_role"`
	Content    string             `bson:"content" json:"content"`
	IsRead     bool               `bson:"is_read" json:"is_read"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

func (m *Message) BeforeCreate() error {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.IsRead = false
	return nil
}

type MessageRepo interface {
	CreateMessage(ctx context.Context, msg *Message) (*Message, error)
	// ListMessagesByBooking pages newest-first and returns the page in ascending order.
	ListMessagesByBooking(ctx context.Context, bookingID primitive.ObjectID, page Pagination) ([]*Message, int64, error)
	MarkMessagesRead(ctx context.Context, bookingID primitive.ObjectID, readerID string) (int64, error)
	CountUnreadMessages(ctx context.Context, bookingID primitive.ObjectID, readerID string) (int64, error)
}

// ReverseMessages flips a newest-first slice in place.
func ReverseMessages(msgs []*Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
