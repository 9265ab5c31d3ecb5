package models

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusAccepted  BookingStatus = "accepted"
	StatusRejected  BookingStatus = "rejected"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusCompleted || s == StatusCancelled
}

type Severity string

const (
	SeverityNormal    Severity = "normal"
	SeverityEmergency Severity = "emergency"
	SeverityUrgent    Severity = "urgent"
)

var severityMultipliers = map[Severity]float64{
	SeverityNormal:    1.0,
	SeverityEmergency: 1.4,
	SeverityUrgent:    1.8,
}

func (s Severity) Multiplier() (float64, bool) {
	m, ok := severityMultipliers[s]
	return m, ok
}

// providerTransitions maps a target status to the statuses a provider may move a booking out of.
var providerTransitions = map[BookingStatus][]BookingStatus{
	StatusAccepted:  {StatusPending},
	StatusRejected:  {StatusPending},
	StatusCompleted: {StatusPending, StatusAccepted},
}

// TransitionSources returns the statuses from which a provider may move a booking to target.
func TransitionSources(target BookingStatus) ([]BookingStatus, bool) {
	from, ok := providerTransitions[target]
	return from, ok
}

func CanTransition(from, to BookingStatus) bool {
	sources, ok := providerTransitions[to]
	if !ok {
		return false
	}
	for _, s := range sources {
		if s == from {
			return true
		}
	}
	return false
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// EffectivePrice applies the severity multiplier to a base hourly price.
func EffectivePrice(base float64, severity Severity) (float64, error) {
	m, ok := severity.Multiplier()
	if !ok {
		return 0, ValidationFailed(map[string]string{"severity": fmt.Sprintf("unknown severity %q", severity)})
	}
	return Round2(base * m), nil
}

type Booking struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerID            string             `bson:"customer_id" json:"customer_id"`
	ProviderID            primitive.ObjectID `bson:"provider_id" json:"provider_id"`
	ScheduledAt           time.Time          `bson:"scheduled_at" json:"scheduled_at"`
	Address               string             `bson:"address" json:"address"`
	Note                  string             `bson:"note,omitempty" json:"note,omitempty"`
	PhoneNumber           string             `bson:"phone_number" json:"phone_number"`
	PricePerHour          float64            `bson:"price_per_hour" json:"price_per_hour"`
	Severity              Severity           `bson:"severity" json:"severity"`
	EffectivePricePerHour float64            `bson:"effective_price_per_hour" json:"effective_price_per_hour"`
	Status                BookingStatus      `bson:"status" json:"status"`
	Rating                *int               `bson:"rating,omitempty" json:"rating,omitempty"`
	CreatedAt             time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt             time.Time          `bson:"updated_at" json:"updated_at"`
}

func (b *Booking) BeforeCreate() error {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	if b.Severity == "" {
		b.Severity = SeverityNormal
	}
	if b.Status == "" {
		b.Status = StatusPending
	}
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = b.CreatedAt
	return nil
}

var ErrBookingNotFound = NotFound("booking not found")

// BookingRepo persists bookings. Conditional updates return a nil booking and a nil error
// when no document matched the guard.
type BookingRepo interface {
	CreateBooking(ctx context.Context, booking *Booking) (*Booking, error)
	GetBookingByID(ctx context.Context, id primitive.ObjectID) (*Booking, error)
	ListBookingsByCustomer(ctx context.Context, customerID string, page Pagination) ([]*Booking, int64, error)
	ListBookingsByProvider(ctx context.Context, providerID primitive.ObjectID, page Pagination) ([]*Booking, int64, error)
	TransitionBooking(ctx context.Context, id, providerID primitive.ObjectID, from []BookingStatus, to BookingStatus) (*Booking, error)
	CancelBooking(ctx context.Context, id primitive.ObjectID, customerID string) (*Booking, error)
	RateBooking(ctx context.Context, id primitive.ObjectID, customerID string, rating int) (*Booking, error)
}
