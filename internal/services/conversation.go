package services

import (
	"context"

	"github.com/joshua-takyi/handyhub/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Party is the caller's side of a booking conversation.
type Party struct {
	Role          models.SenderRole
	CounterpartID string
	Booking       *models.Booking
}

// ConversationResolver decides whether a caller belongs to a booking and in which role.
// Nothing is cached; every call reads the booking and provider directory.
type ConversationResolver struct {
	bookingRepo models.BookingRepo
	providers   models.ProviderDirectory
}

func NewConversationResolver(bookingRepo models.BookingRepo, providers models.ProviderDirectory) *ConversationResolver {
	return &ConversationResolver{
		bookingRepo: bookingRepo,
		providers:   providers,
	}
}

func (cr *ConversationResolver) Resolve(ctx context.Context, bookingID primitive.ObjectID, callerID string) (*Party, error) {
	booking, err := cr.bookingRepo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.CustomerID == callerID {
		provider, err := cr.providers.GetProviderByID(ctx, booking.ProviderID)
		if err != nil {
			return nil, err
		}
		return &Party{Role: models.RoleUser, CounterpartID: provider.UserID, Booking: booking}, nil
	}

	provider, err := cr.providers.GetProviderByUserID(ctx, callerID)
	if models.IsKind(err, models.KindNotFound) {
		return nil, models.Forbidden("you are not a participant in this booking")
	}
	if err != nil {
		return nil, err
	}
	if provider.ID != booking.ProviderID {
		return nil, models.Forbidden("you are not a participant in this booking")
	}
	return &Party{Role: models.RoleProvider, CounterpartID: booking.CustomerID, Booking: booking}, nil
}
