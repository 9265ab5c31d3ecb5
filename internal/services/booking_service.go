package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joshua-takyi/handyhub/internal/events"
	"github.com/joshua-takyi/handyhub/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateBookingInput struct {
	ProviderID  string          `json:"provider_id" validate:"required"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	Address     string          `json:"address" validate:"required"`
	Note        string          `json:"note"`
	PhoneNumber string          `json:"phone_number" validate:"required,min=10"`
	Severity    models.Severity `json:"severity" validate:"omitempty,oneof=normal emergency urgent"`
}

// BookingView is a booking with both parties' summaries attached when the directory knows them.
type BookingView struct {
	*models.Booking
	Customer *models.UserSummary `json:"customer,omitempty"`
	Provider *models.UserSummary `json:"provider,omitempty"`
}

type BookingService struct {
	bookingRepo  models.BookingRepo
	providers    models.ProviderDirectory
	users        models.UserDirectory
	resolver     *ConversationResolver
	notification *NotificationService
	publisher    events.Publisher
	logger       *slog.Logger
}

func NewBookingService(
	bookingRepo models.BookingRepo,
	providers models.ProviderDirectory,
	users models.UserDirectory,
	notification *NotificationService,
	publisher events.Publisher,
	logger *slog.Logger,
) *BookingService {
	if publisher == nil {
		publisher = events.NewNoopPublisher(logger)
	}
	return &BookingService{
		bookingRepo:  bookingRepo,
		providers:    providers,
		users:        users,
		resolver:     NewConversationResolver(bookingRepo, providers),
		notification: notification,
		publisher:    publisher,
		logger:       logger,
	}
}

func (bs *BookingService) CreateBooking(ctx context.Context, customerID string, input CreateBookingInput) (*models.Booking, error) {
	input.Address = strings.TrimSpace(input.Address)
	input.PhoneNumber = strings.TrimSpace(input.PhoneNumber)
	if input.Severity == "" {
		input.Severity = models.SeverityNormal
	}
	if err := models.Validate.Struct(input); err != nil {
		return nil, models.ValidationError(err)
	}
	if input.ScheduledAt.IsZero() {
		return nil, models.ValidationFailed(map[string]string{"scheduled_at": "is required"})
	}
	providerID, err := models.ParseObjectID("provider_id", input.ProviderID)
	if err != nil {
		return nil, err
	}

	provider, err := bs.providers.GetProviderByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if provider.UserID == customerID {
		return nil, models.InvalidOperation("you cannot book your own provider profile")
	}

	price, err := models.EffectivePrice(provider.PricePerHour, input.Severity)
	if err != nil {
		return nil, err
	}

	booking, err := bs.bookingRepo.CreateBooking(ctx, &models.Booking{
		CustomerID:            customerID,
		ProviderID:            provider.ID,
		ScheduledAt:           input.ScheduledAt.UTC(),
		Address:               input.Address,
		Note:                  strings.TrimSpace(input.Note),
		PhoneNumber:           input.PhoneNumber,
		PricePerHour:          provider.PricePerHour,
		Severity:              input.Severity,
		EffectivePricePerHour: price,
		Status:                models.StatusPending,
	})
	if err != nil {
		return nil, err
	}

	if _, err := bs.notification.Notify(ctx, NotifyParams{
		RecipientID: provider.UserID,
		Type:        models.NotificationBookingCreated,
		Title:       "New booking request",
		Message:     fmt.Sprintf("You have a new %s booking request for %s", booking.Severity, booking.ScheduledAt.Format(time.RFC1123)),
		BookingID:   &booking.ID,
	}); err != nil {
		return nil, err
	}

	bs.publish(ctx, events.BookingCreated, booking, provider.UserID)
	bs.logger.Info("Booking created",
		"booking_id", booking.ID.Hex(),
		"customer_id", customerID,
		"provider_id", provider.ID.Hex(),
		"severity", booking.Severity,
	)
	return booking, nil
}

// GetBooking returns a booking to either of its parties.
func (bs *BookingService) GetBooking(ctx context.Context, callerID, bookingID string) (*BookingView, error) {
	id, err := models.ParseObjectID("id", bookingID)
	if err != nil {
		return nil, err
	}
	party, err := bs.resolver.Resolve(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	return bs.expandParties(ctx, []*models.Booking{party.Booking})[0], nil
}

func (bs *BookingService) ListMyBookings(ctx context.Context, customerID string, page models.Pagination) (models.Page[*BookingView], error) {
	if err := page.Validate(); err != nil {
		return models.Page[*BookingView]{}, err
	}
	items, total, err := bs.bookingRepo.ListBookingsByCustomer(ctx, customerID, page)
	if err != nil {
		return models.Page[*BookingView]{}, err
	}
	return models.NewPage(bs.expandParties(ctx, items), total, page), nil
}

func (bs *BookingService) ListProviderBookings(ctx context.Context, userID string, page models.Pagination) (models.Page[*BookingView], error) {
	if err := page.Validate(); err != nil {
		return models.Page[*BookingView]{}, err
	}
	provider, err := bs.providers.GetProviderByUserID(ctx, userID)
	if models.IsKind(err, models.KindNotFound) {
		return models.Page[*BookingView]{}, models.NotFound("provider profile not found")
	}
	if err != nil {
		return models.Page[*BookingView]{}, err
	}
	items, total, err := bs.bookingRepo.ListBookingsByProvider(ctx, provider.ID, page)
	if err != nil {
		return models.Page[*BookingView]{}, err
	}
	return models.NewPage(bs.expandParties(ctx, items), total, page), nil
}

// UpdateStatus lets the booking's provider accept, reject or complete it.
func (bs *BookingService) UpdateStatus(ctx context.Context, callerID, bookingID string, status models.BookingStatus) (*models.Booking, error) {
	id, err := models.ParseObjectID("id", bookingID)
	if err != nil {
		return nil, err
	}
	sources, ok := models.TransitionSources(status)
	if !ok {
		return nil, models.ValidationFailed(map[string]string{"status": "must be one of: accepted rejected completed"})
	}

	booking, err := bs.bookingRepo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	provider, err := bs.providers.GetProviderByUserID(ctx, callerID)
	if models.IsKind(err, models.KindNotFound) {
		return nil, models.Forbidden("only the booked provider can update this booking")
	}
	if err != nil {
		return nil, err
	}
	if provider.ID != booking.ProviderID {
		return nil, models.Forbidden("only the booked provider can update this booking")
	}

	updated, err := bs.bookingRepo.TransitionBooking(ctx, id, provider.ID, sources, status)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, models.InvalidOperation("booking cannot be %s from its current status", status)
	}

	notifType, _ := models.NotificationTypeForStatus(status)
	if _, err := bs.notification.Notify(ctx, NotifyParams{
		RecipientID: updated.CustomerID,
		Type:        notifType,
		Title:       statusTitle(status),
		Message:     fmt.Sprintf("Your booking for %s has been %s", updated.ScheduledAt.Format(time.RFC1123), status),
		BookingID:   &updated.ID,
	}); err != nil {
		return nil, err
	}

	bs.publish(ctx, "booking."+string(status), updated, updated.CustomerID)
	bs.logger.Info("Booking status updated", "booking_id", updated.ID.Hex(), "status", status)
	return updated, nil
}

// CancelBooking lets the customer withdraw a booking that is still pending.
func (bs *BookingService) CancelBooking(ctx context.Context, customerID, bookingID string) (*models.Booking, error) {
	id, err := models.ParseObjectID("id", bookingID)
	if err != nil {
		return nil, err
	}
	cancelled, err := bs.bookingRepo.CancelBooking(ctx, id, customerID)
	if err != nil {
		return nil, err
	}
	if cancelled == nil {
		return nil, models.InvalidOperation("cannot cancel this booking; it may already be accepted or not yours")
	}

	provider, err := bs.providers.GetProviderByID(ctx, cancelled.ProviderID)
	if err != nil {
		return nil, err
	}
	if _, err := bs.notification.Notify(ctx, NotifyParams{
		RecipientID: provider.UserID,
		Type:        models.NotificationBookingCancelled,
		Title:       "Booking cancelled",
		Message:     fmt.Sprintf("The booking for %s was cancelled by the customer", cancelled.ScheduledAt.Format(time.RFC1123)),
		BookingID:   &cancelled.ID,
	}); err != nil {
		return nil, err
	}

	bs.publish(ctx, events.BookingCancelled, cancelled, provider.UserID)
	bs.logger.Info("Booking cancelled", "booking_id", cancelled.ID.Hex(), "customer_id", customerID)
	return cancelled, nil
}

// RateBooking records the customer's rating of a completed booking and folds it into the
// provider's aggregate.
func (bs *BookingService) RateBooking(ctx context.Context, customerID, bookingID string, rating int) (*models.Booking, error) {
	id, err := models.ParseObjectID("id", bookingID)
	if err != nil {
		return nil, err
	}
	if rating < 1 || rating > 5 {
		return nil, models.ValidationFailed(map[string]string{"rating": "must be between 1 and 5"})
	}

	booking, err := bs.bookingRepo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.CustomerID != customerID {
		return nil, models.Forbidden("only the customer can rate this booking")
	}
	if booking.Status != models.StatusCompleted {
		return nil, models.InvalidOperation("only completed bookings can be rated")
	}
	if booking.Rating != nil {
		return nil, models.InvalidOperation("booking has already been rated")
	}

	rated, err := bs.bookingRepo.RateBooking(ctx, id, customerID, rating)
	if err != nil {
		return nil, err
	}
	if rated == nil {
		return nil, models.InvalidOperation("booking has already been rated")
	}
	// the booking is already rated; a failed aggregate update is logged for reconciliation
	if _, err := bs.providers.AddProviderRating(ctx, rated.ProviderID, rating); err != nil {
		bs.logger.Error("Provider rating aggregate not updated",
			"booking_id", rated.ID.Hex(),
			"provider_id", rated.ProviderID.Hex(),
			"rating", rating,
			"error", err,
		)
	}

	bs.publish(ctx, events.BookingRated, rated, "")
	return rated, nil
}

// expandParties attaches customer and provider summaries. Lookup failures leave the
// affected summaries unset.
func (bs *BookingService) expandParties(ctx context.Context, bookings []*models.Booking) []*BookingView {
	views := make([]*BookingView, len(bookings))
	for i, b := range bookings {
		views[i] = &BookingView{Booking: b}
	}
	if bs.users == nil || len(bookings) == 0 {
		return views
	}

	owners := map[primitive.ObjectID]string{}
	seen := map[string]struct{}{}
	ids := []string{}
	addID := func(id string) {
		if _, ok := seen[id]; !ok && id != "" {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, b := range bookings {
		addID(b.CustomerID)
		if _, ok := owners[b.ProviderID]; ok {
			continue
		}
		provider, err := bs.providers.GetProviderByID(ctx, b.ProviderID)
		if err != nil {
			bs.logger.Warn("Failed to resolve provider owner", "provider_id", b.ProviderID.Hex(), "error", err)
			owners[b.ProviderID] = ""
			continue
		}
		owners[b.ProviderID] = provider.UserID
		addID(provider.UserID)
	}

	summaries, err := bs.users.GetUserSummaries(ctx, ids)
	if err != nil {
		bs.logger.Warn("Failed to expand booking parties", "error", err)
		return views
	}
	for _, v := range views {
		v.Customer = summaries[v.CustomerID]
		if owner := owners[v.ProviderID]; owner != "" {
			v.Provider = summaries[owner]
		}
	}
	return views
}

func (bs *BookingService) publish(ctx context.Context, eventType string, b *models.Booking, recipientID string) {
	err := bs.publisher.PublishBookingEvent(ctx, events.BookingEvent{
		Type:        eventType,
		BookingID:   b.ID.Hex(),
		CustomerID:  b.CustomerID,
		ProviderID:  b.ProviderID.Hex(),
		RecipientID: recipientID,
		Status:      string(b.Status),
		Severity:    string(b.Severity),
		ScheduledAt: b.ScheduledAt,
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		bs.logger.Warn("Failed to publish booking event", "type", eventType, "booking_id", b.ID.Hex(), "error", err)
	}
}

func statusTitle(status models.BookingStatus) string {
	switch status {
	case models.StatusAccepted:
		return "Booking accepted"
	case models.StatusRejected:
		return "Booking rejected"
	case models.StatusCompleted:
		return "Booking completed"
	default:
		return "Booking updated"
	}
}
