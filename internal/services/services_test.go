package services

import (
	"context"
	"time"

	"github.com/joshua-takyi/handyhub/internal/models"
	"github.com/joshua-takyi/handyhub/internal/testfixtures"
)

type harness struct {
	store      *testfixtures.Store
	dispatcher *testfixtures.RecordingDispatcher
	publisher  *testfixtures.RecordingPublisher
	notify     *NotificationService
	bookings   *BookingService
	chat       *ChatService
}

func newHarness() *harness {
	store := testfixtures.NewStore()
	dispatcher := testfixtures.NewRecordingDispatcher()
	publisher := &testfixtures.RecordingPublisher{}
	logger := testfixtures.Logger()

	notify := NewNotificationService(store, dispatcher, logger)
	bookings := NewBookingService(store, store, store, notify, publisher, logger)
	chat := NewChatService(NewConversationResolver(store, store), store, store, logger)
	return &harness{
		store:      store,
		dispatcher: dispatcher,
		publisher:  publisher,
		notify:     notify,
		bookings:   bookings,
		chat:       chat,
	}
}

func validInput(provider *models.ProviderProfile, severity models.Severity) CreateBookingInput {
	return CreateBookingInput{
		ProviderID:  provider.ID.Hex(),
		ScheduledAt: testfixtures.ReferenceTime().Add(48 * time.Hour),
		Address:     "12 Ring Road, Accra",
		Note:        "leaking pipe under the sink",
		PhoneNumber: "0244123456",
		Severity:    severity,
	}
}

// bookedPair creates a pending booking between a fresh customer and provider.
func (h *harness) bookedPair(price float64) (booking *models.Booking, customerID, providerUserID string) {
	provider, owner := testfixtures.SeedProvider(h.store, price)
	customer := testfixtures.SeedCustomer(h.store)
	b, err := h.bookings.CreateBooking(context.Background(), customer, validInput(provider, models.SeverityNormal))
	if err != nil {
		panic(err)
	}
	return b, customer, owner
}
