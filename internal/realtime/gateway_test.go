package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/joshua-takyi/handyhub/internal/models"
	"github.com/joshua-takyi/handyhub/internal/services"
	"github.com/joshua-takyi/handyhub/internal/testfixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gatewayHarness struct {
	store     *testfixtures.Store
	chatGW    *ChatGateway
	notifyGW  *NotificationGateway
	notify    *services.NotificationService
	bookings  *services.BookingService
	booking   *models.Booking
	customer  string
	providerU string
}

func newGatewayHarness(t *testing.T) *gatewayHarness {
	t.Helper()
	logger := discardLogger()
	store := testfixtures.NewStore()
	notifyGW := NewNotificationGateway(logger)
	notify := services.NewNotificationService(store, notifyGW.Dispatcher(), logger)
	bookings := services.NewBookingService(store, store, store, notify, &testfixtures.RecordingPublisher{}, logger)
	chat := services.NewChatService(services.NewConversationResolver(store, store), store, store, logger)

	provider, owner := testfixtures.SeedProvider(store, 50)
	customer := testfixtures.SeedCustomer(store)
	booking, err := bookings.CreateBooking(context.Background(), customer, services.CreateBookingInput{
		ProviderID:  provider.ID.Hex(),
		ScheduledAt: testfixtures.ReferenceTime().Add(24 * time.Hour),
		Address:     "4 Oxford Street",
		PhoneNumber: "0200000000",
	})
	require.NoError(t, err)

	return &gatewayHarness{
		store:     store,
		chatGW:    NewChatGateway(chat, 30, logger),
		notifyGW:  notifyGW,
		notify:    notify,
		bookings:  bookings,
		booking:   booking,
		customer:  customer,
		providerU: owner,
	}
}

func envelope(event string, data any) Envelope {
	raw, _ := json.Marshal(data)
	return Envelope{Event: event, Data: raw}
}

func (h *gatewayHarness) ref() map[string]string {
	return map[string]string{"bookingId": h.booking.ID.Hex()}
}

func (h *gatewayHarness) connect(userID string) *fakeConn {
	c := newFakeConn(userID)
	h.chatGW.Connect(c)
	return c
}

func (h *gatewayHarness) join(t *testing.T, c *fakeConn) roomJoined {
	t.Helper()
	h.chatGW.Handle(context.Background(), c, envelope(EventJoinRoom, h.ref()))
	joined := c.events(EventRoomJoined)
	require.Len(t, joined, 1, "errors: %v", c.events(EventError))
	c.reset()
	return joined[0].Data.(roomJoined)
}

func errorCode(t *testing.T, c *fakeConn) string {
	t.Helper()
	errs := c.events(EventError)
	require.NotEmpty(t, errs)
	return errs[len(errs)-1].Data.(errorPayload).Code
}

func TestJoinRoomLoadsHistoryAndMarksRead(t *testing.T) {
	h := newGatewayHarness(t)
	ctx := context.Background()
	chatSvc := services.NewChatService(services.NewConversationResolver(h.store, h.store), h.store, h.store, discardLogger())
	for i := 0; i < 3; i++ {
		_, err := chatSvc.SendMessage(ctx, h.customer, h.booking.ID.Hex(), fmt.Sprintf("m%d", i))
		require.NoError(t, err)
	}

	provider := h.connect(h.providerU)
	joined := h.join(t, provider)
	assert.Equal(t, h.booking.ID.Hex(), joined.BookingID)
	assert.Equal(t, int64(3), joined.Total)
	msgs := joined.Messages.([]*services.MessageView)
	require.Len(t, msgs, 3)
	assert.Equal(t, "m0", msgs[0].Content)

	unread, err := h.store.CountUnreadMessages(ctx, h.booking.ID, h.providerU)
	require.NoError(t, err)
	assert.Zero(t, unread)
	assert.True(t, h.chatGW.Rooms().IsMember(roomName(h.booking.ID.Hex()), provider))
}

func TestJoinRoomRejectsNonParticipant(t *testing.T) {
	h := newGatewayHarness(t)
	stranger := h.connect("stranger")

	h.chatGW.Handle(context.Background(), stranger, envelope(EventJoinRoom, h.ref()))
	assert.Equal(t, string(models.KindForbidden), errorCode(t, stranger))
	assert.False(t, h.chatGW.Rooms().IsMember(roomName(h.booking.ID.Hex()), stranger))

	h.chatGW.Handle(context.Background(), stranger, envelope(EventJoinRoom, map[string]string{}))
	assert.Equal(t, string(models.KindValidation), errorCode(t, stranger))
}

func TestSendMessageBroadcastsToRoom(t *testing.T) {
	h := newGatewayHarness(t)
	customer := h.connect(h.customer)
	provider := h.connect(h.providerU)
	providerOtherTab := h.connect(h.providerU)
	h.join(t, customer)
	h.join(t, provider)

	h.chatGW.Handle(context.Background(), customer, envelope(EventSendMessage, map[string]string{
		"bookingId": h.booking.ID.Hex(),
		"content":   "on my way",
	}))

	require.Len(t, customer.events(EventNewMessage), 1)
	got := provider.events(EventNewMessage)
	require.Len(t, got, 1)
	view := got[0].Data.(*services.MessageView)
	assert.Equal(t, "on my way", view.Content)
	assert.Equal(t, models.RoleUser, view.SenderRole)
	assert.Empty(t, providerOtherTab.events(EventNewMessage))
	assert.Len(t, h.store.Messages(h.booking.ID), 1)
}

func TestSendMessageOutsideRoomEchoesToSender(t *testing.T) {
	h := newGatewayHarness(t)
	customer := h.connect(h.customer)

	h.chatGW.Handle(context.Background(), customer, envelope(EventSendMessage, map[string]string{
		"bookingId": h.booking.ID.Hex(),
		"content":   "hello?",
	}))
	assert.Len(t, customer.events(EventNewMessage), 1)

	h.chatGW.Handle(context.Background(), customer, envelope(EventSendMessage, map[string]string{
		"bookingId": h.booking.ID.Hex(),
		"content":   " ",
	}))
	assert.Equal(t, string(models.KindValidation), errorCode(t, customer))
}

func TestRoomsIgnoreBookingIDCase(t *testing.T) {
	h := newGatewayHarness(t)
	customer := h.connect(h.customer)
	provider := h.connect(h.providerU)
	upper := map[string]string{"bookingId": strings.ToUpper(h.booking.ID.Hex())}

	h.chatGW.Handle(context.Background(), provider, envelope(EventJoinRoom, upper))
	joined := provider.events(EventRoomJoined)
	require.Len(t, joined, 1, "errors: %v", provider.events(EventError))
	assert.Equal(t, h.booking.ID.Hex(), joined[0].Data.(roomJoined).BookingID)
	assert.True(t, h.chatGW.Rooms().IsMember(roomName(h.booking.ID.Hex()), provider))
	h.join(t, customer)

	h.chatGW.Handle(context.Background(), customer, envelope(EventSendMessage, map[string]string{
		"bookingId": h.booking.ID.Hex(),
		"content":   "hi",
	}))
	require.Len(t, provider.events(EventNewMessage), 1)

	h.chatGW.Handle(context.Background(), provider, envelope(EventTypingStart, upper))
	require.Len(t, customer.events(EventUserTyping), 1)
	assert.Equal(t, h.booking.ID.Hex(), customer.events(EventUserTyping)[0].Data.(typing).BookingID)

	h.chatGW.Handle(context.Background(), customer, envelope(EventJoinRoom, map[string]string{"bookingId": "not-an-id"}))
	assert.Equal(t, string(models.KindValidation), errorCode(t, customer))
}

func TestMarkReadNotifiesOthersInRoom(t *testing.T) {
	h := newGatewayHarness(t)
	customer := h.connect(h.customer)
	provider := h.connect(h.providerU)
	h.join(t, customer)
	h.join(t, provider)

	h.chatGW.Handle(context.Background(), provider, envelope(EventMarkRead, h.ref()))

	reads := customer.events(EventMessagesRead)
	require.Len(t, reads, 1)
	assert.Equal(t, messagesRead{ByUserID: h.providerU, BookingID: h.booking.ID.Hex()}, reads[0].Data)
	assert.Empty(t, provider.events(EventMessagesRead))
}

func TestTypingRequiresMembership(t *testing.T) {
	h := newGatewayHarness(t)
	customer := h.connect(h.customer)
	provider := h.connect(h.providerU)

	h.chatGW.Handle(context.Background(), customer, envelope(EventTypingStart, h.ref()))
	assert.Equal(t, string(models.KindForbidden), errorCode(t, customer))

	h.join(t, customer)
	h.join(t, provider)
	h.chatGW.Handle(context.Background(), customer, envelope(EventTypingStart, h.ref()))
	h.chatGW.Handle(context.Background(), customer, envelope(EventTypingStop, h.ref()))

	assert.Len(t, provider.events(EventUserTyping), 1)
	assert.Len(t, provider.events(EventUserStoppedTyping), 1)
	assert.Empty(t, customer.events(EventUserTyping))
}

func TestLeaveAndDisconnect(t *testing.T) {
	h := newGatewayHarness(t)
	customer := h.connect(h.customer)
	h.join(t, customer)
	room := roomName(h.booking.ID.Hex())

	h.chatGW.Handle(context.Background(), customer, envelope(EventLeaveRoom, h.ref()))
	assert.False(t, h.chatGW.Rooms().IsMember(room, customer))

	h.join(t, customer)
	h.chatGW.Disconnect(customer)
	assert.False(t, h.chatGW.Rooms().IsMember(room, customer))
	assert.False(t, h.chatGW.Registry().IsOnline(h.customer))
}

func TestUnknownEventReportsError(t *testing.T) {
	h := newGatewayHarness(t)
	c := h.connect(h.customer)
	h.chatGW.Handle(context.Background(), c, Envelope{Event: "dance"})
	assert.Equal(t, string(models.KindInvalidOperation), errorCode(t, c))
}

func TestNotificationRegisterUsesVerifiedIdentity(t *testing.T) {
	h := newGatewayHarness(t)
	tab := newFakeConn(h.providerU)
	h.notifyGW.Connect(tab)

	h.notifyGW.Handle(context.Background(), tab, envelope(EventRegister, "someone-else"))
	assert.Equal(t, string(models.KindForbidden), errorCode(t, tab))

	h.notifyGW.Handle(context.Background(), tab, envelope(EventRegister, h.providerU))
	h.notifyGW.Handle(context.Background(), tab, envelope(EventRegister, map[string]string{"userId": h.providerU}))
	assert.Len(t, tab.events(EventRegistered), 2)
	assert.Len(t, h.notifyGW.Registry().Connections(h.providerU), 1)
}

func TestBookingLifecycleReachesBothTabs(t *testing.T) {
	h := newGatewayHarness(t)
	tab1, tab2 := newFakeConn(h.customer), newFakeConn(h.customer)
	h.notifyGW.Connect(tab1)
	h.notifyGW.Connect(tab2)

	_, err := h.bookings.UpdateStatus(context.Background(), h.providerU, h.booking.ID.Hex(), models.StatusAccepted)
	require.NoError(t, err)

	for _, tab := range []*fakeConn{tab1, tab2} {
		got := tab.events(services.NotificationEvent)
		require.Len(t, got, 1)
		n := got[0].Data.(*models.Notification)
		assert.Equal(t, models.NotificationBookingAccepted, n.Type)
	}
}

func TestOfflineProviderFindsNotificationLater(t *testing.T) {
	h := newGatewayHarness(t)
	assert.False(t, h.notifyGW.Registry().IsOnline(h.providerU))

	page, err := h.notify.ListMine(context.Background(), h.providerU, models.Pagination{Page: 1, Size: 20})
	require.NoError(t, err)
	require.Len(t, page.Notifications, 1)
	assert.Equal(t, models.NotificationBookingCreated, page.Notifications[0].Type)
	assert.Equal(t, int64(1), page.Unread)
}
