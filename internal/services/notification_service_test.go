package services

import (
	"context"
	"errors"
	"testing"

	"github.com/joshua-takyi/handyhub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyStoresOneRowWhetherOnlineOrNot(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.dispatcher.Online["online-user"] = true

	for _, recipient := range []string{"online-user", "offline-user"} {
		n, err := h.notify.Notify(ctx, NotifyParams{
			RecipientID: recipient,
			Type:        models.NotificationBookingAccepted,
			Title:       "Booking accepted",
			Message:     "see you soon",
		})
		require.NoError(t, err)
		assert.False(t, n.IsRead)
		assert.Len(t, h.store.Notifications(recipient), 1)
	}
	assert.Len(t, h.dispatcher.Deliveries(), 2)
}

func TestNotifyPersistFailureSkipsDispatch(t *testing.T) {
	h := newHarness()
	h.store.FailNotifications = errors.New("write conflict")

	_, err := h.notify.Notify(context.Background(), NotifyParams{RecipientID: "u1", Type: models.NotificationBookingCreated})
	require.Error(t, err)
	assert.Empty(t, h.dispatcher.Deliveries())
}

func TestNotificationReadAcknowledgement(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		n, err := h.notify.Notify(ctx, NotifyParams{RecipientID: "u1", Type: models.NotificationBookingCreated, Title: "t"})
		require.NoError(t, err)
		ids = append(ids, n.ID.Hex())
	}
	_, err := h.notify.Notify(ctx, NotifyParams{RecipientID: "u2", Type: models.NotificationBookingCreated})
	require.NoError(t, err)

	page, err := h.notify.ListMine(ctx, "u1", models.Pagination{Page: 1, Size: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, int64(3), page.Unread)
	assert.Equal(t, ids[2], page.Notifications[0].ID.Hex())

	read, err := h.notify.MarkOneRead(ctx, "u1", ids[0])
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	_, err = h.notify.MarkOneRead(ctx, "u2", ids[1])
	assert.True(t, models.IsKind(err, models.KindNotFound))

	_, err = h.notify.MarkOneRead(ctx, "u1", "not-an-id")
	assert.True(t, models.IsKind(err, models.KindValidation))

	n, err := h.notify.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	page, err = h.notify.ListMine(ctx, "u1", models.Pagination{Page: 1, Size: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Unread)

	other, err := h.notify.ListMine(ctx, "u2", models.Pagination{Page: 1, Size: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), other.Unread)
}
