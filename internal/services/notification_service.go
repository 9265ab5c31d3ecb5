package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joshua-takyi/handyhub/internal/models"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationEvent is the realtime event name carrying a stored notification.
const NotificationEvent = "notification"

// Dispatcher pushes an event to every live connection of a user and reports how many
// connections it reached. Zero is not an error.
type Dispatcher interface {
	DeliverToUser(userID, event string, payload any) int
}

type NotifyParams struct {
	RecipientID string
	Type        models.NotificationType
	Title       string
	Message     string
	BookingID   *primitive.ObjectID
}

type NotificationPage struct {
	Notifications []*models.Notification `json:"notifications"`
	Total         int64                  `json:"total"`
	Unread        int64                  `json:"unread"`
	Page          int                    `json:"page"`
	Size          int                    `json:"size"`
}

type NotificationService struct {
	notificationRepo models.NotificationRepo
	dispatcher       Dispatcher
	logger           *slog.Logger
}

func NewNotificationService(notificationRepo models.NotificationRepo, dispatcher Dispatcher, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		dispatcher:       dispatcher,
		logger:           logger,
	}
}

// Notify stores the notification and then pushes it to the recipient if they are online.
// A storage failure is returned and nothing is pushed.
func (ns *NotificationService) Notify(ctx context.Context, p NotifyParams) (*models.Notification, error) {
	if strings.TrimSpace(p.RecipientID) == "" {
		return nil, errors.New("notification recipient is empty")
	}
	stored, err := ns.notificationRepo.CreateNotification(ctx, &models.Notification{
		RecipientID: p.RecipientID,
		Type:        p.Type,
		Title:       p.Title,
		Message:     p.Message,
		BookingID:   p.BookingID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to store notification")
	}

	if ns.dispatcher != nil {
		delivered := ns.dispatcher.DeliverToUser(p.RecipientID, NotificationEvent, stored)
		ns.logger.Debug("Notification dispatched",
			"recipient_id", p.RecipientID,
			"type", p.Type,
			"connections", delivered,
		)
	}
	return stored, nil
}

func (ns *NotificationService) ListMine(ctx context.Context, userID string, page models.Pagination) (*NotificationPage, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	items, total, unread, err := ns.notificationRepo.ListNotificationsByRecipient(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*models.Notification{}
	}
	return &NotificationPage{
		Notifications: items,
		Total:         total,
		Unread:        unread,
		Page:          page.Page,
		Size:          page.Size,
	}, nil
}

func (ns *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return ns.notificationRepo.MarkAllNotificationsRead(ctx, userID)
}

func (ns *NotificationService) MarkOneRead(ctx context.Context, userID, notificationID string) (*models.Notification, error) {
	id, err := models.ParseObjectID("id", notificationID)
	if err != nil {
		return nil, err
	}
	n, err := ns.notificationRepo.MarkNotificationRead(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, models.ErrNotificationNotFound
	}
	return n, nil
}
