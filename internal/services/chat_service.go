package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joshua-takyi/handyhub/internal/models"
)

// MessageView is a stored message with its sender expanded when the directory knows them.
type MessageView struct {
	*models.Message
	Sender *models.UserSummary `json:"sender,omitempty"`
}

type ChatService struct {
	resolver    *ConversationResolver
	messageRepo models.MessageRepo
	users       models.UserDirectory
	logger      *slog.Logger
}

func NewChatService(resolver *ConversationResolver, messageRepo models.MessageRepo, users models.UserDirectory, logger *slog.Logger) *ChatService {
	return &ChatService{
		resolver:    resolver,
		messageRepo: messageRepo,
		users:       users,
		logger:      logger,
	}
}

func (cs *ChatService) SendMessage(ctx context.Context, callerID, bookingID, content string) (*MessageView, error) {
	id, err := models.ParseObjectID("booking_id", bookingID)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.ValidationFailed(map[string]string{"content": "is required"})
	}
	party, err := cs.resolver.Resolve(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	msg, err := cs.messageRepo.CreateMessage(ctx, &models.Message{
		BookingID:  id,
		SenderID:   callerID,
		SenderRole: party.Role,
		Content:    content,
	})
	if err != nil {
		return nil, err
	}
	views := cs.expandSenders(ctx, []*models.Message{msg})
	return views[0], nil
}

func (cs *ChatService) ListMessages(ctx context.Context, callerID, bookingID string, page models.Pagination) (models.Page[*MessageView], error) {
	if err := page.Validate(); err != nil {
		return models.Page[*MessageView]{}, err
	}
	id, err := models.ParseObjectID("booking_id", bookingID)
	if err != nil {
		return models.Page[*MessageView]{}, err
	}
	if _, err := cs.resolver.Resolve(ctx, id, callerID); err != nil {
		return models.Page[*MessageView]{}, err
	}

	msgs, total, err := cs.messageRepo.ListMessagesByBooking(ctx, id, page)
	if err != nil {
		return models.Page[*MessageView]{}, err
	}
	return models.NewPage(cs.expandSenders(ctx, msgs), total, page), nil
}

// MarkAsRead flips the caller's unread incoming messages and returns how many changed.
func (cs *ChatService) MarkAsRead(ctx context.Context, callerID, bookingID string) (int64, error) {
	id, err := models.ParseObjectID("booking_id", bookingID)
	if err != nil {
		return 0, err
	}
	if _, err := cs.resolver.Resolve(ctx, id, callerID); err != nil {
		return 0, err
	}
	return cs.messageRepo.MarkMessagesRead(ctx, id, callerID)
}

func (cs *ChatService) UnreadCount(ctx context.Context, callerID, bookingID string) (int64, error) {
	id, err := models.ParseObjectID("booking_id", bookingID)
	if err != nil {
		return 0, err
	}
	if _, err := cs.resolver.Resolve(ctx, id, callerID); err != nil {
		return 0, err
	}
	return cs.messageRepo.CountUnreadMessages(ctx, id, callerID)
}

// expandSenders attaches sender summaries. A directory failure leaves senders unexpanded.
func (cs *ChatService) expandSenders(ctx context.Context, msgs []*models.Message) []*MessageView {
	views := make([]*MessageView, len(msgs))
	for i, m := range msgs {
		views[i] = &MessageView{Message: m}
	}
	if cs.users == nil || len(msgs) == 0 {
		return views
	}

	seen := map[string]struct{}{}
	ids := []string{}
	for _, m := range msgs {
		if _, ok := seen[m.SenderID]; !ok {
			seen[m.SenderID] = struct{}{}
			ids = append(ids, m.SenderID)
		}
	}
	summaries, err := cs.users.GetUserSummaries(ctx, ids)
	if err != nil {
		cs.logger.Warn("Failed to expand message senders", "error", err)
		return views
	}
	for _, v := range views {
		v.Sender = summaries[v.SenderID]
	}
	return views
}
