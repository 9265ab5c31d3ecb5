package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/joshua-takyi/handyhub/internal/models"
	"github.com/joshua-takyi/handyhub/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatGateway serves the chat channel: booking rooms, messages, read receipts and typing.
type ChatGateway struct {
	chat        *services.ChatService
	registry    *Registry
	rooms       *Rooms
	historySize int
	logger      *slog.Logger
}

func NewChatGateway(chat *services.ChatService, historySize int, logger *slog.Logger) *ChatGateway {
	if historySize <= 0 {
		historySize = models.DefaultMessagePageSize
	}
	return &ChatGateway{
		chat:        chat,
		registry:    NewRegistry(),
		rooms:       NewRooms(),
		historySize: historySize,
		logger:      logger,
	}
}

func (g *ChatGateway) Registry() *Registry { return g.registry }
func (g *ChatGateway) Rooms() *Rooms       { return g.rooms }

func (g *ChatGateway) Connect(c Conn) {
	g.registry.Add(c)
	g.logger.Info("Chat socket connected", "user_id", c.UserID(), "conn_id", c.ID())
}

func (g *ChatGateway) Disconnect(c Conn) {
	g.rooms.LeaveAll(c)
	g.registry.Remove(c)
	g.logger.Info("Chat socket disconnected", "user_id", c.UserID(), "conn_id", c.ID())
}

func (g *ChatGateway) Handle(ctx context.Context, c Conn, env Envelope) {
	switch env.Event {
	case EventJoinRoom:
		g.joinRoom(ctx, c, env.Data)
	case EventLeaveRoom:
		g.leaveRoom(c, env.Data)
	case EventSendMessage:
		g.sendMessage(ctx, c, env.Data)
	case EventMarkRead:
		g.markRead(ctx, c, env.Data)
	case EventTypingStart:
		g.typing(c, env.Data, EventUserTyping)
	case EventTypingStop:
		g.typing(c, env.Data, EventUserStoppedTyping)
	default:
		sendError(c, models.InvalidOperation("unknown event %q", env.Event), g.logger)
	}
}

func (g *ChatGateway) joinRoom(ctx context.Context, c Conn, data json.RawMessage) {
	id, ok := g.bookingID(c, data)
	if !ok {
		return
	}
	bookingID := id.Hex()
	history, err := g.chat.ListMessages(ctx, c.UserID(), bookingID, models.Pagination{Page: 1, Size: g.historySize})
	if err != nil {
		sendError(c, err, g.logger)
		return
	}
	if _, err := g.chat.MarkAsRead(ctx, c.UserID(), bookingID); err != nil {
		sendError(c, err, g.logger)
		return
	}

	g.rooms.Join(roomName(bookingID), c)
	g.logger.Debug("Joined booking room", "user_id", c.UserID(), "conn_id", c.ID(), "booking_id", bookingID)
	_ = c.Send(EventRoomJoined, roomJoined{
		BookingID: bookingID,
		Messages:  history.Items,
		Total:     history.Total,
	})
}

func (g *ChatGateway) leaveRoom(c Conn, data json.RawMessage) {
	id, ok := g.bookingID(c, data)
	if !ok {
		return
	}
	g.rooms.Leave(roomName(id.Hex()), c)
}

func (g *ChatGateway) sendMessage(ctx context.Context, c Conn, data json.RawMessage) {
	var req sendMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		sendError(c, models.ValidationFailed(map[string]string{"data": "malformed payload"}), g.logger)
		return
	}
	view, err := g.chat.SendMessage(ctx, c.UserID(), req.BookingID, req.Content)
	if err != nil {
		sendError(c, err, g.logger)
		return
	}

	bookingID := view.BookingID.Hex()
	room := roomName(bookingID)
	g.rooms.Broadcast(room, EventNewMessage, view, "")
	if !g.rooms.IsMember(room, c) {
		_ = c.Send(EventNewMessage, view)
	}

	if _, err := g.chat.MarkAsRead(ctx, c.UserID(), bookingID); err != nil {
		g.logger.Warn("Failed to mark messages read after send", "user_id", c.UserID(), "booking_id", bookingID, "error", err)
	}
}

func (g *ChatGateway) markRead(ctx context.Context, c Conn, data json.RawMessage) {
	id, ok := g.bookingID(c, data)
	if !ok {
		return
	}
	bookingID := id.Hex()
	if _, err := g.chat.MarkAsRead(ctx, c.UserID(), bookingID); err != nil {
		sendError(c, err, g.logger)
		return
	}
	g.rooms.Broadcast(roomName(bookingID), EventMessagesRead, messagesRead{
		ByUserID:  c.UserID(),
		BookingID: bookingID,
	}, c.ID())
}

// typing is relayed only from connections already in the room.
func (g *ChatGateway) typing(c Conn, data json.RawMessage, event string) {
	id, ok := g.bookingID(c, data)
	if !ok {
		return
	}
	bookingID := id.Hex()
	room := roomName(bookingID)
	if !g.rooms.IsMember(room, c) {
		sendError(c, models.Forbidden("join the booking room first"), g.logger)
		return
	}
	g.rooms.Broadcast(room, event, typing{UserID: c.UserID(), BookingID: bookingID}, c.ID())
}

// bookingID parses the payload's booking id. Rooms are keyed by its canonical hex form so
// differently cased ids from clients land in the same room.
func (g *ChatGateway) bookingID(c Conn, data json.RawMessage) (primitive.ObjectID, bool) {
	var ref bookingRef
	if err := json.Unmarshal(data, &ref); err != nil || strings.TrimSpace(ref.BookingID) == "" {
		sendError(c, models.ValidationFailed(map[string]string{"bookingId": "is required"}), g.logger)
		return primitive.NilObjectID, false
	}
	id, err := models.ParseObjectID("bookingId", strings.TrimSpace(ref.BookingID))
	if err != nil {
		sendError(c, err, g.logger)
		return primitive.NilObjectID, false
	}
	return id, true
}

func sendError(c Conn, err error, logger *slog.Logger) {
	if appErr, ok := models.AsAppError(err); ok {
		_ = c.Send(EventError, errorPayload{Message: appErr.Message, Code: string(appErr.Kind), Fields: appErr.Fields})
		return
	}
	logger.Error("Realtime handler failed", "user_id", c.UserID(), "conn_id", c.ID(), "error", err)
	_ = c.Send(EventError, errorPayload{Message: "internal error"})
}
