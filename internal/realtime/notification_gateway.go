package realtime

import (
	"context"
	"log/slog"

	"github.com/joshua-takyi/handyhub/internal/models"
)

// NotificationGateway serves the notification channel. Connections are registered under
// their verified user at connect time.
type NotificationGateway struct {
	registry   *Registry
	dispatcher *Dispatcher
	logger     *slog.Logger
}

func NewNotificationGateway(logger *slog.Logger) *NotificationGateway {
	registry := NewRegistry()
	return &NotificationGateway{
		registry:   registry,
		dispatcher: NewDispatcher(registry, logger),
		logger:     logger,
	}
}

func (g *NotificationGateway) Registry() *Registry     { return g.registry }
func (g *NotificationGateway) Dispatcher() *Dispatcher { return g.dispatcher }

func (g *NotificationGateway) Connect(c Conn) {
	g.registry.Add(c)
	g.logger.Info("Notification socket connected", "user_id", c.UserID(), "conn_id", c.ID())
}

func (g *NotificationGateway) Disconnect(c Conn) {
	last := g.registry.Remove(c)
	g.logger.Info("Notification socket disconnected", "user_id", c.UserID(), "conn_id", c.ID(), "offline", last)
}

func (g *NotificationGateway) Handle(ctx context.Context, c Conn, env Envelope) {
	switch env.Event {
	case EventRegister:
		if claimed := registerUserID(env.Data); claimed != "" && claimed != c.UserID() {
			sendError(c, models.Forbidden("cannot register as another user"), g.logger)
			return
		}
		g.registry.Add(c)
		_ = c.Send(EventRegistered, map[string]string{"userId": c.UserID()})
	default:
		sendError(c, models.InvalidOperation("unknown event %q", env.Event), g.logger)
	}
}
