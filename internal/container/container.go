package container

import (
	"log/slog"

	"github.com/joshua-takyi/handyhub/internal/config"
	"github.com/joshua-takyi/handyhub/internal/events"
	"github.com/joshua-takyi/handyhub/internal/helpers"
	"github.com/joshua-takyi/handyhub/internal/models"
	"github.com/joshua-takyi/handyhub/internal/realtime"
	"github.com/joshua-takyi/handyhub/internal/services"
)

// Stores are the persistence and directory collaborators the services run on.
type Stores struct {
	Bookings      models.BookingRepo
	Messages      models.MessageRepo
	Notifications models.NotificationRepo
	Providers     models.ProviderDirectory
	Users         models.UserDirectory
	Publisher     events.Publisher
}

// Container holds all application dependencies
type Container struct {
	Config   *config.Config
	Logger   *slog.Logger
	Verifier helpers.Verifier

	BookingService      *services.BookingService
	ChatService         *services.ChatService
	NotificationService *services.NotificationService

	Sockets             *realtime.Server
	ChatGateway         *realtime.ChatGateway
	NotificationGateway *realtime.NotificationGateway
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, logger *slog.Logger, verifier helpers.Verifier, stores Stores) *Container {
	notificationGateway := realtime.NewNotificationGateway(logger)
	notificationService := services.NewNotificationService(stores.Notifications, notificationGateway.Dispatcher(), logger)

	bookingService := services.NewBookingService(stores.Bookings, stores.Providers, stores.Users, notificationService, stores.Publisher, logger)
	resolver := services.NewConversationResolver(stores.Bookings, stores.Providers)
	chatService := services.NewChatService(resolver, stores.Messages, stores.Users, logger)
	chatGateway := realtime.NewChatGateway(chatService, cfg.ChatHistorySize, logger)

	return &Container{
		Config:              cfg,
		Logger:              logger,
		Verifier:            verifier,
		BookingService:      bookingService,
		ChatService:         chatService,
		NotificationService: notificationService,
		Sockets:             realtime.NewServer(verifier, cfg.CORSOrigins, cfg.WSSendBuffer, logger),
		ChatGateway:         chatGateway,
		NotificationGateway: notificationGateway,
	}
}
