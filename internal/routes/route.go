package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/handyhub/internal/container"
	"github.com/joshua-takyi/handyhub/internal/handlers"
	"github.com/joshua-takyi/handyhub/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	if container.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(cors.New(corsConfig(container.Config.CORSOrigins)))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	// sockets authenticate during the upgrade
	ws := r.Group("/ws")
	{
		ws.GET("/chat", container.Sockets.Serve(container.ChatGateway))
		ws.GET("/notifications", container.Sockets.Serve(container.NotificationGateway))
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "OK",
				"service": "handyhub-api",
			})
		})
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(container.Verifier, container.Logger))

	bookingRoutes := protected.Group("/bookings")
	{
		bookingRoutes.POST("", handlers.CreateBooking(container.BookingService))
		bookingRoutes.GET("/my", handlers.ListMyBookings(container.BookingService))
		bookingRoutes.GET("/provider", handlers.ListProviderBookings(container.BookingService))
		bookingRoutes.GET("/:id", handlers.GetBooking(container.BookingService))
		bookingRoutes.PATCH("/:id/status", handlers.UpdateBookingStatus(container.BookingService))
		bookingRoutes.PATCH("/:id/cancel", handlers.CancelBooking(container.BookingService))
		bookingRoutes.POST("/:id/rate", handlers.RateBooking(container.BookingService))
	}

	chatRoutes := protected.Group("/chat")
	{
		chatRoutes.POST("", handlers.SendMessage(container.ChatService))
		chatRoutes.GET("/:bookingId", handlers.ListMessages(container.ChatService))
		chatRoutes.PATCH("/:bookingId/read", handlers.MarkMessagesRead(container.ChatService))
		chatRoutes.GET("/:bookingId/unread", handlers.UnreadCount(container.ChatService))
	}

	notificationRoutes := protected.Group("/notifications")
	{
		notificationRoutes.GET("", handlers.ListNotifications(container.NotificationService))
		notificationRoutes.PATCH("/read-all", handlers.MarkAllNotificationsRead(container.NotificationService))
		notificationRoutes.PATCH("/:id/read", handlers.MarkNotificationRead(container.NotificationService))
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}
	for _, o := range origins {
		if o == "*" {
			origins = nil
			break
		}
	}
	if len(origins) == 0 {
		// credentials cannot be combined with a wildcard origin
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
