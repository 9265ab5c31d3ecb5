package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/joshua-takyi/handyhub/internal/cache"
	"github.com/joshua-takyi/handyhub/internal/config"
	"github.com/joshua-takyi/handyhub/internal/connect"
	"github.com/joshua-takyi/handyhub/internal/container"
	"github.com/joshua-takyi/handyhub/internal/events"
	"github.com/joshua-takyi/handyhub/internal/helpers"
	"github.com/joshua-takyi/handyhub/internal/models"
	"github.com/joshua-takyi/handyhub/internal/routes"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load environment variables
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	logger.Info("Starting HandyHub API server", "environment", cfg.Environment)

	mongoClient, err := connect.MongoDBConnect(cfg.MongoDBURI, cfg.MongoDBPassword)
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to MongoDB successfully")

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := connect.EnsureIndexes(indexCtx, mongoClient, cfg.MongoDBDatabase); err != nil {
		logger.Warn("Failed to ensure MongoDB indexes", "error", err)
	}
	cancelIndexes()

	mongoRepo := models.MongodbNewRepo(mongoClient, cfg.MongoDBDatabase)

	var users models.UserDirectory = mongoRepo
	if cfg.SupabaseURL != "" {
		supaClient, err := connect.InitSupabase(cfg.SupabaseURL, cfg.SupabaseAnonKey)
		if err != nil {
			logger.Error("Failed to connect to Supabase", "error", err)
			os.Exit(1)
		}
		users = models.SupabaseNewRepo(supaClient)
		logger.Info("Using Supabase profiles as the user directory")
	}

	var providers models.ProviderDirectory = mongoRepo
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = connect.RedisConnect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			// the cache is optional; run straight against MongoDB
			logger.Warn("Redis unavailable, provider cache disabled", "error", err)
		} else {
			providers = cache.NewProviderCache(mongoRepo, redisClient, cfg.ProviderCacheTTL, logger)
			logger.Info("Provider cache enabled", "addr", cfg.RedisAddr)
		}
	}

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaBookingTopic, logger)

	verifier, err := helpers.NewTokenVerifier(cfg.JWTSecret, cfg.JWKSURL)
	if err != nil {
		logger.Error("Failed to initialise token verifier", "error", err)
		os.Exit(1)
	}

	appContainer := container.NewContainer(cfg, logger, verifier, container.Stores{
		Bookings:      mongoRepo,
		Messages:      mongoRepo,
		Notifications: mongoRepo,
		Providers:     providers,
		Users:         users,
		Publisher:     publisher,
	})

	router := routes.SetupRoutes(appContainer)

	// WriteTimeout stays zero: upgraded websocket connections outlive any request deadline.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if err := publisher.Close(); err != nil {
		logger.Error("Error closing event publisher", "error", err)
	}
	verifier.Close()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Error closing Redis client", "error", err)
		}
	}
	if err := connect.MongoDBDisconnect(mongoClient); err != nil {
		logger.Error("Error disconnecting from MongoDB", "error", err)
	}

	logger.Info("Server exited")
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.SlogLevel(),
		})
	} else {
		// Human-readable logging for development
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.SlogLevel(),
		})
	}

	return slog.New(handler)
}
