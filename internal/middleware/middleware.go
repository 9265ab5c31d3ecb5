package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/handyhub/internal/helpers"
	"github.com/joshua-takyi/handyhub/internal/models"
)

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		requestID, _ := c.Get("request_id")
		attrs := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if id, ok := helpers.CurrentUser(c); ok {
			attrs = append(attrs, "user_id", id.UserID)
		}
		logger.Info("HTTP Request", attrs...)
	}
}

// ErrorHandler logs errors attached by handlers and answers with a bare 500 if nothing was
// written yet.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()
		requestID, _ := c.Get("request_id")

		logger.Error("Request error",
			"request_id", requestID,
			"error", err.Error(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, models.ApiResponse{
				Success: false,
				Error:   "Internal server error",
				Data:    gin.H{"request_id": requestID},
			})
		}
	}
}

// AuthMiddleware verifies the bearer token (or access_token cookie) and stores the caller's
// identity on the context.
func AuthMiddleware(verifier helpers.Verifier, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := helpers.TokenFromRequest(c.Request, false)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.AppErrorResponse(models.Unauthorized("Unauthorized access")))
			return
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			logger.Debug("Token rejected", "error", err, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.AppErrorResponse(models.Unauthorized("Unauthorized access")))
			return
		}

		helpers.SetIdentity(c, identity)
		c.Next()
	}
}
