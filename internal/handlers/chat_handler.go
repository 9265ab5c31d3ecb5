package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/handyhub/internal/helpers"
	"github.com/joshua-takyi/handyhub/internal/models"
	"github.com/joshua-takyi/handyhub/internal/services"
)

func SendMessage(cs *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		var reqBody struct {
			BookingID string `json:"booking_id"`
			Content   string `json:"content"`
		}
		if !bindJSON(c, &reqBody) {
			return
		}

		msg, err := cs.SendMessage(c.Request.Context(), userID, reqBody.BookingID, reqBody.Content)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(msg, "Message sent"))
	}
}

func ListMessages(cs *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		page, err := cs.ListMessages(c.Request.Context(), userID, c.Param("bookingId"), helpers.Pagination(c, models.DefaultMessagePageSize))
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(page, ""))
	}
}

func MarkMessagesRead(cs *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		n, err := cs.MarkAsRead(c.Request.Context(), userID, c.Param("bookingId"))
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"updated": n}, "Messages marked as read"))
	}
}

func UnreadCount(cs *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		n, err := cs.UnreadCount(c.Request.Context(), userID, c.Param("bookingId"))
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"unread": n}, ""))
	}
}
