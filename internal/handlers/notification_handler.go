package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/handyhub/internal/helpers"
	"github.com/joshua-takyi/handyhub/internal/models"
	"github.com/joshua-takyi/handyhub/internal/services"
)

func ListNotifications(ns *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		page, err := ns.ListMine(c.Request.Context(), userID, helpers.Pagination(c, models.DefaultNotifyPageSize))
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(page, ""))
	}
}

func MarkAllNotificationsRead(ns *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		n, err := ns.MarkAllRead(c.Request.Context(), userID)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"updated": n}, "All notifications marked as read"))
	}
}

func MarkNotificationRead(ns *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		n, err := ns.MarkOneRead(c.Request.Context(), userID, c.Param("id"))
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(n, "Notification marked as read"))
	}
}
