package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/handyhub/internal/helpers"
	"github.com/joshua-takyi/handyhub/internal/models"
)

// callerID returns the authenticated user id or writes a 401.
func callerID(c *gin.Context) (string, bool) {
	id, ok := helpers.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.AppErrorResponse(models.Unauthorized("Unauthorized")))
		return "", false
	}
	return id.UserID, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		helpers.RespondError(c, models.ValidationFailed(map[string]string{"body": "invalid request body"}))
		return false
	}
	return true
}
