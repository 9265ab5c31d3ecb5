package helpers

import (
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const userContextKey = "user"

// Claims is the token shape accepted by the API: sub is the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the verified caller.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email,omitempty"`
}

func SetIdentity(c *gin.Context, id *Identity) {
	c.Set(userContextKey, id)
}

// CurrentUser returns the identity stored by the auth middleware.
func CurrentUser(c *gin.Context) (*Identity, bool) {
	v, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	id, ok := v.(*Identity)
	return id, ok && id != nil && id.UserID != ""
}
