package util

import (
	"ecole_backend/internal/model"

	"github.com/gin-gonic/gin"
)

// gin 上下文键
const (
	ContextUserKey    = "user"
	ContextUserIDKey  = "userID"
	ContextIsAdminKey = "isAdmin"
)

// GetUser returns the principal loaded by the auth middleware.
func GetUser(c *gin.Context) (*model.User, bool) {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}

func GetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// IsAdmin is only meaningful after the admin middleware or an explicit role check ran.
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(ContextIsAdminKey)
}
