package middleware

import (
	"net/http"

	"perfumeria/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	UserIDKey    = "user_id"
	UserIDHeader = "X-User-ID"
)

// UserID reads the acting user from X-User-ID. The header is optional;
// authentication happens upstream. A malformed value is rejected.
func UserID() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(UserIDHeader)
		if raw == "" {
			c.Next()
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, apierror.New("X-User-ID invalido"))
			return
		}
		c.Set(UserIDKey, id)
		c.Next()
	}
}

// GetUserID returns the acting user, or nil for anonymous requests.
func GetUserID(c *gin.Context) *uuid.UUID {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}
