package mw

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Context keys set by Identity.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// Headers the auth layer in front of this service forwards.
const (
	headerUserID = "X-User-ID"
	headerRole   = "X-User-Role"
)

// Identity extracts the authenticated identity forwarded by the auth layer
// in front of this service (X-User-ID / X-User-Role). The booking core
// trusts this identity without re-verifying credentials.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		idHeader := c.GetHeader(headerUserID)
		if idHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}
		userID, err := strconv.ParseInt(idHeader, 10, 64)
		if err != nil || userID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid identity"})
			return
		}

		role := c.GetHeader(headerRole)
		if role == "" {
			role = "user"
		}

		c.Set(CtxUserID, userID)
		c.Set(CtxRole, role)
		c.Next()
	}
}

// RequireAdmin rejects requests whose identity is not an admin.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxRole) != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied. Admin only."})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id from the context.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(CtxUserID)
}
