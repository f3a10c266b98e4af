package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-messaging/internal/models"
)

// SessionResolver maps a bearer token to its user.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (models.CurrentUser, error)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   gin.H{"code": models.CodeUnauthorized, "message": message},
	})
}

// AuthMiddleware validates the Authorization header against stored sessions
// and sets userID and userName on the context.
func AuthMiddleware(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			unauthorized(c, "missing authorization")
			return
		}

		token, ok := BearerToken(header)
		if !ok {
			unauthorized(c, "invalid authorization header")
			return
		}

		user, err := sessions.ResolveSession(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, models.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   gin.H{"code": models.CodeInternal, "message": "failed to validate session"},
				})
				return
			}
			unauthorized(c, "invalid token")
			return
		}

		c.Set("userID", user.UserID)
		c.Set("userName", user.DisplayName)
		c.Next()
	}
}
