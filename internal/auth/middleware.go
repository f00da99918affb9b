package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	userIDContextKey     = "auth_user_id"
	cookieAuthContextKey = "auth_via_cookie"
)

// Middleware validates bearer access tokens and stores the authenticated user
// in the context. The Authorization header wins; the auth cookie is a
// fallback for the server-rendered page.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, fromCookie := s.extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		userID, err := s.ValidateAccess(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(userIDContextKey, userID)
		c.Set(cookieAuthContextKey, fromCookie)
		c.Next()
	}
}

// UserIDFromContext retrieves the authenticated user id from the gin context.
func UserIDFromContext(c *gin.Context) (int64, bool) {
	val, ok := c.Get(userIDContextKey)
	if !ok {
		return 0, false
	}
	userID, ok := val.(int64)
	return userID, ok
}

func (s *Service) extractToken(c *gin.Context) (token string, fromCookie bool) {
	authHeader := c.GetHeader(s.headerName)
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:]), false
	}
	if token, err := c.Cookie(s.cookieName); err == nil && token != "" {
		return token, true
	}
	return "", false
}
