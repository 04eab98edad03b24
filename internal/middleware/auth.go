package middleware

import (
	"net/http"
	"strings"

	"community_hub/internal/pkg"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey = "user_id"
	ContextRoleKey   = "role"
)

// Auth rejects the request unless it carries a valid bearer token.
func Auth(tokens *pkg.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, tokens)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success":    false,
				"error":      "Unauthorized",
				"statusCode": http.StatusUnauthorized,
			})
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth resolves the caller when a valid token is present and lets
// anonymous or badly authenticated requests through without identity.
func OptionalAuth(tokens *pkg.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := bearerClaims(c, tokens); ok {
			setIdentity(c, claims)
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}

func bearerClaims(c *gin.Context, tokens *pkg.TokenManager) (*pkg.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return nil, false
	}
	claims, err := tokens.Parse(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, false
	}
	return claims, true
}

func setIdentity(c *gin.Context, claims *pkg.Claims) {
	c.Set(ContextUserIDKey, claims.UserID)
	if claims.Role != "" {
		c.Set(ContextRoleKey, claims.Role)
	}
}
