package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/homekrypto/estatio/internal/auth"
)

const (
	// ContextKeyAgentID holds the key for the agent ID in Gin context.
	ContextKeyAgentID = "agentID"
	// ContextKeyClaims holds the full identity claims in Gin context.
	ContextKeyClaims = "identityClaims"
)

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		tokenString := parts[1]
		claims, err := auth.ValidateJWT(tokenString, jwtSecret)
		if err != nil {
			errMsg := fmt.Sprintf("Invalid or expired token: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errMsg})
			return
		}

		// Set agent info in context for handlers to use
		c.Set(ContextKeyAgentID, claims.AgentID())
		c.Set(ContextKeyClaims, claims)

		c.Next()
	}
}

// AgentID extracts the authenticated agent id set by AuthMiddleware.
// The second return value is false if the request was not authenticated.
func AgentID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextKeyAgentID)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
