package middleware

import (
	"context"
	"net/http"
	"strings"

	"foodgram/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// Context keys set by the authentication middlewares.
const (
	ContextUserID = "userID"
	ContextClaims = "claims"
)

// TokenValidator is the part of service.AuthService the middlewares need.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*service.Claims, error)
}

// AuthMiddleware is a Gin middleware for JWT authentication of API requests.
// It rejects the request unless the Authorization header carries a valid,
// non-revoked token.
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		tokenString, ok := bearerToken(authHeader)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		claims, err := validator.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextClaims, claims)
		c.Set(ContextUserID, claims.UserID)
		c.Next()
	}
}

// OptionalAuth sets the caller when a valid token is present and lets
// anonymous requests through. A bad token is still rejected.
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	required := AuthMiddleware(validator)
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		required(c)
	}
}

// CurrentUserID returns the authenticated caller, or "" for anonymous requests.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

func CurrentClaims(c *gin.Context) *service.Claims {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*service.Claims)
	return claims
}

// bearerToken accepts "Bearer <token>" and the "Token <token>" scheme older
// clients send.
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", false
	}
	switch parts[0] {
	case "Bearer", "Token":
		return parts[1], true
	default:
		return "", false
	}
}
