package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shubh-37/ghostwriter/internal/apperrors"
	"github.com/shubh-37/ghostwriter/internal/models"
)

const userContextKey = "current_user"

// Middleware validates the bearer token and stores the user on the context
func (p *Provider) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		claims, err := p.ValidateJWT(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(userContextKey, claims.User())
		c.Next()
	}
}

// CurrentUser returns the user resolved by Middleware
func CurrentUser(c *gin.Context) (*models.User, error) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil, apperrors.ErrNotAuthenticated
	}
	user, ok := v.(*models.User)
	if !ok || user.ID == "" {
		return nil, apperrors.ErrNotAuthenticated
	}
	return user, nil
}
