package api

import (
	"net/http"
	"strings"

	"github.com/ameyrk91/fitbooking/internal/auth"
	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// RequireAuth validates the bearer access token and aborts with 401
// otherwise. The verified email is stored on the context for handlers.
func RequireAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
			return
		}

		claims, err := tokens.ParseAccess(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Given token not valid for any token type"})
			return
		}

		c.Set("user_email", claims.Email)
		c.Next()
	}
}
