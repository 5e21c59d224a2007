package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clumsypasta/abans-form/internal/service"
	appErrors "github.com/clumsypasta/abans-form/pkg/errors"
	"github.com/clumsypasta/abans-form/pkg/response"
)

// ContextAdminKey is the gin context key storing admin JWT claims.
const ContextAdminKey = "currentAdmin"

// AdminJWT protects the review routes by requiring a valid admin token.
func AdminJWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextAdminKey, claims)
		c.Next()
	}
}
