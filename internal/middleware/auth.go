package middleware

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/projectdesk/internal/constants"
	apierrors "github.com/yukikurage/projectdesk/internal/errors"
	"github.com/yukikurage/projectdesk/internal/services"
)

// PrincipalResolver turns a bearer token into the caller it belongs to
type PrincipalResolver interface {
	Principal(token string) (*services.Principal, error)
}

// Token returns the bearer token of the request. The Authorization header
// wins over the browser session.
func Token(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}

	session := sessions.Default(c)
	if token, ok := session.Get(constants.SessionKeyToken).(string); ok {
		return token
	}
	return ""
}

// RequireAuth checks that the request carries a live session token
func RequireAuth(resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := resolver.Principal(Token(c))
		if err != nil {
			apierrors.RespondServiceError(c, err)
			c.Abort()
			return
		}

		// Store the caller in context for easy access in handlers
		c.Set(constants.ContextKeyPrincipal, principal)
		c.Set(constants.ContextKeyUserID, principal.UserID)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	v, ok := userID.(uint64)
	return v, ok
}

// GetPrincipal retrieves the resolved caller from context
func GetPrincipal(c *gin.Context) (*services.Principal, bool) {
	v, exists := c.Get(constants.ContextKeyPrincipal)
	if !exists {
		return nil, false
	}
	principal, ok := v.(*services.Principal)
	return principal, ok
}
