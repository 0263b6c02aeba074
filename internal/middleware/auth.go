package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yukikurage/task-tracker-api/internal/auth"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/services"
)

// Authenticator resolves a bearer token to an active user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// RequireAuth checks the bearer token from the Authorization header, or
// the one stored in the session at login
func RequireAuth(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			token = sessionToken(c)
		}
		if token == "" {
			apierrors.Unauthorized(c, "")
			return
		}

		user, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrAccountDisabled):
				apierrors.Forbidden(c, "Account is deactivated")
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenExpired):
				apierrors.Unauthorized(c, "Invalid or expired token")
			default:
				apierrors.InternalError(c, err)
			}
			return
		}

		// Store user ID in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyUserRole, user.Role)

		logger := zerolog.Ctx(c.Request.Context()).With().Uint64("user_id", user.ID).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))

		c.Next()
	}
}

// RequireRole allows the request through only for the given roles.
// It must run after RequireAuth.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(constants.ContextKeyUserRole)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		apierrors.Forbidden(c, "")
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader(constants.HeaderAuthorization)
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, constants.BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(token)
}

func sessionToken(c *gin.Context) string {
	// sessions.Default panics when no session middleware is installed
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return ""
	}
	token, _ := sessions.Default(c).Get(constants.SessionKeyToken).(string)
	return token
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
