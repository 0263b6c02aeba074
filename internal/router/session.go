package router

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"

	"github.com/yukikurage/task-tracker-api/internal/config"
	"github.com/yukikurage/task-tracker-api/internal/constants"
)

// NewSessionStore builds the session store selected by SESSION_STORE.
func NewSessionStore(cfg *config.Config) (sessions.Store, error) {
	var (
		store sessions.Store
		err   error
	)

	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		store, err = redisStore.NewStore(
			cfg.Redis.PoolSize,
			"tcp",
			cfg.Redis.Addr(),
			"", // username (empty for default user)
			cfg.Redis.Password,
			[]byte(cfg.Session.Secret),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
	case config.SessionStoreCookie:
		store = cookie.NewStore([]byte(cfg.Session.Secret))
	default:
		return nil, fmt.Errorf("unsupported session store %q", cfg.Session.Store)
	}

	store.Options(sessionOptions(cfg.GinMode == gin.ReleaseMode))
	return store, nil
}

func sessionOptions(secure bool) sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   constants.SessionMaxAge,
		HttpOnly: true,
		Secure:   secure, // true in production (HTTPS)
		SameSite: http.SameSiteLaxMode,
	}
}
