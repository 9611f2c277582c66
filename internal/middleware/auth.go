package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/konbon-dev/konbon-api/internal/constants"
	apierrors "github.com/konbon-dev/konbon-api/internal/errors"
)

// RequireAuth rejects requests without an authenticated session and exposes
// the session's user id to downstream handlers via the request context.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		raw := session.Get(constants.ContextKeyUserID)
		if raw == nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, raw)
		c.Next()
	}
}

// GetUserID returns the authenticated user's id from the request context.
// The session store round-trips the id through gob, so it may come back as
// a narrower integer type than the uint64 it was stored as.
func GetUserID(c *gin.Context) (uint64, bool) {
	raw, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch id := raw.(type) {
	case uint64:
		return id, true
	case uint:
		return uint64(id), true
	case int:
		if id < 0 {
			return 0, false
		}
		return uint64(id), true
	}
	return 0, false
}
