package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/storewave/storewave/internal/auditctx"
	"github.com/storewave/storewave/pkg/errors"
	"github.com/storewave/storewave/pkg/response"
)

// Context keys under which the authenticated identity is stored.
const (
	CtxUserIDKey   = "storewave.user_id"
	CtxUsernameKey = "storewave.username"
)

// Headers set by the platform gateway after authenticating the caller. This
// service is never exposed directly; token verification happens upstream.
const (
	HeaderUserID   = "X-Auth-User-Id"
	HeaderUsername = "X-Auth-Username"
)

// Identity extracts the gateway-forwarded identity, rejects anonymous requests,
// and threads actor metadata into the request context for audit logging.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		if userID == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		username := c.GetHeader(HeaderUsername)
		c.Set(CtxUserIDKey, userID)
		c.Set(CtxUsernameKey, username)

		ctx := auditctx.WithActor(c.Request.Context(), auditctx.Actor{
			UserID:    userID,
			Username:  username,
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
