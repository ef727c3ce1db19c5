package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/storewave/storewave/internal/rbac"
	"github.com/storewave/storewave/pkg/errors"
	"github.com/storewave/storewave/pkg/response"
)

// RequirePermission checks that the authenticated user holds the provided
// permission code. The checker fails closed, so any evaluation problem denies.
func RequirePermission(checker *rbac.Checker, permissionCode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxUserIDKey)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		userID, _ := v.(string)

		if !checker.CheckUserPermission(c.Request.Context(), userID, permissionCode) {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
