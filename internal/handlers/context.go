package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
)

// requestContext exposes the request-scoped context carrying deadline and
// actor metadata injected by the identity middleware.
func requestContext(c *gin.Context) context.Context {
	return c.Request.Context()
}
