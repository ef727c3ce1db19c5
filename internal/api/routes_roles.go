package api

import (
	"github.com/gin-gonic/gin"

	"github.com/storewave/storewave/internal/handlers"
	"github.com/storewave/storewave/internal/middleware"
	"github.com/storewave/storewave/internal/rbac"
)

func registerRoleRoutes(api *gin.RouterGroup, handler *handlers.RoleHandler, checker *rbac.Checker) {
	roles := api.Group("/roles")
	{
		roles.GET("", middleware.RequirePermission(checker, "role:read"), handler.List)
		roles.GET("/:id", middleware.RequirePermission(checker, "role:read"), handler.Get)
		roles.POST("", middleware.RequirePermission(checker, "role:create"), handler.Create)
		roles.PATCH("/:id", middleware.RequirePermission(checker, "role:update"), handler.Update)
		roles.DELETE("/:id", middleware.RequirePermission(checker, "role:delete"), handler.Delete)
		roles.PUT("/:id/permissions", middleware.RequirePermission(checker, "role:grant:permission"), handler.SetPermissions)
	}
}
