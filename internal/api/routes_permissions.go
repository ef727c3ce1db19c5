package api

import (
	"github.com/gin-gonic/gin"

	"github.com/storewave/storewave/internal/handlers"
	"github.com/storewave/storewave/internal/middleware"
	"github.com/storewave/storewave/internal/rbac"
)

func registerPermissionRoutes(api *gin.RouterGroup, handler *handlers.PermissionHandler, checker *rbac.Checker) {
	perms := api.Group("/permissions")
	{
		perms.GET("", middleware.RequirePermission(checker, "permission:read"), handler.Search)
		perms.GET("/available", middleware.RequirePermission(checker, "permission:read"), handler.ListAvailable)
		perms.GET("/by-module", middleware.RequirePermission(checker, "permission:read"), handler.ListByModule)
		perms.GET("/modules", middleware.RequirePermission(checker, "permission:read"), handler.ListModules)
		perms.GET("/check", middleware.RequirePermission(checker, "permission:read"), handler.Check)
		perms.GET("/my", handler.MyPermissions)
		perms.GET("/:id", middleware.RequirePermission(checker, "permission:read"), handler.Get)
		perms.POST("", middleware.RequirePermission(checker, "permission:create"), handler.Create)
		perms.PATCH("/:id", middleware.RequirePermission(checker, "permission:update"), handler.Update)
		perms.DELETE("/:id", middleware.RequirePermission(checker, "permission:delete"), handler.Delete)
	}
}
