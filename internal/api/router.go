package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/storewave/storewave/internal/app"
	"github.com/storewave/storewave/internal/handlers"
	"github.com/storewave/storewave/internal/middleware"
	"github.com/storewave/storewave/internal/rbac"
	"github.com/storewave/storewave/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(db *gorm.DB, cfg *app.Config) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health(db))
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	registry, err := rbac.NewRegistry(db, audit)
	if err != nil {
		return nil, err
	}
	roleRegistry, err := rbac.NewRoleRegistry(db, audit)
	if err != nil {
		return nil, err
	}
	checker, err := rbac.NewChecker(db)
	if err != nil {
		return nil, err
	}
	seeder, err := rbac.NewSeeder(db)
	if err != nil {
		return nil, err
	}

	api := r.Group("/api")
	api.Use(middleware.Identity())

	registerPermissionRoutes(api, handlers.NewPermissionHandler(registry, checker), checker)
	registerRoleRoutes(api, handlers.NewRoleHandler(roleRegistry), checker)

	system := api.Group("/system")
	{
		system.POST("/bootstrap",
			middleware.RequirePermission(checker, "permission:create"),
			handlers.NewSystemHandler(seeder).Bootstrap)
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
