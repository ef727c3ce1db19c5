package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/storewave/storewave/pkg/response"
)

// Health reports process liveness and database reachability.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		dbStatus := "ok"

		if db == nil {
			dbStatus = "unavailable"
			status = "degraded"
		} else if sqlDB, err := db.DB(); err != nil {
			dbStatus = "unavailable"
			status = "degraded"
		} else if err := sqlDB.PingContext(requestContext(c)); err != nil {
			dbStatus = "unreachable"
			status = "degraded"
		}

		code := http.StatusOK
		if status != "ok" {
			code = http.StatusServiceUnavailable
		}
		response.Success(c, code, gin.H{"status": status, "database": dbStatus})
	}
}
