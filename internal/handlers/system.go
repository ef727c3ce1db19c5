package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/storewave/storewave/internal/rbac"
	"github.com/storewave/storewave/pkg/response"
)

// SystemHandler exposes on-demand bootstrap of the permission/role catalogs.
// Seeding is idempotent, so re-running it is always safe from a single caller.
type SystemHandler struct {
	seeder *rbac.Seeder
}

func NewSystemHandler(seeder *rbac.Seeder) *SystemHandler {
	return &SystemHandler{seeder: seeder}
}

// POST /api/system/bootstrap
func (h *SystemHandler) Bootstrap(c *gin.Context) {
	if err := h.seeder.Run(requestContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"seeded": true})
}
