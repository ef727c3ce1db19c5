package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/storewave/storewave/internal/models"
	"github.com/storewave/storewave/internal/rbac"
	"github.com/storewave/storewave/pkg/errors"
	"github.com/storewave/storewave/pkg/response"
)

// RoleHandler exposes the role registry over HTTP.
type RoleHandler struct {
	registry *rbac.RoleRegistry
}

func NewRoleHandler(registry *rbac.RoleRegistry) *RoleHandler {
	return &RoleHandler{registry: registry}
}

type createRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// POST /api/roles
func (h *RoleHandler) Create(c *gin.Context) {
	var body createRoleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errors.NewValidation(err.Error()))
		return
	}

	role, err := h.registry.Create(requestContext(c), rbac.CreateRoleInput{
		Name:        body.Name,
		Code:        body.Code,
		Type:        models.RoleType(body.Type),
		Description: body.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, role)
}

// GET /api/roles
func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.registry.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, roles)
}

// GET /api/roles/:id
func (h *RoleHandler) Get(c *gin.Context) {
	role, err := h.registry.GetByID(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, role)
}

type updateRoleRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// PATCH /api/roles/:id
func (h *RoleHandler) Update(c *gin.Context) {
	var body updateRoleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errors.NewValidation(err.Error()))
		return
	}

	input := rbac.UpdateRoleInput{
		Name:        body.Name,
		Description: body.Description,
	}
	if body.Status != nil {
		status := models.EntityStatus(*body.Status)
		input.Status = &status
	}

	role, err := h.registry.Update(requestContext(c), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, role)
}

// DELETE /api/roles/:id
func (h *RoleHandler) Delete(c *gin.Context) {
	if err := h.registry.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

type setRolePermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// PUT /api/roles/:id/permissions
func (h *RoleHandler) SetPermissions(c *gin.Context) {
	var body setRolePermissionsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errors.NewValidation(err.Error()))
		return
	}

	if err := h.registry.SetPermissions(requestContext(c), c.Param("id"), body.Permissions); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": true})
}
