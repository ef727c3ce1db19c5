package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/storewave/storewave/internal/middleware"
	"github.com/storewave/storewave/internal/models"
	"github.com/storewave/storewave/internal/rbac"
	"github.com/storewave/storewave/pkg/errors"
	"github.com/storewave/storewave/pkg/response"
)

// PermissionHandler exposes the permission registry and evaluator over HTTP.
// Handlers only bind and forward; all rules live in the rbac package.
type PermissionHandler struct {
	registry *rbac.Registry
	checker  *rbac.Checker
}

func NewPermissionHandler(registry *rbac.Registry, checker *rbac.Checker) *PermissionHandler {
	return &PermissionHandler{registry: registry, checker: checker}
}

type createPermissionRequest struct {
	Name        string `json:"name" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Module      string `json:"module" binding:"required"`
	Action      string `json:"action" binding:"required"`
	Resource    string `json:"resource"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// POST /api/permissions
func (h *PermissionHandler) Create(c *gin.Context) {
	var body createPermissionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errors.NewValidation(err.Error()))
		return
	}

	perm, err := h.registry.Create(requestContext(c), rbac.CreatePermissionInput{
		Name:        body.Name,
		Code:        body.Code,
		Module:      body.Module,
		Action:      body.Action,
		Resource:    body.Resource,
		Description: body.Description,
		Status:      models.EntityStatus(body.Status),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, perm)
}

// GET /api/permissions/:id
func (h *PermissionHandler) Get(c *gin.Context) {
	perm, err := h.registry.GetByID(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, perm)
}

type updatePermissionRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// PATCH /api/permissions/:id
func (h *PermissionHandler) Update(c *gin.Context) {
	var body updatePermissionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errors.NewValidation(err.Error()))
		return
	}

	input := rbac.UpdatePermissionInput{
		Name:        body.Name,
		Description: body.Description,
	}
	if body.Status != nil {
		status := models.EntityStatus(*body.Status)
		input.Status = &status
	}

	perm, err := h.registry.Update(requestContext(c), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, perm)
}

// DELETE /api/permissions/:id
func (h *PermissionHandler) Delete(c *gin.Context) {
	if err := h.registry.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

type searchPermissionsRequest struct {
	Keyword   string `form:"keyword"`
	Module    string `form:"module"`
	Action    string `form:"action"`
	Status    string `form:"status"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}

// GET /api/permissions
func (h *PermissionHandler) Search(c *gin.Context) {
	var query searchPermissionsRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, errors.NewValidation(err.Error()))
		return
	}

	result, err := h.registry.Search(requestContext(c), rbac.SearchPermissionsInput{
		Keyword:   query.Keyword,
		Module:    query.Module,
		Action:    query.Action,
		Status:    models.EntityStatus(query.Status),
		Page:      query.Page,
		Limit:     query.Limit,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, result.Items, &response.Meta{
		Page:       result.Page,
		PerPage:    result.Limit,
		Total:      result.Total,
		TotalPages: result.TotalPages,
	})
}

// GET /api/permissions/available
func (h *PermissionHandler) ListAvailable(c *gin.Context) {
	perms, err := h.registry.ListAvailable(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, perms)
}

// GET /api/permissions/by-module
func (h *PermissionHandler) ListByModule(c *gin.Context) {
	grouped, err := h.registry.ListByModule(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, grouped)
}

// GET /api/permissions/modules
func (h *PermissionHandler) ListModules(c *gin.Context) {
	summaries, err := h.registry.ListModules(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, summaries)
}

// GET /api/permissions/check?user_id=…&code=…
func (h *PermissionHandler) Check(c *gin.Context) {
	userID := c.Query("user_id")
	code := c.Query("code")
	if userID == "" || code == "" {
		response.Error(c, errors.NewValidation("user_id and code are required"))
		return
	}

	allowed := h.checker.CheckUserPermission(requestContext(c), userID, code)
	response.Success(c, http.StatusOK, gin.H{"allowed": allowed})
}

// GET /api/permissions/my
func (h *PermissionHandler) MyPermissions(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	codes, err := h.checker.GetUserPermissionCodes(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, codes)
}
