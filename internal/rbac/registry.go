package rbac

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/storewave/storewave/internal/database"
	"github.com/storewave/storewave/internal/models"
	"github.com/storewave/storewave/internal/services"
	apperrors "github.com/storewave/storewave/pkg/errors"
	"github.com/storewave/storewave/pkg/validator"
)

var (
	// ErrPermissionNotFound indicates the requested permission does not exist.
	ErrPermissionNotFound = apperrors.New("PERMISSION_NOT_FOUND", "Permission not found", http.StatusNotFound)
	// ErrSystemPermissionImmutable prevents mutations of bootstrap-owned permissions.
	ErrSystemPermissionImmutable = apperrors.New("PERMISSION_IMMUTABLE", "System permissions cannot be modified", http.StatusForbidden)
	// ErrPermissionInUse rejects deletion while roles still reference the permission.
	ErrPermissionInUse = apperrors.New("PERMISSION_IN_USE", "Permission is still assigned to one or more roles", http.StatusBadRequest)
)

// Registry manages permission definitions: creation, lookup, mutation of the
// mutable fields, soft deletion, and the listing surfaces used by assignment UIs.
type Registry struct {
	db    *gorm.DB
	audit *services.AuditService
}

// NewRegistry constructs a permission registry using the provided database handle.
// The audit service is optional; mutations are recorded when it is present.
func NewRegistry(db *gorm.DB, audit *services.AuditService) (*Registry, error) {
	if db == nil {
		return nil, errors.New("permission registry: db is required")
	}
	return &Registry{db: db, audit: audit}, nil
}

// CreatePermissionInput describes the payload accepted by Create.
type CreatePermissionInput struct {
	Name        string              `validate:"required,max=100"`
	Code        string              `validate:"required,max=150"`
	Module      string              `validate:"required,max=50"`
	Action      string              `validate:"required,max=50"`
	Resource    string              `validate:"omitempty,max=50"`
	Description string              `validate:"omitempty,max=255"`
	Status      models.EntityStatus `validate:"omitempty,oneof=active deleted"`
}

// UpdatePermissionInput describes the mutable fields of a permission. Code and
// the module/action/resource triple are immutable after creation.
type UpdatePermissionInput struct {
	Name        *string              `validate:"omitempty,min=1,max=100"`
	Description *string              `validate:"omitempty,max=255"`
	Status      *models.EntityStatus `validate:"omitempty,oneof=active deleted"`
}

// Create registers a new administrator-defined permission.
func (r *Registry) Create(ctx context.Context, input CreatePermissionInput) (*models.Permission, error) {
	ctx = ensureContext(ctx)

	input.Name = strings.TrimSpace(input.Name)
	input.Code = strings.TrimSpace(input.Code)
	input.Module = strings.TrimSpace(input.Module)
	input.Action = strings.TrimSpace(input.Action)
	input.Resource = strings.TrimSpace(input.Resource)
	input.Description = strings.TrimSpace(input.Description)

	if err := validator.ValidateStruct(input); err != nil {
		return nil, apperrors.NewValidation(err.Error())
	}

	status := input.Status
	if status == "" {
		status = models.StatusActive
	}

	// Pre-checks produce friendly conflicts; the unique indexes stay
	// authoritative under concurrent creation.
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Permission{}).
		Where("name = ?", input.Name).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("permission registry: check name: %w", err)
	}
	if count > 0 {
		return nil, apperrors.NewValidation("permission name already exists")
	}

	if err := r.db.WithContext(ctx).Model(&models.Permission{}).
		Where("code = ?", input.Code).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("permission registry: check code: %w", err)
	}
	if count > 0 {
		return nil, apperrors.NewValidation("permission code already exists")
	}

	if err := r.db.WithContext(ctx).Model(&models.Permission{}).
		Where("module = ? AND action = ? AND resource = ?", input.Module, input.Action, input.Resource).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("permission registry: check scope: %w", err)
	}
	if count > 0 {
		return nil, apperrors.NewValidation("permission with the same module, action and resource already exists")
	}

	perm := &models.Permission{
		Name:        input.Name,
		Code:        input.Code,
		Module:      input.Module,
		Action:      input.Action,
		Resource:    input.Resource,
		Description: input.Description,
		Status:      status,
		IsSystem:    false,
	}

	if err := r.db.WithContext(ctx).Create(perm).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperrors.NewValidation("permission already exists")
		}
		return nil, fmt.Errorf("permission registry: create: %w", err)
	}

	services.Record(r.audit, ctx, services.AuditEntry{
		Action:   "permission.create",
		Resource: perm.ID,
		Result:   "success",
		Metadata: map[string]any{
			"name": perm.Name,
			"code": perm.Code,
		},
	})

	return perm, nil
}

// GetByID loads a single permission.
func (r *Registry) GetByID(ctx context.Context, id string) (*models.Permission, error) {
	ctx = ensureContext(ctx)

	var perm models.Permission
	if err := r.db.WithContext(ctx).First(&perm, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPermissionNotFound
		}
		return nil, fmt.Errorf("permission registry: load: %w", err)
	}
	return &perm, nil
}

// Update modifies name, description, or status of a non-system permission.
func (r *Registry) Update(ctx context.Context, id string, input UpdatePermissionInput) (*models.Permission, error) {
	ctx = ensureContext(ctx)

	if err := validator.ValidateStruct(input); err != nil {
		return nil, apperrors.NewValidation(err.Error())
	}

	perm, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if perm.IsSystem {
		return nil, ErrSystemPermissionImmutable
	}

	updates := map[string]any{}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewValidation("permission name must not be empty")
		}
		if name != perm.Name {
			var count int64
			if err := r.db.WithContext(ctx).Model(&models.Permission{}).
				Where("name = ? AND id <> ?", name, perm.ID).Count(&count).Error; err != nil {
				return nil, fmt.Errorf("permission registry: check name: %w", err)
			}
			if count > 0 {
				return nil, apperrors.NewValidation("permission name already exists")
			}
			updates["name"] = name
		}
	}
	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		if desc != perm.Description {
			updates["description"] = desc
		}
	}
	if input.Status != nil && *input.Status != perm.Status {
		updates["status"] = *input.Status
	}

	if len(updates) == 0 {
		return perm, nil
	}

	if err := r.db.WithContext(ctx).Model(perm).Updates(updates).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperrors.NewValidation("permission name already exists")
		}
		return nil, fmt.Errorf("permission registry: update: %w", err)
	}

	if err := r.db.WithContext(ctx).First(perm, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("permission registry: reload: %w", err)
	}

	services.Record(r.audit, ctx, services.AuditEntry{
		Action:   "permission.update",
		Resource: perm.ID,
		Result:   "success",
		Metadata: map[string]any{"fields": updateKeys(updates)},
	})

	return perm, nil
}

// Delete soft-deletes a non-system permission that no role references. The row
// is retained for audit and referential history.
func (r *Registry) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	perm, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if perm.IsSystem {
		return ErrSystemPermissionImmutable
	}

	var refs int64
	if err := r.db.WithContext(ctx).Table("role_permissions").
		Where("permission_id = ?", perm.ID).Count(&refs).Error; err != nil {
		return fmt.Errorf("permission registry: check references: %w", err)
	}
	if refs > 0 {
		return ErrPermissionInUse
	}

	if err := r.db.WithContext(ctx).Model(perm).
		Update("status", models.StatusDeleted).Error; err != nil {
		return fmt.Errorf("permission registry: delete: %w", err)
	}

	services.Record(r.audit, ctx, services.AuditEntry{
		Action:   "permission.delete",
		Resource: perm.ID,
		Result:   "success",
		Metadata: map[string]any{"code": perm.Code},
	})

	return nil
}

// SearchPermissionsInput filters and paginates permission searches.
type SearchPermissionsInput struct {
	Keyword   string
	Module    string
	Action    string
	Status    models.EntityStatus
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// SearchResult is one page of matching permissions.
type SearchResult struct {
	Items      []models.Permission `json:"items"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
	TotalPages int                 `json:"total_pages"`
}

var searchSortColumns = map[string]string{
	"name":      "name",
	"code":      "code",
	"module":    "module",
	"createdAt": "created_at",
}

// Search pages through permissions matching the supplied filters. The keyword
// matches name, code, and description case-insensitively.
func (r *Registry) Search(ctx context.Context, input SearchPermissionsInput) (*SearchResult, error) {
	ctx = ensureContext(ctx)

	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit < 1 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}

	sortBy := strings.TrimSpace(input.SortBy)
	if sortBy == "" {
		sortBy = "createdAt"
	}
	column, ok := searchSortColumns[sortBy]
	if !ok {
		return nil, apperrors.NewValidation(fmt.Sprintf("unsupported sort key %q", input.SortBy))
	}

	order := strings.ToLower(strings.TrimSpace(input.SortOrder))
	switch order {
	case "":
		order = "desc"
	case "asc", "desc":
	default:
		return nil, apperrors.NewValidation(fmt.Sprintf("unsupported sort order %q", input.SortOrder))
	}

	if input.Status != "" && !input.Status.Valid() {
		return nil, apperrors.NewValidation(fmt.Sprintf("unsupported status %q", input.Status))
	}

	query := r.db.WithContext(ctx).Model(&models.Permission{})

	if keyword := strings.ToLower(strings.TrimSpace(input.Keyword)); keyword != "" {
		like := "%" + escapeLikePattern(keyword) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? ESCAPE '!' OR LOWER(code) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!'",
			like, like, like,
		)
	}
	if module := strings.TrimSpace(input.Module); module != "" {
		query = query.Where("module = ?", module)
	}
	if action := strings.TrimSpace(input.Action); action != "" {
		query = query.Where("action = ?", action)
	}
	if input.Status != "" {
		query = query.Where("status = ?", input.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("permission registry: count: %w", err)
	}

	var items []models.Permission
	if err := query.
		Order(fmt.Sprintf("%s %s", column, strings.ToUpper(order))).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("permission registry: search: %w", err)
	}

	return &SearchResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// ListAvailable returns all active permissions ordered by module then action,
// the flat form consumed by role-assignment UIs.
func (r *Registry) ListAvailable(ctx context.Context) ([]models.Permission, error) {
	ctx = ensureContext(ctx)

	var perms []models.Permission
	if err := r.db.WithContext(ctx).
		Where("status = ?", models.StatusActive).
		Order("module ASC, action ASC").
		Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("permission registry: list available: %w", err)
	}
	return perms, nil
}

// ListByModule groups active permissions by module, preserving the
// module/action ordering inside each group.
func (r *Registry) ListByModule(ctx context.Context) (map[string][]models.Permission, error) {
	perms, err := r.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]models.Permission)
	for _, perm := range perms {
		grouped[perm.Module] = append(grouped[perm.Module], perm)
	}
	return grouped, nil
}

// ModuleSummary aggregates the active permissions of one module.
type ModuleSummary struct {
	Module  string   `json:"module"`
	Count   int      `json:"count"`
	Actions []string `json:"actions"`
}

// ListModules summarises each distinct module among active permissions:
// permission count and the distinct action names it carries.
func (r *Registry) ListModules(ctx context.Context) ([]ModuleSummary, error) {
	perms, err := r.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}

	var summaries []ModuleSummary
	index := map[string]int{}
	for _, perm := range perms {
		i, ok := index[perm.Module]
		if !ok {
			i = len(summaries)
			index[perm.Module] = i
			summaries = append(summaries, ModuleSummary{Module: perm.Module})
		}
		summaries[i].Count++
		if !containsString(summaries[i].Actions, perm.Action) {
			summaries[i].Actions = append(summaries[i].Actions, perm.Action)
		}
	}
	return summaries, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// escapeLikePattern neutralises LIKE metacharacters so keyword matching stays
// literal. '!' is declared as the escape character in the search queries; a
// backslash would need vendor-specific doubling under MySQL.
func escapeLikePattern(s string) string {
	return likeEscaper.Replace(s)
}

func containsString(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}

func updateKeys(updates map[string]any) []string {
	keys := make([]string, 0, len(updates))
	for key := range updates {
		keys = append(keys, key)
	}
	return keys
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
