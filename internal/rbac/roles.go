package rbac

import (
	"context"
	"errors"
	"fmt"
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
	// ErrRoleNotFound indicates the requested role does not exist.
	ErrRoleNotFound = apperrors.New("ROLE_NOT_FOUND", "Role not found", http.StatusNotFound)
	// ErrSystemRoleImmutable prevents mutations of bootstrap-owned roles.
	ErrSystemRoleImmutable = apperrors.New("ROLE_IMMUTABLE", "System roles cannot be modified", http.StatusForbidden)
	// ErrRoleInUse rejects deletion while users still hold the role.
	ErrRoleInUse = apperrors.New("ROLE_IN_USE", "Role is still assigned to one or more users", http.StatusBadRequest)
)

// RoleRegistry mirrors the permission registry for roles and owns the
// role↔permission assignment surface.
type RoleRegistry struct {
	db    *gorm.DB
	audit *services.AuditService
}

// NewRoleRegistry constructs a role registry using the provided database handle.
func NewRoleRegistry(db *gorm.DB, audit *services.AuditService) (*RoleRegistry, error) {
	if db == nil {
		return nil, errors.New("role registry: db is required")
	}
	return &RoleRegistry{db: db, audit: audit}, nil
}

// CreateRoleInput describes the payload accepted by Create.
type CreateRoleInput struct {
	Name        string          `validate:"required,max=100"`
	Code        string          `validate:"required,max=100"`
	Type        models.RoleType `validate:"omitempty,oneof=system business custom"`
	Description string          `validate:"omitempty,max=255"`
}

// UpdateRoleInput describes the mutable fields of a role.
type UpdateRoleInput struct {
	Name        *string              `validate:"omitempty,min=1,max=100"`
	Description *string              `validate:"omitempty,max=255"`
	Status      *models.EntityStatus `validate:"omitempty,oneof=active deleted"`
}

// Create registers a new administrator-defined role.
func (r *RoleRegistry) Create(ctx context.Context, input CreateRoleInput) (*models.Role, error) {
	ctx = ensureContext(ctx)

	input.Name = strings.TrimSpace(input.Name)
	input.Code = strings.TrimSpace(input.Code)
	input.Description = strings.TrimSpace(input.Description)

	if err := validator.ValidateStruct(input); err != nil {
		return nil, apperrors.NewValidation(err.Error())
	}

	roleType := input.Type
	if roleType == "" {
		roleType = models.RoleTypeCustom
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Role{}).
		Where("name = ? OR code = ?", input.Name, input.Code).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("role registry: check uniqueness: %w", err)
	}
	if count > 0 {
		return nil, apperrors.NewValidation("role name or code already exists")
	}

	role := &models.Role{
		Name:        input.Name,
		Code:        input.Code,
		Type:        roleType,
		Description: input.Description,
		Status:      models.StatusActive,
		IsSystem:    false,
	}

	if err := r.db.WithContext(ctx).Create(role).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperrors.NewValidation("role name or code already exists")
		}
		return nil, fmt.Errorf("role registry: create: %w", err)
	}

	services.Record(r.audit, ctx, services.AuditEntry{
		Action:   "role.create",
		Resource: role.ID,
		Result:   "success",
		Metadata: map[string]any{"name": role.Name, "code": role.Code},
	})

	return role, nil
}

// GetByID loads a single role with its permissions.
func (r *RoleRegistry) GetByID(ctx context.Context, id string) (*models.Role, error) {
	ctx = ensureContext(ctx)

	var role models.Role
	if err := r.db.WithContext(ctx).Preload("Permissions").First(&role, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("role registry: load: %w", err)
	}
	return &role, nil
}

// Update modifies name, description, or status of a non-system role.
func (r *RoleRegistry) Update(ctx context.Context, id string, input UpdateRoleInput) (*models.Role, error) {
	ctx = ensureContext(ctx)

	if err := validator.ValidateStruct(input); err != nil {
		return nil, apperrors.NewValidation(err.Error())
	}

	var role models.Role
	if err := r.db.WithContext(ctx).First(&role, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("role registry: load: %w", err)
	}

	if role.IsSystem {
		return nil, ErrSystemRoleImmutable
	}

	updates := map[string]any{}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewValidation("role name must not be empty")
		}
		if name != role.Name {
			var count int64
			if err := r.db.WithContext(ctx).Model(&models.Role{}).
				Where("name = ? AND id <> ?", name, role.ID).Count(&count).Error; err != nil {
				return nil, fmt.Errorf("role registry: check name: %w", err)
			}
			if count > 0 {
				return nil, apperrors.NewValidation("role name already exists")
			}
			updates["name"] = name
		}
	}
	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		if desc != role.Description {
			updates["description"] = desc
		}
	}
	if input.Status != nil && *input.Status != role.Status {
		updates["status"] = *input.Status
	}

	if len(updates) == 0 {
		return &role, nil
	}

	if err := r.db.WithContext(ctx).Model(&role).Updates(updates).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperrors.NewValidation("role name already exists")
		}
		return nil, fmt.Errorf("role registry: update: %w", err)
	}

	if err := r.db.WithContext(ctx).First(&role, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("role registry: reload: %w", err)
	}

	services.Record(r.audit, ctx, services.AuditEntry{
		Action:   "role.update",
		Resource: role.ID,
		Result:   "success",
		Metadata: map[string]any{"fields": updateKeys(updates)},
	})

	return &role, nil
}

// Delete soft-deletes a non-system role that no user holds.
func (r *RoleRegistry) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	var role models.Role
	if err := r.db.WithContext(ctx).First(&role, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("role registry: load: %w", err)
	}

	if role.IsSystem {
		return ErrSystemRoleImmutable
	}

	var refs int64
	if err := r.db.WithContext(ctx).Table("user_roles").
		Where("role_id = ?", role.ID).Count(&refs).Error; err != nil {
		return fmt.Errorf("role registry: check references: %w", err)
	}
	if refs > 0 {
		return ErrRoleInUse
	}

	if err := r.db.WithContext(ctx).Model(&role).
		Update("status", models.StatusDeleted).Error; err != nil {
		return fmt.Errorf("role registry: delete: %w", err)
	}

	services.Record(r.audit, ctx, services.AuditEntry{
		Action:   "role.delete",
		Resource: role.ID,
		Result:   "success",
		Metadata: map[string]any{"code": role.Code},
	})

	return nil
}

// List returns all roles with their permissions, ordered by creation date.
func (r *RoleRegistry) List(ctx context.Context) ([]models.Role, error) {
	ctx = ensureContext(ctx)

	var roles []models.Role
	if err := r.db.WithContext(ctx).Preload("Permissions").
		Order("created_at ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("role registry: list: %w", err)
	}
	return roles, nil
}

// SetPermissions replaces the permission set of a non-system role. All supplied
// ids must resolve to active permissions.
func (r *RoleRegistry) SetPermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	ctx = ensureContext(ctx)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.First(&role, "id = ?", roleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}
			return fmt.Errorf("role registry: load: %w", err)
		}

		if role.IsSystem {
			return ErrSystemRoleImmutable
		}

		ids := dedupeNonEmpty(permissionIDs)
		if len(ids) == 0 {
			return tx.Model(&role).Association("Permissions").Clear()
		}

		var perms []models.Permission
		if err := tx.Where("id IN ? AND status = ?", ids, models.StatusActive).
			Find(&perms).Error; err != nil {
			return fmt.Errorf("role registry: load permissions: %w", err)
		}
		if len(perms) != len(ids) {
			return apperrors.NewValidation("one or more permissions do not exist or are deleted")
		}

		if err := tx.Model(&role).Association("Permissions").Replace(perms); err != nil {
			return fmt.Errorf("role registry: replace permissions: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	services.Record(r.audit, ctx, services.AuditEntry{
		Action:   "role.set_permissions",
		Resource: roleID,
		Result:   "success",
		Metadata: map[string]any{"permission_ids": dedupeNonEmpty(permissionIDs)},
	})

	return nil
}

func dedupeNonEmpty(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
