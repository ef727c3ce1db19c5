package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/storewave/storewave/internal/database/testutil"
	"github.com/storewave/storewave/internal/models"
	apperrors "github.com/storewave/storewave/pkg/errors"
)

func newTestRoleRegistry(t *testing.T) (*RoleRegistry, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	registry, err := NewRoleRegistry(db, nil)
	require.NoError(t, err)
	return registry, db
}

func TestRoleRegistryCreate(t *testing.T) {
	registry, _ := newTestRoleRegistry(t)
	ctx := context.Background()

	role, err := registry.Create(ctx, CreateRoleInput{Name: "Auditor", Code: "AUDITOR"})
	require.NoError(t, err)
	require.Equal(t, models.RoleTypeCustom, role.Type)
	require.Equal(t, models.StatusActive, role.Status)
	require.False(t, role.IsSystem)

	_, err = registry.Create(ctx, CreateRoleInput{Name: "Auditor", Code: "AUDITOR2"})
	require.Error(t, err)
	require.True(t, apperrors.IsValidation(err))

	_, err = registry.Create(ctx, CreateRoleInput{Name: "Auditor Two", Code: "AUDITOR"})
	require.Error(t, err)
	require.True(t, apperrors.IsValidation(err))

	_, err = registry.Create(ctx, CreateRoleInput{Name: "", Code: "BLANK"})
	require.Error(t, err)
	require.True(t, apperrors.IsValidation(err))
}

func TestRoleRegistryUpdate(t *testing.T) {
	registry, _ := newTestRoleRegistry(t)
	ctx := context.Background()

	role, err := registry.Create(ctx, CreateRoleInput{Name: "Auditor", Code: "AUDITOR"})
	require.NoError(t, err)

	name := "Compliance Auditor"
	desc := "Reviews change history"
	updated, err := registry.Update(ctx, role.ID, UpdateRoleInput{Name: &name, Description: &desc})
	require.NoError(t, err)
	require.Equal(t, name, updated.Name)
	require.Equal(t, desc, updated.Description)
	require.Equal(t, role.Code, updated.Code)

	_, err = registry.Update(ctx, "no-such-id", UpdateRoleInput{Name: &name})
	require.ErrorIs(t, err, ErrRoleNotFound)
}

func TestRoleRegistryRefusesSystemRoleMutation(t *testing.T) {
	registry, db := newTestRoleRegistry(t)
	ctx := context.Background()

	seeder, err := NewSeeder(db)
	require.NoError(t, err)
	require.NoError(t, seeder.Run(ctx))

	var admin models.Role
	require.NoError(t, db.First(&admin, "code = ?", AdminRoleCode).Error)

	name := "renamed"
	_, err = registry.Update(ctx, admin.ID, UpdateRoleInput{Name: &name})
	require.ErrorIs(t, err, ErrSystemRoleImmutable)

	require.ErrorIs(t, registry.Delete(ctx, admin.ID), ErrSystemRoleImmutable)
	require.ErrorIs(t, registry.SetPermissions(ctx, admin.ID, nil), ErrSystemRoleImmutable)
}

func TestRoleRegistryDelete(t *testing.T) {
	registry, db := newTestRoleRegistry(t)
	ctx := context.Background()

	role, err := registry.Create(ctx, CreateRoleInput{Name: "Auditor", Code: "AUDITOR"})
	require.NoError(t, err)

	user := models.User{Username: "frank", Email: "frank@example.com"}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Model(&user).Association("Roles").Append(role))

	require.ErrorIs(t, registry.Delete(ctx, role.ID), ErrRoleInUse)

	require.NoError(t, db.Model(&user).Association("Roles").Clear())
	require.NoError(t, registry.Delete(ctx, role.ID))

	deleted, err := registry.GetByID(ctx, role.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusDeleted, deleted.Status)

	require.ErrorIs(t, registry.Delete(ctx, "no-such-id"), ErrRoleNotFound)
}

func TestRoleRegistrySetPermissions(t *testing.T) {
	registry, db := newTestRoleRegistry(t)
	ctx := context.Background()

	perms, err := NewRegistry(db, nil)
	require.NoError(t, err)

	read := createTestPermission(t, perms, "store_read", "store:read", "store", "read", "")
	update := createTestPermission(t, perms, "store_update", "store:update", "store", "update", "")

	role, err := registry.Create(ctx, CreateRoleInput{Name: "Store Clerk", Code: "STORE_CLERK"})
	require.NoError(t, err)

	require.NoError(t, registry.SetPermissions(ctx, role.ID, []string{read.ID, update.ID, read.ID}))
	loaded, err := registry.GetByID(ctx, role.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Permissions, 2)

	// Replace narrows the set; it does not merge.
	require.NoError(t, registry.SetPermissions(ctx, role.ID, []string{read.ID}))
	loaded, err = registry.GetByID(ctx, role.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Permissions, 1)
	require.Equal(t, read.ID, loaded.Permissions[0].ID)

	require.NoError(t, registry.SetPermissions(ctx, role.ID, nil))
	loaded, err = registry.GetByID(ctx, role.ID)
	require.NoError(t, err)
	require.Empty(t, loaded.Permissions)

	err = registry.SetPermissions(ctx, role.ID, []string{"no-such-permission"})
	require.Error(t, err)
	require.True(t, apperrors.IsValidation(err))

	require.NoError(t, registry.SetPermissions(ctx, role.ID, []string{update.ID}))
	require.NoError(t, perms.Delete(ctx, read.ID))
	err = registry.SetPermissions(ctx, role.ID, []string{read.ID})
	require.Error(t, err)
	require.True(t, apperrors.IsValidation(err))

	require.ErrorIs(t, registry.SetPermissions(ctx, "no-such-id", nil), ErrRoleNotFound)
}

func TestRoleRegistryList(t *testing.T) {
	registry, db := newTestRoleRegistry(t)
	ctx := context.Background()

	seeder, err := NewSeeder(db)
	require.NoError(t, err)
	require.NoError(t, seeder.Run(ctx))

	roles, err := registry.List(ctx)
	require.NoError(t, err)
	require.Len(t, roles, len(SystemRoles()))

	byCode := map[string]models.Role{}
	for _, role := range roles {
		byCode[role.Code] = role
	}
	require.Contains(t, byCode, AdminRoleCode)
	require.NotEmpty(t, byCode["VIEWER"].Permissions)
}
