package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/storewave/storewave/internal/database/testutil"
	"github.com/storewave/storewave/internal/models"
)

func newTestSeeder(t *testing.T) (*Seeder, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	seeder, err := NewSeeder(db)
	require.NoError(t, err)
	return seeder, db
}

func TestSeederIsIdempotent(t *testing.T) {
	seeder, db := newTestSeeder(t)
	ctx := context.Background()

	catalog, err := SystemPermissions()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, seeder.Run(ctx))
	}

	var permCount int64
	require.NoError(t, db.Model(&models.Permission{}).Count(&permCount).Error)
	require.EqualValues(t, len(catalog), permCount)

	var roleCount int64
	require.NoError(t, db.Model(&models.Role{}).Count(&roleCount).Error)
	require.EqualValues(t, len(SystemRoles()), roleCount)
}

func TestSeederMarksEntitiesAsSystem(t *testing.T) {
	seeder, db := newTestSeeder(t)
	require.NoError(t, seeder.Run(context.Background()))

	var perms []models.Permission
	require.NoError(t, db.Find(&perms).Error)
	for _, perm := range perms {
		require.True(t, perm.IsSystem, "permission %s", perm.Code)
		require.Equal(t, models.StatusActive, perm.Status)
	}

	var roles []models.Role
	require.NoError(t, db.Preload("Permissions").Find(&roles).Error)
	for _, role := range roles {
		require.True(t, role.IsSystem, "role %s", role.Code)
		require.Equal(t, models.RoleTypeSystem, role.Type)
		require.Equal(t, models.StatusActive, role.Status)
	}
}

func TestSeederGrantsAdminEveryPermission(t *testing.T) {
	seeder, db := newTestSeeder(t)
	require.NoError(t, seeder.Run(context.Background()))

	catalog, err := SystemPermissions()
	require.NoError(t, err)

	var admin models.Role
	require.NoError(t, db.Preload("Permissions").First(&admin, "code = ?", AdminRoleCode).Error)
	require.Len(t, admin.Permissions, len(catalog))
}

func TestSeederLeavesExistingPermissionsUntouched(t *testing.T) {
	seeder, db := newTestSeeder(t)
	ctx := context.Background()

	existing := models.Permission{
		Name:     "custom store read",
		Code:     "store:read",
		Module:   "store",
		Action:   "read",
		Status:   models.StatusActive,
		IsSystem: false,
	}
	require.NoError(t, db.Create(&existing).Error)

	require.NoError(t, seeder.Run(ctx))

	var reloaded models.Permission
	require.NoError(t, db.First(&reloaded, "code = ?", "store:read").Error)
	require.Equal(t, existing.ID, reloaded.ID)
	require.Equal(t, "custom store read", reloaded.Name)
	require.False(t, reloaded.IsSystem)

	catalog, err := SystemPermissions()
	require.NoError(t, err)
	var count int64
	require.NoError(t, db.Model(&models.Permission{}).Count(&count).Error)
	require.EqualValues(t, len(catalog), count)
}

func TestSeederDoesNotReconcileExistingRoles(t *testing.T) {
	seeder, db := newTestSeeder(t)
	ctx := context.Background()

	require.NoError(t, seeder.Run(ctx))

	var viewer models.Role
	require.NoError(t, db.Preload("Permissions").First(&viewer, "code = ?", "VIEWER").Error)
	require.NotEmpty(t, viewer.Permissions)
	granted := len(viewer.Permissions)

	revoked := viewer.Permissions[0]
	require.NoError(t, db.Exec(
		"DELETE FROM role_permissions WHERE role_id = ? AND permission_id = ?",
		viewer.ID, revoked.ID,
	).Error)

	require.NoError(t, seeder.Run(ctx))

	var after models.Role
	require.NoError(t, db.Preload("Permissions").First(&after, "code = ?", "VIEWER").Error)
	require.Len(t, after.Permissions, granted-1)
	for _, perm := range after.Permissions {
		require.NotEqual(t, revoked.ID, perm.ID)
	}
}

func TestSeederSkipsUnresolvedPermissionCodes(t *testing.T) {
	seeder, db := newTestSeeder(t)
	ctx := context.Background()

	require.NoError(t, seeder.InitializeSystemPermissions(ctx))

	// Soft-delete one seeded permission before role seeding; the role catalog
	// code no longer resolves and must be skipped without failing the run.
	require.NoError(t, db.Model(&models.Permission{}).
		Where("code = ?", "dashboard:read").
		Update("status", models.StatusDeleted).Error)

	require.NoError(t, seeder.InitializeSystemRoles(ctx))

	var viewer models.Role
	require.NoError(t, db.Preload("Permissions").First(&viewer, "code = ?", "VIEWER").Error)
	for _, perm := range viewer.Permissions {
		require.NotEqual(t, "dashboard:read", perm.Code)
	}
}
