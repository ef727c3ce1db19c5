package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/storewave/storewave/internal/models"
)

func TestOpenRejectsUnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported database driver")
}

func TestOpenSQLiteDefaults(t *testing.T) {
	db, err := Open(Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, sqlDB.Ping())
	require.NoError(t, AutoMigrate(db))

	require.True(t, db.Migrator().HasTable(&models.Permission{}))
	require.True(t, db.Migrator().HasTable(&models.Role{}))
	require.True(t, db.Migrator().HasTable(&models.User{}))
	require.True(t, db.Migrator().HasTable(&models.AuditLog{}))
	require.True(t, db.Migrator().HasTable("role_permissions"))
	require.True(t, db.Migrator().HasTable("user_roles"))
}

func TestIsUniqueViolation(t *testing.T) {
	db, err := Open(Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))

	first := models.Permission{Name: "store_read", Code: "store:read", Module: "store", Action: "read", Status: models.StatusActive}
	require.NoError(t, db.Create(&first).Error)

	dup := models.Permission{Name: "store_read_copy", Code: "store:read", Module: "store", Action: "read_copy", Status: models.StatusActive}
	err = db.Create(&dup).Error
	require.Error(t, err)
	require.True(t, IsUniqueViolation(err))

	require.False(t, IsUniqueViolation(nil))
	require.False(t, IsUniqueViolation(db.First(&models.Permission{}, "id = ?", "missing").Error))
}

func TestIsUniqueViolationIgnoresOtherConstraints(t *testing.T) {
	require.False(t, IsUniqueViolation(errors.New("NOT NULL constraint failed: permissions.name")))
	require.False(t, IsUniqueViolation(errors.New("CHECK constraint failed: status")))
	require.False(t, IsUniqueViolation(errors.New("FOREIGN KEY constraint failed")))

	require.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: permissions.code")))
	require.True(t, IsUniqueViolation(errors.New("Error 1062 (23000): Duplicate entry 'store:read'")))
}
