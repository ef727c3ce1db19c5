package database

import (
	"gorm.io/gorm"

	"github.com/storewave/storewave/internal/models"
)

// AutoMigrate creates or updates the database schema for all models. The
// unique indexes declared on Permission (name, code, and the module/action/
// resource triple) are the authoritative guard against concurrent duplicate
// creation; service-level pre-checks only exist to produce friendlier errors.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.AuditLog{},
	)
}
