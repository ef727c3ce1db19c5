package rbac

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/storewave/storewave/internal/models"
	"github.com/storewave/storewave/pkg/logger"
	"github.com/storewave/storewave/pkg/metrics"
)

// Seeder converges the database to the compiled-in permission and role
// catalogs. Both procedures are idempotent: existing rows are never updated or
// duplicated, so administrator customisations of non-system entities survive
// restarts. Seeding is not safe to run concurrently from multiple processes;
// deployments must restrict it to a single runner at startup.
type Seeder struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewSeeder constructs a Seeder using the provided database handle.
func NewSeeder(db *gorm.DB) (*Seeder, error) {
	if db == nil {
		return nil, errors.New("rbac seeder: db is required")
	}
	return &Seeder{db: db, log: logger.WithModule("rbac.seeder")}, nil
}

// Run seeds system permissions, then system roles.
func (s *Seeder) Run(ctx context.Context) error {
	if err := s.InitializeSystemPermissions(ctx); err != nil {
		return err
	}
	return s.InitializeSystemRoles(ctx)
}

// InitializeSystemPermissions creates every catalog permission that does not
// yet exist, keyed by code. Existing rows are left untouched.
func (s *Seeder) InitializeSystemPermissions(ctx context.Context) error {
	ctx = ensureContext(ctx)

	seeds, err := SystemPermissions()
	if err != nil {
		return fmt.Errorf("rbac seeder: derive catalog: %w", err)
	}

	tx := s.db.WithContext(ctx)
	created := 0
	for _, seed := range seeds {
		record := models.Permission{
			Name:        seed.Name,
			Code:        seed.Code,
			Module:      seed.Module,
			Action:      seed.Action,
			Resource:    seed.Resource,
			Description: seed.Description,
			Status:      models.StatusActive,
			IsSystem:    true,
		}

		result := tx.Where(models.Permission{Code: seed.Code}).
			Attrs(record).
			FirstOrCreate(&models.Permission{})
		if result.Error != nil {
			return fmt.Errorf("rbac seeder: seed permission %s: %w", seed.Code, result.Error)
		}
		if result.RowsAffected > 0 {
			created++
			metrics.SeededEntities.WithLabelValues("permission").Inc()
		}
	}

	s.log.Info("system permissions seeded",
		zap.Int("catalog", len(seeds)),
		zap.Int("created", created),
	)
	return nil
}

// InitializeSystemRoles creates every catalog role that does not yet exist and
// grants it the catalog permission set. Roles already present are skipped
// entirely; their permission sets are not reconciled on re-run. Permission
// codes that do not resolve against seeded permissions are skipped silently.
func (s *Seeder) InitializeSystemRoles(ctx context.Context) error {
	ctx = ensureContext(ctx)

	tx := s.db.WithContext(ctx)

	var perms []models.Permission
	if err := tx.Where("status = ?", models.StatusActive).Find(&perms).Error; err != nil {
		return fmt.Errorf("rbac seeder: load permissions: %w", err)
	}
	byCode := make(map[string]models.Permission, len(perms))
	for _, perm := range perms {
		byCode[perm.Code] = perm
	}

	created := 0
	for _, seed := range SystemRoles() {
		var existing models.Role
		err := tx.Where("code = ?", seed.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("rbac seeder: check role %s: %w", seed.Code, err)
		}

		role := models.Role{
			Name:     seed.Name,
			Code:     seed.Code,
			Type:     models.RoleTypeSystem,
			Status:   models.StatusActive,
			IsSystem: true,
		}
		if err := tx.Create(&role).Error; err != nil {
			return fmt.Errorf("rbac seeder: create role %s: %w", seed.Code, err)
		}
		created++
		metrics.SeededEntities.WithLabelValues("role").Inc()

		var grants []models.Permission
		for _, code := range seed.Permissions {
			perm, ok := byCode[code]
			if !ok {
				s.log.Debug("skipping unresolved permission code",
					zap.String("role", seed.Code),
					zap.String("code", code),
				)
				continue
			}
			grants = append(grants, perm)
		}
		if len(grants) > 0 {
			if err := tx.Model(&role).Association("Permissions").Append(grants); err != nil {
				return fmt.Errorf("rbac seeder: grant permissions to %s: %w", seed.Code, err)
			}
		}
	}

	s.log.Info("system roles seeded", zap.Int("created", created))
	return nil
}
