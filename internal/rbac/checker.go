package rbac

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/storewave/storewave/internal/models"
	"github.com/storewave/storewave/pkg/logger"
	"github.com/storewave/storewave/pkg/metrics"
)

// Checker evaluates whether a user holds a permission. Checks read the full
// role/permission graph on every call; no caching, a stale grant is a worse
// failure mode than an extra read.
type Checker struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewChecker constructs a permission checker backed by the provided database.
func NewChecker(db *gorm.DB) (*Checker, error) {
	if db == nil {
		return nil, errors.New("permission checker: db is required")
	}
	return &Checker{db: db, log: logger.WithModule("rbac.checker")}, nil
}

// CheckUserPermission reports whether the user may perform the action named by
// permissionCode. Holders of an active ADMIN role pass unconditionally, as do
// holders of the wildcard permission. Any lookup failure is logged and denies
// access; authorization checks sit on the critical path of every protected
// action and must never propagate an error to the caller.
func (c *Checker) CheckUserPermission(ctx context.Context, userID, permissionCode string) bool {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	permissionCode = strings.TrimSpace(permissionCode)
	if userID == "" || permissionCode == "" {
		metrics.PermissionChecks.WithLabelValues(permissionCode, "denied").Inc()
		return false
	}

	user, err := c.loadUser(ctx, userID)
	if err != nil {
		c.log.Warn("permission check failed; denying",
			zap.String("user_id", userID),
			zap.String("permission", permissionCode),
			zap.Error(err),
		)
		metrics.PermissionChecks.WithLabelValues(permissionCode, "error").Inc()
		return false
	}

	allowed := false
	for _, role := range user.Roles {
		if role.Status != models.StatusActive {
			continue
		}
		if role.Code == AdminRoleCode {
			allowed = true
			break
		}
		for _, perm := range role.Permissions {
			if perm.Code == permissionCode || perm.Code == WildcardCode {
				allowed = true
				break
			}
		}
		if allowed {
			break
		}
	}

	result := "denied"
	if allowed {
		result = "allowed"
	}
	metrics.PermissionChecks.WithLabelValues(permissionCode, result).Inc()
	return allowed
}

// GetUserPermissionCodes returns the distinct permission codes granted to the
// user through active roles, sorted. An active ADMIN role resolves to every
// active permission. Unlike CheckUserPermission this surfaces lookup errors.
func (c *Checker) GetUserPermissionCodes(ctx context.Context, userID string) ([]string, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("permission checker: user id is required")
	}

	user, err := c.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	codes := make(map[string]struct{})
	for _, role := range user.Roles {
		if role.Status != models.StatusActive {
			continue
		}
		if role.Code == AdminRoleCode {
			var perms []models.Permission
			if err := c.db.WithContext(ctx).
				Where("status = ?", models.StatusActive).
				Find(&perms).Error; err != nil {
				return nil, fmt.Errorf("permission checker: load permissions: %w", err)
			}
			for _, perm := range perms {
				codes[perm.Code] = struct{}{}
			}
			continue
		}
		for _, perm := range role.Permissions {
			codes[perm.Code] = struct{}{}
		}
	}

	out := make([]string, 0, len(codes))
	for code := range codes {
		out = append(out, code)
	}
	sort.Strings(out)
	return out, nil
}

func (c *Checker) loadUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := c.db.WithContext(ctx).
		Preload("Roles.Permissions").
		First(&user, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("permission checker: load user: %w", err)
	}
	return &user, nil
}
