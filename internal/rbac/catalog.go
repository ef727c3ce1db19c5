package rbac

import (
	"fmt"
	"sort"
	"strings"
)

// AdminRoleCode short-circuits every permission check for its holders.
const AdminRoleCode = "ADMIN"

// WildcardCode grants every permission when attached to a role. It is matched
// by plain string equality; no pattern matching is performed.
const WildcardCode = "*"

// systemPermissionCatalog is the compiled-in seed catalog: module name to
// action name to canonical "module:action[:resource]" code. The database
// converges to this catalog at startup without manual migrations.
var systemPermissionCatalog = map[string]map[string]string{
	"expansion": {
		"create": "expansion:create",
		"read":   "expansion:read",
		"update": "expansion:update",
		"delete": "expansion:delete",
		"assign": "expansion:assign",
		"export": "expansion:export",
	},
	"followup": {
		"create": "followup:create",
		"read":   "followup:read",
		"update": "followup:update",
		"delete": "followup:delete",
	},
	"storefile": {
		"create":   "storefile:create",
		"read":     "storefile:read",
		"update":   "storefile:update",
		"delete":   "storefile:delete",
		"transfer": "storefile:transfer",
		"approve":  "storefile:approve",
	},
	"preparation": {
		"create":             "preparation:create",
		"read":               "preparation:read",
		"update":             "preparation:update",
		"delete":             "preparation:delete",
		"update_engineering": "preparation:update:engineering",
		"update_equipment":   "preparation:update:equipment",
		"update_license":     "preparation:update:license",
		"update_staffing":    "preparation:update:staffing",
		"update_milestone":   "preparation:update:milestone",
	},
	"store": {
		"create": "store:create",
		"read":   "store:read",
		"update": "store:update",
		"delete": "store:delete",
	},
	"dashboard": {
		"read":   "dashboard:read",
		"export": "dashboard:export",
	},
	"user": {
		"create":      "user:create",
		"read":        "user:read",
		"update":      "user:update",
		"delete":      "user:delete",
		"assign_role": "user:assign:role",
	},
	"role": {
		"create":           "role:create",
		"read":             "role:read",
		"update":           "role:update",
		"delete":           "role:delete",
		"grant_permission": "role:grant:permission",
	},
	"permission": {
		"create": "permission:create",
		"read":   "permission:read",
		"update": "permission:update",
		"delete": "permission:delete",
	},
}

// systemRoleCatalog fixes the permission sets granted to seeded roles. The
// ADMIN set is derived from the full catalog at load time. Codes that do not
// resolve against seeded permissions are skipped silently during seeding.
var systemRoleCatalog = map[string][]string{
	AdminRoleCode: nil, // resolved to the full catalog below
	"EXPANSION_MANAGER": {
		"expansion:create", "expansion:read", "expansion:update", "expansion:delete",
		"expansion:assign", "expansion:export",
		"followup:create", "followup:read", "followup:update",
		"dashboard:read",
	},
	"STORE_MANAGER": {
		"storefile:create", "storefile:read", "storefile:update", "storefile:transfer",
		"storefile:approve",
		"preparation:create", "preparation:read", "preparation:update",
		"preparation:update:engineering", "preparation:update:equipment",
		"preparation:update:license", "preparation:update:staffing",
		"preparation:update:milestone",
		"store:create", "store:read", "store:update",
		"dashboard:read",
	},
	"OPERATION_SPECIALIST": {
		"expansion:read", "followup:read", "followup:create", "followup:update",
		"storefile:read", "preparation:read", "preparation:update:milestone",
		"store:read", "dashboard:read", "dashboard:export",
	},
	"VIEWER": {
		"expansion:read", "followup:read", "storefile:read",
		"preparation:read", "store:read", "dashboard:read",
	},
}

// systemRoleNames resolves seeded role codes to display names; unmapped codes
// fall back to the code itself.
var systemRoleNames = map[string]string{
	AdminRoleCode:          "Administrator",
	"EXPANSION_MANAGER":    "Expansion Manager",
	"STORE_MANAGER":        "Store Manager",
	"OPERATION_SPECIALIST": "Operation Specialist",
	"VIEWER":               "Viewer",
}

// SeedPermission is one derived entry of the compiled-in permission catalog.
type SeedPermission struct {
	Name        string
	Code        string
	Module      string
	Action      string
	Resource    string
	Description string
}

// SeedRole is one derived entry of the compiled-in role catalog.
type SeedRole struct {
	Code        string
	Name        string
	Permissions []string
}

// ParsePermissionCode splits a canonical "module:action[:resource]" code into
// its triple. The resource segment is optional.
func ParsePermissionCode(code string) (module, action, resource string, err error) {
	code = strings.TrimSpace(code)
	parts := strings.Split(code, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf("malformed permission code %q", code)
	}
	module, action = parts[0], parts[1]
	if len(parts) == 3 {
		if parts[2] == "" {
			return "", "", "", fmt.Errorf("malformed permission code %q", code)
		}
		resource = parts[2]
	}
	return module, action, resource, nil
}

// SystemPermissions derives the ordered seed list from the compiled-in
// catalog. Ordering is deterministic (module asc, action name asc) so repeated
// bootstrap runs walk the catalog identically.
func SystemPermissions() ([]SeedPermission, error) {
	modules := make([]string, 0, len(systemPermissionCatalog))
	for module := range systemPermissionCatalog {
		modules = append(modules, module)
	}
	sort.Strings(modules)

	var seeds []SeedPermission
	for _, module := range modules {
		actions := make([]string, 0, len(systemPermissionCatalog[module]))
		for action := range systemPermissionCatalog[module] {
			actions = append(actions, action)
		}
		sort.Strings(actions)

		for _, actionName := range actions {
			code := systemPermissionCatalog[module][actionName]
			parsedModule, parsedAction, parsedResource, err := ParsePermissionCode(code)
			if err != nil {
				return nil, fmt.Errorf("catalog entry %s/%s: %w", module, actionName, err)
			}
			seeds = append(seeds, SeedPermission{
				Name:        fmt.Sprintf("%s_%s", module, actionName),
				Code:        code,
				Module:      parsedModule,
				Action:      parsedAction,
				Resource:    parsedResource,
				Description: fmt.Sprintf("%s module %s permission", module, actionName),
			})
		}
	}
	return seeds, nil
}

// SystemRoles derives the ordered seed list of system roles. The ADMIN role is
// granted the entire permission catalog.
func SystemRoles() []SeedRole {
	codes := make([]string, 0, len(systemRoleCatalog))
	for code := range systemRoleCatalog {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	roles := make([]SeedRole, 0, len(codes))
	for _, code := range codes {
		perms := systemRoleCatalog[code]
		if code == AdminRoleCode {
			perms = allCatalogCodes()
		}
		name, ok := systemRoleNames[code]
		if !ok {
			name = code
		}
		roles = append(roles, SeedRole{
			Code:        code,
			Name:        name,
			Permissions: append([]string(nil), perms...),
		})
	}
	return roles
}

func allCatalogCodes() []string {
	var codes []string
	for _, actions := range systemPermissionCatalog {
		for _, code := range actions {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}
