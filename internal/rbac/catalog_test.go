package rbac

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePermissionCode(t *testing.T) {
	module, action, resource, err := ParsePermissionCode("store:read")
	require.NoError(t, err)
	require.Equal(t, "store", module)
	require.Equal(t, "read", action)
	require.Empty(t, resource)

	module, action, resource, err = ParsePermissionCode("preparation:update:milestone")
	require.NoError(t, err)
	require.Equal(t, "preparation", module)
	require.Equal(t, "update", action)
	require.Equal(t, "milestone", resource)

	for _, malformed := range []string{"", "*", "store", "store:", ":read", "a:b:c:d", "a:b:"} {
		_, _, _, err := ParsePermissionCode(malformed)
		require.Error(t, err, "expected %q to be rejected", malformed)
	}
}

func TestSystemPermissionsCatalogIsConsistent(t *testing.T) {
	seeds, err := SystemPermissions()
	require.NoError(t, err)
	require.NotEmpty(t, seeds)

	codes := map[string]struct{}{}
	names := map[string]struct{}{}
	triples := map[string]struct{}{}
	for _, seed := range seeds {
		require.NotContains(t, codes, seed.Code, "duplicate code %s", seed.Code)
		codes[seed.Code] = struct{}{}

		require.NotContains(t, names, seed.Name, "duplicate name %s", seed.Name)
		names[seed.Name] = struct{}{}

		triple := fmt.Sprintf("%s/%s/%s", seed.Module, seed.Action, seed.Resource)
		require.NotContains(t, triples, triple, "duplicate triple %s", triple)
		triples[triple] = struct{}{}

		module, action, resource, err := ParsePermissionCode(seed.Code)
		require.NoError(t, err)
		require.Equal(t, seed.Module, module)
		require.Equal(t, seed.Action, action)
		require.Equal(t, seed.Resource, resource)
	}
}

func TestSystemRolesGrantOnlyCatalogCodes(t *testing.T) {
	seeds, err := SystemPermissions()
	require.NoError(t, err)

	known := map[string]struct{}{}
	for _, seed := range seeds {
		known[seed.Code] = struct{}{}
	}

	roles := SystemRoles()
	require.NotEmpty(t, roles)

	var admin *SeedRole
	for i := range roles {
		for _, code := range roles[i].Permissions {
			require.Contains(t, known, code, "role %s references unknown code %s", roles[i].Code, code)
		}
		if roles[i].Code == AdminRoleCode {
			admin = &roles[i]
		}
	}

	require.NotNil(t, admin)
	require.Len(t, admin.Permissions, len(seeds))
	require.Equal(t, "Administrator", admin.Name)
}
