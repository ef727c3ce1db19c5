package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/storewave/storewave/internal/app"
	"github.com/storewave/storewave/internal/database/testutil"
	"github.com/storewave/storewave/internal/middleware"
	"github.com/storewave/storewave/internal/models"
	"github.com/storewave/storewave/internal/rbac"
	"github.com/storewave/storewave/pkg/response"
)

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	admin  *models.User
	viewer *models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t)

	seeder, err := rbac.NewSeeder(db)
	require.NoError(t, err)
	require.NoError(t, seeder.Run(context.Background()))

	cfg := &app.Config{}
	cfg.Monitoring.Health.Enabled = true

	router, err := NewRouter(db, cfg)
	require.NoError(t, err)

	return &testEnv{
		router: router,
		db:     db,
		admin:  attachUser(t, db, "admin", rbac.AdminRoleCode),
		viewer: attachUser(t, db, "viewer", "VIEWER"),
	}
}

func attachUser(t *testing.T, db *gorm.DB, username, roleCode string) *models.User {
	t.Helper()

	user := &models.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, db.Create(user).Error)

	var role models.Role
	require.NoError(t, db.First(&role, "code = ?", roleCode).Error)
	require.NoError(t, db.Model(user).Association("Roles").Append(&role))
	return user
}

func (e *testEnv) do(t *testing.T, method, path string, as *models.User, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set(middleware.HeaderUserID, as.ID)
		req.Header.Set(middleware.HeaderUsername, as.Username)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAPIRejectsAnonymousRequests(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/permissions", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPermissionLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/permissions", env.admin, gin.H{
		"name":   "store_export",
		"code":   "store:export",
		"module": "store",
		"action": "export",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decodeResponse(t, w)
	require.True(t, resp.Success)
	created, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	w = env.do(t, http.MethodGet, "/api/permissions/"+id, env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPatch, "/api/permissions/"+id, env.admin, gin.H{
		"description": "Exports store data",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, "/api/permissions/"+id, env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Duplicate create conflicts with the seeded catalog.
	w = env.do(t, http.MethodPost, "/api/permissions", env.admin, gin.H{
		"name":   "store_read_copy",
		"code":   "store:read",
		"module": "store",
		"action": "read_copy",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPermissionSearchOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/permissions?module=store&limit=2&page=1&sort_by=code&sort_order=asc", env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	require.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	require.EqualValues(t, 4, resp.Meta.Total)
	require.Equal(t, 2, resp.Meta.TotalPages)
}

func TestPermissionCheckOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/permissions/check?user_id="+env.viewer.ID+"&code=store:read", env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, true, data["allowed"])

	w = env.do(t, http.MethodGet, "/api/permissions/check?user_id="+env.viewer.ID+"&code=store:delete", env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeResponse(t, w)
	data, ok = resp.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, false, data["allowed"])
}

func TestMyPermissionsOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/permissions/my", env.viewer, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	codes, ok := resp.Data.([]any)
	require.True(t, ok)
	require.NotEmpty(t, codes)
	require.Contains(t, codes, "store:read")
	require.NotContains(t, codes, "store:delete")
}

func TestViewerCannotMutatePermissions(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/permissions", env.viewer, gin.H{
		"name":   "sneaky",
		"code":   "sneaky:create",
		"module": "sneaky",
		"action": "create",
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/system/bootstrap", env.viewer, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRoleLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/roles", env.admin, gin.H{
		"name": "Night Auditor",
		"code": "NIGHT_AUDITOR",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decodeResponse(t, w)
	created, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	roleID, _ := created["id"].(string)
	require.NotEmpty(t, roleID)

	var perm models.Permission
	require.NoError(t, env.db.First(&perm, "code = ?", "store:read").Error)

	w = env.do(t, http.MethodPut, "/api/roles/"+roleID+"/permissions", env.admin, gin.H{
		"permissions": []string{perm.ID},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/roles/"+roleID, env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeResponse(t, w)
	loaded, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	perms, ok := loaded["permissions"].([]any)
	require.True(t, ok)
	require.Len(t, perms, 1)

	w = env.do(t, http.MethodPut, "/api/roles/"+roleID+"/permissions", env.admin, gin.H{
		"permissions": []string{},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, "/api/roles/"+roleID, env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestBootstrapEndpointIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	catalog, err := rbac.SystemPermissions()
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/api/system/bootstrap", env.admin, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	var count int64
	require.NoError(t, env.db.Model(&models.Permission{}).Count(&count).Error)
	require.EqualValues(t, len(catalog), count)
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/unknown", env.admin, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
