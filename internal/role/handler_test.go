// AngelaMos | 2026
// handler_test.go

package role

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/identity-service/internal/authz"
	"github.com/carterperez-dev/identity-service/internal/claims"
	"github.com/carterperez-dev/identity-service/internal/core"
	"github.com/carterperez-dev/identity-service/internal/middleware"
	"github.com/carterperez-dev/identity-service/internal/permission"
)

func asCaller(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			set := claims.NewSet()
			for _, p := range perms {
				set.Add(claims.Permission(p))
			}
			ctx := middleware.WithClaims(r.Context(), "caller", set)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func serve(t *testing.T, f *fixture, method, path, body string, perms ...string) (int, core.Response) {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(f.svc).RegisterRoutes(r, asCaller(perms...), authz.NewAuthorizer(nil))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	r.ServeHTTP(rec, req)

	var resp core.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestCreateRoleHandler(t *testing.T) {
	f := newFixture(t)

	code, resp := serve(t, f, http.MethodPost, "/roles/",
		`{"name":"Auditor","description":"Reads"}`, permission.RolesCreate)
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Role created successfully", resp.Message)

	code, resp = serve(t, f, http.MethodPost, "/roles/",
		`{"name":"auditor"}`, permission.RolesCreate)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Role already exists", resp.Error.Message)

	code, _ = serve(t, f, http.MethodPost, "/roles/", `{"name":"x"}`, permission.RolesRead)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestAdminRoleHandlerMessages(t *testing.T) {
	f := newFixture(t)
	all := permission.Names(permission.All())

	code, resp := serve(t, f, http.MethodPut, "/roles/",
		`{"roleId":"`+f.admin.ID+`","name":"Root"}`, all...)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Cannot update Admin role", resp.Error.Message)

	code, resp = serve(t, f, http.MethodDelete, "/roles/"+f.admin.ID, "", all...)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Cannot delete Admin role", resp.Error.Message)

	code, resp = serve(t, f, http.MethodPut, "/roles/update-permissions",
		`{"roleId":"`+f.admin.ID+`","roleClaims":[]}`, all...)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Cannot update permissions for Admin role", resp.Error.Message)
}

func TestDeleteRoleInUseHandler(t *testing.T) {
	f := newFixture(t)
	f.repo.assigned[f.basic.ID] = true

	code, resp := serve(t, f, http.MethodDelete, "/roles/"+f.basic.ID, "", permission.RolesDelete)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Role: Basic is currently assigned to a user", resp.Error.Message)
}

func TestPermissionsHandler(t *testing.T) {
	f := newFixture(t)

	code, resp := serve(t, f, http.MethodGet, "/roles/permissions/"+f.basic.ID, "",
		permission.RoleClaimsRead)
	assert.Equal(t, http.StatusOK, code)

	data := resp.Data.(map[string]any)
	assert.Equal(t, Basic, data["role"].(map[string]any)["name"])
	assert.Len(t, data["roleClaims"], len(permission.All()))

	code, resp = serve(t, f, http.MethodGet, "/roles/permissions/nope", "",
		permission.RoleClaimsRead)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Role not found", resp.Error.Message)
}
