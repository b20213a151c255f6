package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospitalops/kpi-engine/internal/shared"
)

func TestMatrixByRole(t *testing.T) {
	for _, m := range KPIModules() {
		assert.Equal(t, full, Lookup(m, RoleMaster), m)
		assert.Equal(t, full, Lookup(m, RoleAdmin), m)
		assert.Equal(t, viewExport, Lookup(m, RoleAnalyst), m)
		assert.Equal(t, viewOnly, Lookup(m, RoleViewer), m)
	}

	assert.Equal(t, full, Lookup(ModuleTenants, RoleMaster))
	assert.Equal(t, viewOnly, Lookup(ModuleTenants, RoleAdmin))
	assert.Equal(t, full, Lookup(ModuleUsers, RoleAdmin))
	assert.Equal(t, Capabilities{}, Lookup(ModuleUsers, RoleAnalyst))
	assert.Equal(t, Capabilities{}, Lookup(ModuleRoles, RoleViewer))
}

func TestUnknownModuleOrRoleHasNoCapabilities(t *testing.T) {
	assert.Equal(t, Capabilities{}, Lookup("payroll", RoleMaster))
	assert.Equal(t, Capabilities{}, Lookup(ModuleBeds, Role("guest")))
	assert.False(t, Can("", RoleMaster, ActionView))
}

func TestCanIsCaseInsensitiveOnModule(t *testing.T) {
	assert.True(t, Can(" Beds ", RoleAnalyst, ActionExport))
	assert.False(t, Can("beds", RoleViewer, ActionExport))
	assert.False(t, Can("beds", RoleAnalyst, Action("approve")))
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" Analyst ")
	require.NoError(t, err)
	assert.Equal(t, RoleAnalyst, role)

	_, err = ParseRole("root")
	require.ErrorIs(t, err, ErrUnknownRole)
}

func TestModulesAndScopes(t *testing.T) {
	assert.Len(t, KPIModules(), 17)
	assert.Len(t, Modules(), 20)
	assert.Len(t, Viewable(RoleViewer), 17)
	assert.Empty(t, Viewable(Role("guest")))

	scopes := Scopes(RoleAnalyst)
	assert.Contains(t, scopes, "beds.export")
	assert.NotContains(t, scopes, "beds.edit")
	assert.NotContains(t, scopes, "users.view")
	assert.Len(t, scopes, 34)
}

func TestRequireMiddleware(t *testing.T) {
	mw := Middleware{}
	r := chi.NewRouter()
	r.With(mw.RequireParam("module", ActionExport)).Get("/kpi/{module}/export", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	call := func(role string) int {
		req := httptest.NewRequest(http.MethodGet, "/kpi/beds/export", nil)
		if role != "" {
			req = req.WithContext(shared.ContextWithPrincipal(req.Context(), shared.Principal{KeyID: "k", Role: role}))
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, call("analyst"))
	assert.Equal(t, http.StatusForbidden, call("viewer"))
	assert.Equal(t, http.StatusUnauthorized, call(""))
	assert.Equal(t, http.StatusUnauthorized, call("guest"))
}

func TestPermissionsHandler(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/permissions", NewPermissionsHandler().MountRoutes)

	req := httptest.NewRequest(http.MethodGet, "/permissions", nil)
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), shared.Principal{Role: "viewer"}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"viewer"`)
	assert.Contains(t, rec.Body.String(), `"beds":{"view":true,"create":false,"edit":false,"delete":false,"export":false}`)
}
