package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hospitalops/kpi-engine/internal/platform/httpx"
)

// PermissionsHandler exposes the caller's slice of the permission matrix.
type PermissionsHandler struct{}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler() *PermissionsHandler {
	return &PermissionsHandler{}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.listPermissions)
}

type permissionsResponse struct {
	Role    Role                    `json:"role"`
	Modules map[string]Capabilities `json:"modules"`
	Scopes  []string                `json:"scopes"`
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	role, ok := CurrentRole(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, permissionsResponse{
		Role:    role,
		Modules: Matrix(role),
		Scopes:  Scopes(role),
	})
}
