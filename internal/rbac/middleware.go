package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hospitalops/kpi-engine/internal/platform/httpx"
	"github.com/hospitalops/kpi-engine/internal/shared"
)

// Middleware wires permission-matrix checks into HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// CurrentRole resolves the caller role from the request context.
func CurrentRole(r *http.Request) (Role, bool) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		return "", false
	}
	role, err := ParseRole(p.Role)
	if err != nil {
		return "", false
	}
	return role, true
}

// Require ensures the caller may perform action on module.
func (m Middleware) Require(module string, action Action) func(http.Handler) http.Handler {
	return m.require(func(*http.Request) string { return module }, action)
}

// RequireParam is Require with the module taken from a chi URL parameter.
func (m Middleware) RequireParam(param string, action Action) func(http.Handler) http.Handler {
	return m.require(func(r *http.Request) string { return chi.URLParam(r, param) }, action)
}

func (m Middleware) require(module func(*http.Request) string, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := CurrentRole(r)
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			name := module(r)
			if Can(name, role, action) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Warn("rbac denied",
					slog.String("module", name),
					slog.String("role", string(role)),
					slog.String("action", string(action)))
			}
			httpx.RespondError(w, httpx.ErrForbidden)
		})
	}
}
