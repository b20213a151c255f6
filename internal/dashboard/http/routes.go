package dashboardhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/hospitalops/kpi-engine/internal/platform/httpx"
	"github.com/hospitalops/kpi-engine/internal/rbac"
	"github.com/hospitalops/kpi-engine/internal/shared"
)

// MountRoutes registers the KPI endpoints. Callers must already carry a principal.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(h.exportLimit, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "export rate limit reached")
		}),
	)
	guard := rbac.Middleware{Logger: h.logger}

	r.Get("/dashboard", h.handleDashboard)
	r.With(guard.RequireParam("module", rbac.ActionView)).Get("/kpi/{module}", h.handleModule)
	r.With(limiter, guard.RequireParam("module", rbac.ActionExport)).Get("/kpi/{module}/export", h.handleExport)
	r.With(guard.RequireParam("module", rbac.ActionEdit)).Put("/datasets/{module}", h.handleUpload)
	r.With(guard.RequireParam("module", rbac.ActionDelete)).Delete("/datasets/{module}", h.handleDelete)
}

func rateLimitKey(r *http.Request) (string, error) {
	if p, ok := shared.PrincipalFromContext(r.Context()); ok && p.KeyID != "" {
		return "key:" + p.KeyID, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
