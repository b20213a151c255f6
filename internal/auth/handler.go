package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hospitalops/kpi-engine/internal/platform/httpx"
	"github.com/hospitalops/kpi-engine/internal/shared"
)

// Handler authenticates API requests and exposes the caller identity.
type Handler struct {
	logger *slog.Logger
	ring   *KeyRing
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, ring *KeyRing) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, ring: ring}
}

// MountRoutes registers the identity endpoint.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/whoami", h.whoami)
}

// Authenticate resolves the bearer token into a principal on the request context.
// Requests without a valid token are rejected.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		principal, err := h.ring.Authenticate(token)
		if err != nil {
			h.logger.Warn("api key rejected",
				slog.String("request_id", shared.RequestIDFromContext(r.Context())),
				slog.Any("error", err))
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
	})
}

func (h *Handler) whoami(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"key_id": principal.KeyID, "role": principal.Role})
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
