package dashboardhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hospitalops/kpi-engine/internal/dashboard"
	"github.com/hospitalops/kpi-engine/internal/dataset"
	"github.com/hospitalops/kpi-engine/internal/kpi"
	"github.com/hospitalops/kpi-engine/internal/platform/httpx"
	"github.com/hospitalops/kpi-engine/internal/rbac"
	"github.com/hospitalops/kpi-engine/internal/shared"
	"github.com/hospitalops/kpi-engine/internal/validation"
	"github.com/hospitalops/kpi-engine/internal/visits"
)

const (
	requestTimeout     = 5 * time.Second
	maxUploadBytes     = 16 << 20
	defaultExportLimit = 10
)

var tenantPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

var errBadQuery = fmt.Errorf("query: %w", httpx.ErrValidation)

// Engine computes module results and dashboards.
type Engine interface {
	Module(ctx context.Context, tenant, module string, w kpi.Window) (any, error)
	Build(ctx context.Context, req dashboard.Request) (dashboard.Dashboard, error)
}

// SnapshotWriter replaces tenant datasets.
type SnapshotWriter interface {
	Put(ctx context.Context, tenant, module string, payload json.RawMessage) (dataset.Snapshot, error)
	Delete(ctx context.Context, tenant, module string) error
}

// RejectCounter records validation rejections.
type RejectCounter interface {
	AddRejected(module string, count int)
}

// Auditor records dataset changes.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Config tunes the handler.
type Config struct {
	DefaultTenant string
	Location      *time.Location
	// ExportLimit is the number of exports allowed per key per minute.
	ExportLimit int
}

// Handler serves the KPI API.
type Handler struct {
	logger        *slog.Logger
	engine        Engine
	snapshots     SnapshotWriter
	rejects       RejectCounter
	auditor       Auditor
	defaultTenant string
	loc           *time.Location
	exportLimit   int
	now           func() time.Time
}

// NewHandler constructs the KPI HTTP handler. rejects may be nil.
func NewHandler(logger *slog.Logger, engine Engine, snapshots SnapshotWriter, rejects RejectCounter, cfg Config) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	limit := cfg.ExportLimit
	if limit <= 0 {
		limit = defaultExportLimit
	}
	return &Handler{
		logger:        logger,
		engine:        engine,
		snapshots:     snapshots,
		rejects:       rejects,
		defaultTenant: cfg.DefaultTenant,
		loc:           loc,
		exportLimit:   limit,
		now:           time.Now,
	}
}

// WithAuditor records every dataset replace and delete through a.
func (h *Handler) WithAuditor(a Auditor) {
	h.auditor = a
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

type filters struct {
	Tenant string
	Window kpi.Window
}

func (h *Handler) parseFilters(r *http.Request) (filters, error) {
	q := r.URL.Query()
	tenant := strings.ToLower(strings.TrimSpace(q.Get("tenant")))
	if tenant == "" {
		tenant = h.defaultTenant
	}
	if !tenantPattern.MatchString(tenant) {
		return filters{}, fmt.Errorf("%w: tenant %q", errBadQuery, tenant)
	}
	period, err := kpi.ParsePeriod(q.Get("period"))
	if err != nil {
		return filters{}, fmt.Errorf("%w: period %q", errBadQuery, q.Get("period"))
	}
	ref := h.now().In(h.loc)
	if raw := strings.TrimSpace(q.Get("ref")); raw != "" {
		if !validation.ValidISODate(raw) {
			return filters{}, fmt.Errorf("%w: ref %q", errBadQuery, raw)
		}
		parsed, ok := kpi.ParseDate(raw, h.loc)
		if !ok {
			return filters{}, fmt.Errorf("%w: ref %q", errBadQuery, raw)
		}
		ref = parsed
	}
	return filters{Tenant: tenant, Window: kpi.NewWindow(period, ref)}, nil
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	role, ok := rbac.CurrentRole(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	f, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	board, err := h.engine.Build(ctx, dashboard.Request{Tenant: f.Tenant, Role: role, Window: f.Window})
	if err != nil {
		h.fail(w, r, "build dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, board)
}

func (h *Handler) handleModule(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")
	res, f, ok := h.compute(w, r, module)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, moduleResponse{
		Tenant: f.Tenant,
		Module: module,
		Period: f.Window.Period,
		Ref:    f.Window.Ref.Format("2006-01-02"),
		Result: res,
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")
	res, f, ok := h.compute(w, r, module)
	if !ok {
		return
	}
	base := fmt.Sprintf("kpi-%s-%s-%s-%s", f.Tenant, module, f.Window.Period, f.Window.Ref.Format("2006-01-02"))
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "json":
		httpx.Attachment(w, base+".json", moduleResponse{
			Tenant: f.Tenant,
			Module: module,
			Period: f.Window.Period,
			Ref:    f.Window.Ref.Format("2006-01-02"),
			Result: res,
		})
	case "csv":
		rows, err := flattenResult(res)
		if err != nil {
			h.fail(w, r, "flatten export", err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+base+`.csv"`)
		if err := writeCSV(w, module, f, rows); err != nil {
			h.logger.Error("write csv export", slog.String("module", module), slog.Any("error", err))
		}
	default:
		httpx.RespondError(w, fmt.Errorf("%w: format %q", errBadQuery, r.URL.Query().Get("format")))
	}
}

func (h *Handler) compute(w http.ResponseWriter, r *http.Request, module string) (any, filters, bool) {
	f, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return nil, filters{}, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	res, err := h.engine.Module(ctx, f.Tenant, module, f.Window)
	if err != nil {
		h.fail(w, r, "compute module", err)
		return nil, filters{}, false
	}
	return res, f, true
}

type moduleResponse struct {
	Tenant string     `json:"tenant"`
	Module string     `json:"module"`
	Period kpi.Period `json:"period"`
	Ref    string     `json:"ref"`
	Result any        `json:"result"`
}

type uploadResponse struct {
	Snapshot dataset.Snapshot       `json:"snapshot"`
	Accepted int                    `json:"accepted"`
	Rejected []validation.Rejection `json:"rejected"`
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")
	f, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: body: %v", errBadQuery, err))
		return
	}
	payload := json.RawMessage(body)
	if !json.Valid(payload) {
		httpx.RespondError(w, fmt.Errorf("%w: body is not valid JSON", dataset.ErrBadPayload))
		return
	}

	var rejected []validation.Rejection
	if module == rbac.ModuleVisits {
		payload, rejected, err = filterVisits(payload)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if h.rejects != nil {
			h.rejects.AddRejected(module, len(rejected))
		}
	}

	var probe dataset.Bundle
	if err := probe.Set(module, payload); err != nil {
		httpx.RespondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	snap, err := h.snapshots.Put(ctx, f.Tenant, module, payload)
	if err != nil {
		h.fail(w, r, "store snapshot", err)
		return
	}
	h.logger.Info("dataset replaced",
		slog.String("tenant", f.Tenant),
		slog.String("module", module),
		slog.Int64("version", snap.Version),
		slog.Int("accepted", probe.Count(module)),
		slog.Int("rejected", len(rejected)),
		slog.String("request_id", shared.RequestIDFromContext(r.Context())))
	h.audit(r, "dataset.replace", f.Tenant, module, map[string]any{
		"version":  snap.Version,
		"accepted": probe.Count(module),
		"rejected": len(rejected),
	})
	if rejected == nil {
		rejected = []validation.Rejection{}
	}
	httpx.JSON(w, http.StatusOK, uploadResponse{Snapshot: snap, Accepted: probe.Count(module), Rejected: rejected})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")
	f, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.snapshots.Delete(ctx, f.Tenant, module); err != nil {
		h.fail(w, r, "delete snapshot", err)
		return
	}
	h.audit(r, "dataset.delete", f.Tenant, module, nil)
	w.WriteHeader(http.StatusNoContent)
}

// filterVisits drops visit records that fail validation and re-encodes the survivors.
func filterVisits(payload json.RawMessage) (json.RawMessage, []validation.Rejection, error) {
	var records []visits.VisitRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, nil, fmt.Errorf("%w: visits: %v", dataset.ErrBadPayload, err)
	}
	valid, rejected := validation.PartitionVisits(records)
	out, err := json.Marshal(valid)
	if err != nil {
		return nil, nil, fmt.Errorf("dashboardhttp: encode visits: %w", err)
	}
	return out, rejected, nil
}

// audit failures are logged; the change itself already succeeded.
func (h *Handler) audit(r *http.Request, action, tenant, module string, meta map[string]any) {
	if h.auditor == nil {
		return
	}
	entry := shared.AuditLog{Action: action, Tenant: tenant, Module: module, Meta: meta, At: h.now()}
	if p, ok := shared.PrincipalFromContext(r.Context()); ok {
		entry.Actor = p.KeyID
	}
	if meta == nil {
		entry.Meta = map[string]any{}
	}
	entry.Meta["request_id"] = shared.RequestIDFromContext(r.Context())
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), requestTimeout)
	defer cancel()
	if err := h.auditor.Record(ctx, entry); err != nil {
		h.logger.Warn("audit dataset change",
			slog.String("action", action),
			slog.String("tenant", tenant),
			slog.String("module", module),
			slog.Any("error", err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		err = fmt.Errorf("%s: %w", op, httpx.ErrUnavailable)
	case errors.Is(err, httpx.ErrNotFound), errors.Is(err, httpx.ErrValidation):
	default:
		h.logger.Error(op,
			slog.String("path", r.URL.Path),
			slog.String("request_id", shared.RequestIDFromContext(r.Context())),
			slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
