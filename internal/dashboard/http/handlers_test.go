package dashboardhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospitalops/kpi-engine/internal/dashboard"
	"github.com/hospitalops/kpi-engine/internal/dataset"
	"github.com/hospitalops/kpi-engine/internal/rbac"
	"github.com/hospitalops/kpi-engine/internal/shared"
)

type rejectRecorder struct{ counts map[string]int }

func (r *rejectRecorder) AddRejected(module string, n int) { r.counts[module] += n }

type auditRecorder struct {
	entries []shared.AuditLog
}

func (a *auditRecorder) Record(_ context.Context, log shared.AuditLog) error {
	a.entries = append(a.entries, log)
	return nil
}

type fixture struct {
	router  http.Handler
	store   *dataset.RedisStore
	rejects *rejectRecorder
	audits  *auditRecorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := dataset.NewRedisStore(client, 0)
	svc := dashboard.NewService(store, dashboard.DefaultOptions(), nil, nil)
	rejects := &rejectRecorder{counts: map[string]int{}}
	h := NewHandler(nil, svc, store, rejects, Config{DefaultTenant: "main", ExportLimit: 2})
	h.WithNow(func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) })
	audits := &auditRecorder{}
	h.WithAuditor(audits)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if role := req.Header.Get("X-Test-Role"); role != "" {
				p := shared.Principal{KeyID: role + "-key", Role: role}
				req = req.WithContext(shared.ContextWithPrincipal(req.Context(), p))
			}
			next.ServeHTTP(w, req)
		})
	})
	h.MountRoutes(r)

	_, err := store.Put(context.Background(), "main", rbac.ModuleBeds, json.RawMessage(`{"beds":[
		{"id":"1","cost_center":"icu","status":"occupied"},
		{"id":"2","cost_center":"icu","status":"available"}
	],"capacities":[{"cost_center":"icu","total_beds":4}]}`))
	require.NoError(t, err)
	return fixture{router: r, store: store, rejects: rejects, audits: audits}
}

func (f fixture) do(t *testing.T, method, target, role string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func TestModuleEndpoint(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/kpi/beds?period=month&ref=2024-05-10", "viewer", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body struct {
		Tenant string         `json:"tenant"`
		Module string         `json:"module"`
		Ref    string         `json:"ref"`
		Result map[string]any `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "main", body.Tenant)
	assert.Equal(t, "beds", body.Module)
	assert.Equal(t, "2024-05-10", body.Ref)
	assert.EqualValues(t, 25, body.Result["occupancy_rate"])
}

func TestModuleEndpointRejectsBadQuery(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/kpi/beds?period=week", "viewer", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/kpi/beds?ref=10/05/2024", "viewer", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/kpi/beds?tenant=Bad%20Tenant!", "viewer", nil).Code)
}

func TestModuleEndpointRequiresPermission(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/kpi/beds", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/kpi/payroll", "master", nil).Code)
}

func TestExportEndpoint(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/kpi/beds/export", "viewer", nil).Code)

	rr := f.do(t, http.MethodGet, "/kpi/beds/export?ref=2024-05-10", "analyst", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "kpi-main-beds-month-2024-05-10.json")

	rr = f.do(t, http.MethodGet, "/kpi/beds/export?ref=2024-05-10&format=csv", "analyst", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	csv := rr.Body.String()
	assert.Contains(t, csv, "metric,value\r\n")
	assert.Contains(t, csv, "occupancy_rate,25\r\n")
	assert.Contains(t, csv, "by_cost_center.0.cost_center,icu\r\n")

	rr = f.do(t, http.MethodGet, "/kpi/beds/export?format=xml", "analyst", nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/kpi/beds/export?format=xml", "master", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDashboardEndpoint(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/dashboard?ref=2024-05-10", "viewer", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var board struct {
		Role    string                    `json:"role"`
		Modules map[string]map[string]any `json:"modules"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &board))
	assert.Equal(t, "viewer", board.Role)
	assert.Len(t, board.Modules, len(rbac.KPIModules()))
	assert.EqualValues(t, 25, board.Modules["beds"]["occupancy_rate"])

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/dashboard", "", nil).Code)
}

func TestUploadVisitsReportsRejections(t *testing.T) {
	f := newFixture(t)
	payload := []byte(`[
		{"id":"v1","patient_id":"p1","date":"2024-05-09","time":"08:15","specialty":"cardiology",
		 "professional":"dr-a","kind":"consultation","status":"completed","wait_minutes":12},
		{"id":"v2","patient_id":"p2","date":"09/05/2024","time":"8h","specialty":"cardiology",
		 "professional":"dr-a","kind":"consultation","status":"completed"}
	]`)

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPut, "/datasets/visits", "analyst", payload).Code)

	rr := f.do(t, http.MethodPut, "/datasets/visits", "admin", payload)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp struct {
		Snapshot dataset.Snapshot `json:"snapshot"`
		Accepted int              `json:"accepted"`
		Rejected []struct {
			Index  int    `json:"index"`
			ID     string `json:"id"`
			Errors []struct {
				Field string `json:"field"`
			} `json:"errors"`
		} `json:"rejected"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Accepted)
	require.Len(t, resp.Rejected, 1)
	assert.Equal(t, 1, resp.Rejected[0].Index)
	assert.Equal(t, "v2", resp.Rejected[0].ID)
	assert.Len(t, resp.Rejected[0].Errors, 2)
	assert.Equal(t, 1, f.rejects.counts["visits"])

	rr = f.do(t, http.MethodGet, "/kpi/visits?ref=2024-05-10", "viewer", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), `"total":1`))
}

func TestUploadRejectsMalformedPayload(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, "/datasets/icu", "admin", []byte(`{"id":`)).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, "/datasets/icu", "admin", []byte(`{"id":"x"}`)).Code)
}

func TestDeleteDataset(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodDelete, "/datasets/beds", "viewer", nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/datasets/beds", "master", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/datasets/beds", "master", nil).Code)
}

func TestDatasetChangesAreAudited(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPut, "/datasets/icu?tenant=north", "admin", []byte(`[{"id":"s1","patient_id":"p1","unit":"uti-a","admit_date":"2024-05-01"}]`))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/datasets/icu?tenant=north", "master", nil).Code)
	require.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/datasets/icu?tenant=north", "master", nil).Code)

	require.Len(t, f.audits.entries, 2)
	replace, del := f.audits.entries[0], f.audits.entries[1]
	assert.Equal(t, "dataset.replace", replace.Action)
	assert.Equal(t, "admin-key", replace.Actor)
	assert.Equal(t, "north", replace.Tenant)
	assert.Equal(t, rbac.ModuleICU, replace.Module)
	assert.Equal(t, 1, replace.Meta["accepted"])
	assert.Equal(t, "dataset.delete", del.Action)
	assert.Equal(t, "master-key", del.Actor)
}

func TestFlattenResult(t *testing.T) {
	rows, err := flattenResult(map[string]any{
		"b":    []any{map[string]any{"key": "x", "value": 2}},
		"a":    1.5,
		"flag": true,
	})
	require.NoError(t, err)
	assert.Equal(t, []metricRow{
		{Metric: "a", Value: "1.5"},
		{Metric: "b.0.key", Value: "x"},
		{Metric: "b.0.value", Value: "2"},
		{Metric: "flag", Value: "true"},
	}, rows)
}
