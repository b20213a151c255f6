package jobs

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }

func serveHealth(t *testing.T, h *Handler) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	return rr
}

func TestJobsHealthWithoutInspector(t *testing.T) {
	rr := serveHealth(t, NewHandler(nil, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var stats QueueStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, QueueStats{Queue: QueueDefault}, stats)
}

func TestJobsHealthReportsQueueInfo(t *testing.T) {
	h := &Handler{inspector: stubInspector{info: &asynq.QueueInfo{
		Queue: QueueDefault, Pending: 3, Active: 1, Retry: 2, Paused: true,
	}}, logger: slog.Default()}

	rr := serveHealth(t, h)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats QueueStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.Pending)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 2, stats.Retry)
	assert.True(t, stats.Paused)
}

func TestJobsHealthUnavailable(t *testing.T) {
	h := &Handler{inspector: stubInspector{err: errors.New("redis down")}, logger: slog.Default()}

	rr := serveHealth(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
}
