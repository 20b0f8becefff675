package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kthimi/invoicer/internal/domain/invoice"
)

type fakePinger struct{ err error }

func (p *fakePinger) Ping() error { return p.err }

type fakeInspector struct {
	depths invoice.QueueDepths
	err    error
}

func (i *fakeInspector) Depths(context.Context) (invoice.QueueDepths, error) {
	return i.depths, i.err
}

func TestHealthz(t *testing.T) {
	s := NewServer(":0", &fakePinger{}, &fakeInspector{}, zap.NewNop())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthzDatabaseDown(t *testing.T) {
	s := NewServer(":0", &fakePinger{err: errors.New("connection refused")}, &fakeInspector{}, zap.NewNop())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStats(t *testing.T) {
	inspector := &fakeInspector{depths: invoice.QueueDepths{Pending: 4, Processing: 2, Printed: 17}}
	s := NewServer(":0", &fakePinger{}, inspector, zap.NewNop())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Queue invoice.QueueDepths `json:"queue"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, inspector.depths, body.Queue)
}

func TestStatsError(t *testing.T) {
	s := NewServer(":0", &fakePinger{}, &fakeInspector{err: errors.New("timeout")}, zap.NewNop())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer(":0", &fakePinger{}, &fakeInspector{}, zap.NewNop())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
