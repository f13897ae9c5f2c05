// AngelaMos | 2026
// metrics_test.go

package metrics

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := New(Config{
		Registry: reg,
		Gatherer: reg,
		DBStats: func() sql.DBStats {
			return sql.DBStats{OpenConnections: 3, InUse: 1, Idle: 2}
		},
	})
	require.NoError(t, err)
	return m, reg
}

func TestTokenCounters(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.TokenIssued(FlowLogin)
	m.TokenIssued(FlowLogin)
	m.TokenIssued(FlowRefresh)
	m.TokenFailure(FlowRefresh, "invalid_refresh_token")

	assert.InDelta(t, 2, testutil.ToFloat64(m.tokensIssued.WithLabelValues(FlowLogin)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.tokensIssued.WithLabelValues(FlowRefresh)), 0)
	assert.InDelta(
		t,
		1,
		testutil.ToFloat64(
			m.tokenFailures.WithLabelValues(FlowRefresh, "invalid_refresh_token"),
		),
		0,
	)
}

func TestAuthzDecision(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.AuthzDecision(true)
	m.AuthzDecision(false)
	m.AuthzDecision(false)

	assert.InDelta(t, 1, testutil.ToFloat64(m.authzDecisions.WithLabelValues(ResultAllowed)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.authzDecisions.WithLabelValues(ResultDenied)), 0)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.TokenIssued(FlowLogin)
		m.TokenFailure(FlowLogin, "x")
		m.AuthzDecision(true)
	})

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rec := httptest.NewRecorder()
	m.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestMiddlewareRecordsStatusAndNormalizedPath(t *testing.T) {
	m, _ := newTestMetrics(t)

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(
		http.MethodGet,
		"/api/users/3f2504e0-4f89-11d3-9a0c-0305e82c3301",
		nil,
	)
	h.ServeHTTP(rec, req)

	assert.InDelta(
		t,
		1,
		testutil.ToFloat64(
			m.httpRequestsTotal.WithLabelValues("GET", "/api/users/:param", "404"),
		),
		0,
	)
}

func TestRegisterTwiceIsTolerated(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := New(Config{Registry: reg, Gatherer: reg})
	require.NoError(t, err)

	_, err = New(Config{Registry: reg, Gatherer: reg})
	require.NoError(t, err)
}

func TestHandlerExposesCollectors(t *testing.T) {
	m, _ := newTestMetrics(t)
	m.TokenIssued(FlowLogin)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "identity_tokens_issued_total")
	assert.Contains(t, body, "db_pool_open_connections 3")
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"":                            "/",
		"/":                           "/",
		"/api/roles":                  "/api/roles",
		"/api/users/email/a@b.io":     "/api/users/email/:param",
		"/api/users/42/roles?x=1":     "/api/users/:param/roles",
		"/api/token/refresh-token":    "/api/token/refresh-token",
	}

	for in, want := range tests {
		assert.Equal(t, want, normalizePath(in), in)
	}
}
