package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                           "/",
		"/metrics":                   "/metrics",
		"/api/v1/auth/login":         "/api/v1/auth/login",
		"/api/v1/auth/login/":        "/api/v1/auth/login",
		"/api/v1/users/me?x=1":       "/api/v1/users/me",
		"/api/v1/users/123":          "other",
		"/wp-admin/setup-config.php": "other",
	}
	for input, expected := range cases {
		assert.Equal(t, expected, CanonicalPath(input), "input %q", input)
	}
}

func TestInstrument(t *testing.T) {
	m := New()

	h := m.Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	got := testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/health", "418"))
	assert.Equal(t, float64(1), got)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.httpInFlight))
}

func TestAuthCounters(t *testing.T) {
	m := New()

	m.ObserveAuthentication(ResultSuccess)
	m.ObserveAuthentication(ResultInvalidToken)
	m.ObserveAuthentication(ResultInvalidToken)
	m.ObserveLogin(ResultInvalidCreds)
	m.ObserveRefresh(ResultRevoked)
	m.ObserveForbidden()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.authTotal.WithLabelValues(ResultSuccess)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.authTotal.WithLabelValues(ResultInvalidToken)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.loginTotal.WithLabelValues(ResultInvalidCreds)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.refreshTotal.WithLabelValues(ResultRevoked)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.forbidden))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAuthentication(ResultSuccess)
		m.ObserveLogin(ResultSuccess)
		m.ObserveRefresh(ResultSuccess)
		m.ObserveForbidden()
		m.SetBuildInfo("dev", "none")
	})
}

func TestHandler_ExposesBuildInfo(t *testing.T) {
	m := New()
	m.SetBuildInfo("1.2.3", "abc123")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `folio_build_info{commit="abc123",version="1.2.3"} 1`))
}
