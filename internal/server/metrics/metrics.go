// Package metrics содержит prometheus метрики сервера
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Результаты аутентификации для метки "result"
const (
	ResultSuccess      = "success"
	ResultNoToken      = "no_token"
	ResultInvalidToken = "invalid_token"
	ResultUnknownUser  = "unknown_user"
	ResultError        = "error"
	ResultInvalidCreds = "invalid_credentials"
	ResultRevoked      = "revoked"
)

// Metrics владеет собственным registry, чтобы тесты не конфликтовали
// с глобальным prometheus.DefaultRegisterer.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	authTotal    *prometheus.CounterVec
	loginTotal   *prometheus.CounterVec
	refreshTotal *prometheus.CounterVec
	forbidden    prometheus.Counter
	buildInfo    *prometheus.GaugeVec
}

// New создает и регистрирует все метрики
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "folio_http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "folio_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		authTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_authentications_total",
			Help: "Bearer token authentications by result.",
		}, []string{"result"}),
		loginTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_token_refreshes_total",
			Help: "Access token refreshes by result.",
		}, []string{"result"}),
		forbidden: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "folio_authorization_denied_total",
			Help: "Requests rejected by the admin gate.",
		}),
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "folio_build_info",
			Help: "Folio server build information.",
		}, []string{"version", "commit"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpInFlight,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.authTotal,
		m.loginTotal,
		m.refreshTotal,
		m.forbidden,
		m.buildInfo,
	)

	return m
}

// Handler отдает метрики в формате prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetBuildInfo выставляет build_info{version, commit} 1
func (m *Metrics) SetBuildInfo(version, commit string) {
	if m == nil {
		return
	}
	m.buildInfo.WithLabelValues(version, commit).Set(1)
}

// ObserveAuthentication counts a bearer token check. Nil-safe.
func (m *Metrics) ObserveAuthentication(result string) {
	if m == nil {
		return
	}
	m.authTotal.WithLabelValues(result).Inc()
}

// ObserveLogin counts a login attempt. Nil-safe.
func (m *Metrics) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.loginTotal.WithLabelValues(result).Inc()
}

// ObserveRefresh counts a refresh attempt. Nil-safe.
func (m *Metrics) ObserveRefresh(result string) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(result).Inc()
}

// ObserveForbidden counts a request rejected by the admin gate. Nil-safe.
func (m *Metrics) ObserveForbidden() {
	if m == nil {
		return
	}
	m.forbidden.Inc()
}

// Instrument измеряет RPS, latency и запросы в полёте
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)

		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		status := strconv.Itoa(sw.code)
		m.httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
	})
}

// knownPaths ограничивает кардинальность метки path
var knownPaths = map[string]struct{}{
	"/api/v1/auth/register":     {},
	"/api/v1/auth/login":        {},
	"/api/v1/auth/refresh":      {},
	"/api/v1/auth/logout":       {},
	"/api/v1/users/me":          {},
	"/api/v1/users/me/password": {},
	"/api/v1/settings":          {},
	"/api/v1/health":            {},
	"/metrics":                  {},
}

// CanonicalPath maps a request path to a bounded label value.
func CanonicalPath(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		return "/"
	}
	if _, ok := knownPaths[p]; ok {
		return p
	}
	return "other"
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
