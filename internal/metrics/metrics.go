// AngelaMos | 2026
// metrics.go

package metrics

import (
	"database/sql"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	FlowLogin   = "login"
	FlowRefresh = "refresh"

	ResultAllowed = "allowed"
	ResultDenied  = "denied"
)

// Metrics owns every collector the service exports. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        prometheus.Gauge

	tokensIssued   *prometheus.CounterVec
	tokenFailures  *prometheus.CounterVec
	authzDecisions *prometheus.CounterVec
}

type Config struct {
	Registry prometheus.Registerer
	Gatherer prometheus.Gatherer
	DBStats  func() sql.DBStats
}

func New(cfg Config) (*Metrics, error) {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	m := &Metrics{
		gatherer: gatherer,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests processed",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests currently being served",
		}),
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "identity_tokens_issued_total",
			Help: "Token pairs issued by flow",
		}, []string{"flow"}),
		tokenFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "identity_token_failures_total",
			Help: "Rejected token requests by flow and reason",
		}, []string{"flow", "reason"}),
		authzDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "identity_authz_decisions_total",
			Help: "Permission policy decisions",
		}, []string{"result"}),
	}

	collectors := []prometheus.Collector{
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpInflight,
		m.tokensIssued,
		m.tokenFailures,
		m.authzDecisions,
	}
	if cfg.DBStats != nil {
		collectors = append(collectors, newDBPoolCollector(cfg.DBStats))
	}

	for _, c := range collectors {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) TokenIssued(flow string) {
	if m == nil {
		return
	}
	m.tokensIssued.WithLabelValues(flow).Inc()
}

func (m *Metrics) TokenFailure(flow, reason string) {
	if m == nil {
		return
	}
	m.tokenFailures.WithLabelValues(flow, reason).Inc()
}

func (m *Metrics) AuthzDecision(allowed bool) {
	if m == nil {
		return
	}
	result := ResultDenied
	if allowed {
		result = ResultAllowed
	}
	m.authzDecisions.WithLabelValues(result).Inc()
}

// Middleware records request count, latency and in-flight gauge.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.ToUpper(r.Method)
		pathLabel := normalizePath(r.URL.Path)

		m.httpInflight.Inc()
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			m.httpInflight.Dec()
			m.httpRequestDuration.WithLabelValues(method, pathLabel).
				Observe(time.Since(start).Seconds())

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			m.httpRequestsTotal.WithLabelValues(
				method,
				pathLabel,
				strconv.Itoa(status),
			).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func registerCollector(
	reg prometheus.Registerer,
	collector prometheus.Collector,
) error {
	if err := reg.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return nil
		}
		return err
	}
	return nil
}

type dbPoolCollector struct {
	stats func() sql.DBStats

	openDesc  *prometheus.Desc
	inUseDesc *prometheus.Desc
	idleDesc  *prometheus.Desc
	waitDesc  *prometheus.Desc
}

func newDBPoolCollector(stats func() sql.DBStats) *dbPoolCollector {
	return &dbPoolCollector{
		stats: stats,
		openDesc: prometheus.NewDesc(
			"db_pool_open_connections", "Open database connections", nil, nil,
		),
		inUseDesc: prometheus.NewDesc(
			"db_pool_in_use_connections", "Database connections in use", nil, nil,
		),
		idleDesc: prometheus.NewDesc(
			"db_pool_idle_connections", "Idle database connections", nil, nil,
		),
		waitDesc: prometheus.NewDesc(
			"db_pool_wait_count_total", "Connections waited for", nil, nil,
		),
	}
}

func (c *dbPoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.openDesc
	ch <- c.inUseDesc
	ch <- c.idleDesc
	ch <- c.waitDesc
}

func (c *dbPoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	ch <- prometheus.MustNewConstMetric(
		c.openDesc, prometheus.GaugeValue, float64(s.OpenConnections),
	)
	ch <- prometheus.MustNewConstMetric(
		c.inUseDesc, prometheus.GaugeValue, float64(s.InUse),
	)
	ch <- prometheus.MustNewConstMetric(
		c.idleDesc, prometheus.GaugeValue, float64(s.Idle),
	)
	ch <- prometheus.MustNewConstMetric(
		c.waitDesc, prometheus.CounterValue, float64(s.WaitCount),
	)
}

var (
	uuidSegmentRE  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F-]{4}-[0-9a-fA-F-]{4,}$`)
	tokenSegmentRE = regexp.MustCompile(`^[A-Za-z0-9_-]{24,}$`)
)

// normalizePath collapses ids in the path so labels stay low-cardinality.
func normalizePath(p string) string {
	clean := strings.SplitN(p, "?", 2)[0]
	if clean == "" || clean == "/" {
		return "/"
	}

	var out []string
	for _, seg := range strings.Split(clean, "/") {
		if seg == "" {
			continue
		}
		if isDynamicSegment(seg) {
			out = append(out, ":param")
		} else {
			out = append(out, seg)
		}
	}
	if len(out) == 0 {
		return "/"
	}
	return "/" + strings.Join(out, "/")
}

func isDynamicSegment(seg string) bool {
	if len(seg) > 48 || strings.Contains(seg, "@") {
		return true
	}
	if uuidSegmentRE.MatchString(seg) || tokenSegmentRE.MatchString(seg) {
		return true
	}
	if _, err := strconv.Atoi(seg); err == nil {
		return true
	}
	return false
}
