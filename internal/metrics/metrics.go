// Package metrics expone las métricas Prometheus del servicio: HTTP, flujo oauth
// y pool de Postgres.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/memberbridge/internal/identity"
)

// Etapas y resultados del flujo oauth.
const (
	StageInit       = "init"
	StageCallback   = "callback"
	StageCompletion = "completion"
	StageCivic      = "civic_action"

	OutcomeSession    = "session"
	OutcomeCompletion = "needs_completion"
	OutcomeRedirect   = "redirect"
	OutcomeFailed     = "failed"

	// SourceBridge etiqueta las operaciones contra el bridge que no son de un provider.
	SourceBridge = "bridge"
	unknownLabel = "unknown"
)

// ProviderLabel acota el label provider a un conjunto fijo: cualquier otro valor es "unknown".
func ProviderLabel(provider string) string {
	switch p := identity.NormalizeProvider(provider); p {
	case identity.ProviderGoogle, identity.ProviderATProto, SourceBridge:
		return p
	}
	return unknownLabel
}

// Metrics agrupa los collectors. Un *Metrics nil es válido: todas las operaciones son no-op.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec
	flowTotal           *prometheus.CounterVec
	memberCreatedTotal  *prometheus.CounterVec
}

// Registry es lo que necesitamos de un registry Prometheus.
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// New crea y registra los collectors. reg nil = registry por defecto.
func New(reg Registry) (*Metrics, error) {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}

	m := &Metrics{
		gatherer: gatherer,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo por método",
		}, []string{"method"}),
		flowTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "memberbridge_flow_total",
			Help: "Resultados del flujo oauth por etapa y provider",
		}, []string{"stage", "provider", "outcome"}),
		memberCreatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "memberbridge_members_created_total",
			Help: "Members creados por provider",
		}, []string{"provider"}),
	}

	for _, c := range []prometheus.Collector{
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpInflight,
		m.flowTotal,
		m.memberCreatedTotal,
	} {
		if err := registerCollector(registerer, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// registerCollector registra el collector en el registry indicado, ignorando duplicados.
func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// Handler sirve /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveFlow cuenta un resultado del flujo. provider llega de la request: ver ProviderLabel.
func (m *Metrics) ObserveFlow(stage, provider, outcome string) {
	if m == nil {
		return
	}
	m.flowTotal.WithLabelValues(stage, ProviderLabel(provider), outcome).Inc()
}

// ObserveMemberCreated cuenta un member nuevo.
func (m *Metrics) ObserveMemberCreated(provider string) {
	if m == nil {
		return
	}
	m.memberCreatedTotal.WithLabelValues(ProviderLabel(provider)).Inc()
}

// RegisterPool agrega gauges del pool de Postgres.
func (m *Metrics) RegisterPool(reg prometheus.Registerer, pool func() *pgxpool.Pool) error {
	if m == nil || pool == nil {
		return nil
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return registerCollector(reg, newPoolCollector(pool))
}

// statusRecorder captura el status para las métricas.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// Middleware instrumenta requests HTTP (contadores, latencia, inflight).
// El label path es el patrón de chi, nunca el path crudo.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.ToUpper(r.Method)
		m.httpInflight.WithLabelValues(method).Inc()
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			m.httpInflight.WithLabelValues(method).Dec()
			path := routePattern(r)
			m.httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// poolCollector expone gauges del pool global.
type poolCollector struct {
	pool func() *pgxpool.Pool

	acquiredDesc *prometheus.Desc
	idleDesc     *prometheus.Desc
	totalDesc    *prometheus.Desc
}

func newPoolCollector(pool func() *pgxpool.Pool) *poolCollector {
	return &poolCollector{
		pool:         pool,
		acquiredDesc: prometheus.NewDesc("pg_pool_acquired", "Conexiones adquiridas", nil, nil),
		idleDesc:     prometheus.NewDesc("pg_pool_idle", "Conexiones inactivas", nil, nil),
		totalDesc:    prometheus.NewDesc("pg_pool_total", "Conexiones totales", nil, nil),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredDesc
	ch <- c.idleDesc
	ch <- c.totalDesc
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	pool := c.pool()
	if pool == nil {
		return
	}
	stat := pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.acquiredDesc, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, float64(stat.TotalConns()))
}
