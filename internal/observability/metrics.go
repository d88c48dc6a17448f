package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge
	apiUploads  *prometheus.HistogramVec

	pipelineOutcomes *prometheus.CounterVec
	pipelineLatency  *prometheus.HistogramVec

	gatewayRequests *prometheus.CounterVec
	gatewayLatency  *prometheus.HistogramVec
	gatewayBreaker  *prometheus.GaugeVec

	sideEffects *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current returns the process metrics, or nil when metrics are disabled.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pb_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pb_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pb_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		apiUploads: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pb_api_request_body_bytes",
			Help:    "Declared request body size in bytes for POST routes.",
			Buckets: prometheus.ExponentialBuckets(64<<10, 4, 7),
		}, []string{"route"}),
		pipelineOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_outcomes_total",
			Help: "Video analysis pipeline transitions by state.",
		}, []string{"state"}),
		pipelineLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pb_pipeline_duration_seconds",
			Help:    "End-to-end video analysis duration by terminal state.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"state"}),
		gatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pb_analyzer_requests_total",
			Help: "Analyzer calls by verdict.",
		}, []string{"verdict"}),
		gatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pb_analyzer_request_duration_seconds",
			Help:    "Analyzer call latency in seconds by verdict.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"verdict"}),
		gatewayBreaker: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pb_analyzer_breaker_state",
			Help: "Analyzer circuit breaker state (1 for the current state).",
		}, []string{"state"}),
		sideEffects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pb_post_commit_effects_total",
			Help: "Best-effort post-commit effects by effect/status.",
		}, []string{"effect", "status"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.apiUploads,
		m.pipelineOutcomes,
		m.pipelineLatency,
		m.gatewayRequests,
		m.gatewayLatency,
		m.gatewayBreaker,
		m.sideEffects,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	code := strconv.Itoa(status)
	m.apiRequests.WithLabelValues(method, route, code).Inc()
	m.apiLatency.WithLabelValues(method, route, code).Observe(dur.Seconds())
}

// ObserveUpload records a request body size; non-positive sizes (unknown length) are skipped.
func (m *Metrics) ObserveUpload(route string, bytes int64) {
	if m == nil || bytes <= 0 {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiUploads.WithLabelValues(route).Observe(float64(bytes))
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// IncPipelineState counts one transition of the analysis state machine.
func (m *Metrics) IncPipelineState(state string) {
	if m == nil {
		return
	}
	m.pipelineOutcomes.WithLabelValues(state).Inc()
}

func (m *Metrics) ObservePipeline(terminal string, dur time.Duration) {
	if m == nil {
		return
	}
	m.pipelineLatency.WithLabelValues(terminal).Observe(dur.Seconds())
}

func (m *Metrics) ObserveGateway(verdict string, dur time.Duration) {
	if m == nil {
		return
	}
	m.gatewayRequests.WithLabelValues(verdict).Inc()
	m.gatewayLatency.WithLabelValues(verdict).Observe(dur.Seconds())
}

func (m *Metrics) SetBreakerState(state string) {
	if m == nil {
		return
	}
	for _, s := range []string{"closed", "half-open", "open"} {
		v := 0.0
		if s == state {
			v = 1
		}
		m.gatewayBreaker.WithLabelValues(s).Set(v)
	}
}

func (m *Metrics) IncSideEffect(effect string, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.sideEffects.WithLabelValues(effect, status).Inc()
}
