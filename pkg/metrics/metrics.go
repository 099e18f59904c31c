// Package metrics exposes Prometheus collectors for completion calls.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics records outbound completion calls. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tokensTotal     *prometheus.CounterVec
	modelFallbacks  prometheus.Counter
}

// New creates the collectors and registers them with reg, or with the
// default registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "claudeapi",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Total completion calls by model and outcome",
		}, []string{"model", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "claudeapi",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Latency of completion calls",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"model"}),
		tokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "claudeapi",
			Subsystem: "gateway",
			Name:      "tokens_total",
			Help:      "Tokens reported by the completion service",
		}, []string{"model", "direction"}),
		modelFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "claudeapi",
			Subsystem: "catalog",
			Name:      "model_fallbacks_total",
			Help:      "Queries that named an unknown model and used the default",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration, m.tokensTotal, m.modelFallbacks)
	return m
}

// ObserveRequest records one completion call.
func (m *Metrics) ObserveRequest(model string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	status := "error"
	if ok {
		status = "ok"
	}
	m.requestsTotal.WithLabelValues(model, status).Inc()
	m.requestDuration.WithLabelValues(model).Observe(seconds)
}

// ObserveUsage records token counters of a successful call.
func (m *Metrics) ObserveUsage(model string, inputTokens, outputTokens int64) {
	if m == nil {
		return
	}
	m.tokensTotal.WithLabelValues(model, "input").Add(float64(inputTokens))
	m.tokensTotal.WithLabelValues(model, "output").Add(float64(outputTokens))
}

// ObserveFallback records a query whose model was replaced by the default.
func (m *Metrics) ObserveFallback() {
	if m == nil {
		return
	}
	m.modelFallbacks.Inc()
}
