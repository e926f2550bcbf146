// Package metrics defines the Prometheus collectors for the lookup pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EngineNone labels queries that never reached an engine.
const EngineNone = "none"

var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_phone_queries_total",
			Help: "Lookups processed, by engine and outcome",
		},
		[]string{"engine", "outcome"},
	)

	EvidenceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_phone_evidence_total",
			Help: "Evidence records produced, by extraction method",
		},
		[]string{"method"},
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clinic_phone_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	ProviderFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_phone_provider_failures_total",
			Help: "Failed calls to external providers",
		},
		[]string{"provider"},
	)

	SinkFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "clinic_phone_sink_failures_total",
			Help: "Result records the sink failed to persist",
		},
	)
)

// Registry holds every collector above plus the Go runtime collectors.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		QueriesTotal,
		EvidenceTotal,
		StageDuration,
		ProviderFailures,
		SinkFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveStage records how long a stage took since start.
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// ProviderFailed counts one failed call to provider.
func ProviderFailed(provider string) {
	ProviderFailures.WithLabelValues(provider).Inc()
}
