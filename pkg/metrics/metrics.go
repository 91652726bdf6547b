// Package metrics exposes traversal metrics in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mnemonic-no/grafeo-sub002/pkg/graph"
)

const namespace = "grafeo"

// Recorder collects traversal metrics on its own registry and observes graph events.
type Recorder struct {
	registry *prometheus.Registry

	// searches counts fact searches issued by traversals.
	// Labels: kind (adjacency)
	searches *prometheus.CounterVec

	// factsFiltered counts facts dropped before becoming edges.
	// Labels: reason (access_denied, retracted, direction)
	factsFiltered *prometheus.CounterVec

	// requestDuration measures traversal requests.
	// Labels: status (ok, invalid, unauthenticated, not_found, error)
	requestDuration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with Go runtime and process collectors registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		searches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "traverse",
			Name:      "searches_total",
			Help:      "Total fact searches issued by traversals",
		}, []string{"kind"}),
		factsFiltered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "traverse",
			Name:      "facts_filtered_total",
			Help:      "Total facts dropped during traversal by reason",
		}, []string{"reason"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "traverse",
			Name:      "request_duration_seconds",
			Help:      "Traversal request latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"status"}),
	}
}

var _ graph.Observer = (*Recorder)(nil)

func (r *Recorder) SearchIssued(kind string) {
	r.searches.WithLabelValues(kind).Inc()
}

func (r *Recorder) FactFiltered(reason string) {
	r.factsFiltered.WithLabelValues(reason).Inc()
}

// ObserveRequest records the duration of one traversal request.
func (r *Recorder) ObserveRequest(status string, d time.Duration) {
	r.requestDuration.WithLabelValues(status).Observe(d.Seconds())
}

// Registry returns the registry the Recorder's collectors live on.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
