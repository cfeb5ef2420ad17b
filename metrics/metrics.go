// Package metrics exposes Prometheus collectors for ACL compilation
// and pipeline runtime behavior. None of it sits on the packet hot
// path: Classify never touches a collector directly. cmd/aclc sets the
// compile metrics; the pipeline counters are defined here, but the
// worker read/write/drop loop does not increment them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors bundles every metric this module registers. Construct
// one with NewCollectors against a *prometheus.Registry (or
// prometheus.DefaultRegisterer) and pass it to the code that drives
// Compile; pipeline.Worker takes no Collectors.
type Collectors struct {
	CompileDuration prometheus.Histogram
	CompiledClasses *prometheus.GaugeVec
	PacketsTotal    *prometheus.CounterVec
	PacketsDropped  *prometheus.CounterVec
}

// NewCollectors registers and returns the full metric set. reg may be
// nil, in which case the collectors are created but registered with no
// registry.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)

	return &Collectors{
		CompileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aclc",
			Subsystem: "compile",
			Name:      "duration_seconds",
			Help:      "Wall-clock time Compile took to build a Filter from a rule set.",
			Buckets:   prometheus.DefBuckets,
		}),
		CompiledClasses: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "aclc",
			Subsystem: "compile",
			Name:      "equivalence_classes",
			Help:      "Number of cells in each compiled combining table.",
		}, []string{"dimension"}),
		PacketsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aclc",
			Subsystem: "pipeline",
			Name:      "packets_total",
			Help:      "Packets a worker has read, labeled by the action Classify assigned.",
		}, []string{"action"}),
		PacketsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aclc",
			Subsystem: "pipeline",
			Name:      "packets_dropped_total",
			Help:      "Packets a worker dropped, labeled by the reason (parse_error, acl, tx_error).",
		}, []string{"reason"}),
	}
}
