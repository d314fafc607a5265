// Package metrics provides Prometheus metrics for wgdisco.
//
// wgdisco runs as a one-shot process, so metrics are not served over HTTP.
// Instead they can be written in Prometheus text exposition format at exit
// (node_exporter textfile collector pattern) via WriteTextfile.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes all wgdisco metric names.
const Namespace = "wgdisco"

var registry = prometheus.NewRegistry()

var (
	mutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "mutations_total",
			Help:      "DNS record mutations applied, by provider, operation and record type.",
		},
		[]string{"provider", "operation", "record_type"},
	)

	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "queries_total",
			Help:      "DNS queries issued during discovery, by record type.",
		},
		[]string{"record_type"},
	)

	validationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "validation_failures_total",
			Help:      "Structural validation failures during discovery, by kind.",
		},
		[]string{"kind"},
	)

	nodesDiscovered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "nodes_discovered",
			Help:      "Nodes discovered and validated in the last run.",
		},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "build_info",
			Help:      "Build information; constant 1.",
		},
		[]string{"version", "go_version"},
	)
)

func init() {
	registry.MustRegister(
		mutationsTotal,
		queriesTotal,
		validationFailuresTotal,
		nodesDiscovered,
		buildInfo,
	)
}

// SetBuildInfo records the build version labels.
func SetBuildInfo(version, goVersion string) {
	buildInfo.WithLabelValues(version, goVersion).Set(1)
}

// RecordMutation counts one applied provider mutation.
func RecordMutation(provider, operation, recordType string) {
	mutationsTotal.WithLabelValues(provider, operation, recordType).Inc()
}

// RecordQuery counts one discovery DNS query.
func RecordQuery(recordType string) {
	queriesTotal.WithLabelValues(recordType).Inc()
}

// RecordValidationFailure counts one discovery validation failure.
func RecordValidationFailure(kind string) {
	validationFailuresTotal.WithLabelValues(kind).Inc()
}

// SetNodesDiscovered records the node count of the last discovery run.
func SetNodesDiscovered(n int) {
	nodesDiscovered.Set(float64(n))
}

// WriteTextfile writes all wgdisco metrics to path in text exposition
// format, suitable for the node_exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, registry)
}
