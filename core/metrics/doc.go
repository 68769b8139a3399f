// Package metrics defines sinks receiving per-year allocation statistics.
// Implementations live in infra/metrics and register themselves by name;
// NewMetricsSink builds a MultiSink when several sinks are configured.
package metrics
