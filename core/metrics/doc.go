// Package metrics defines the sinks that observe dispatch runs. Every sink
// implements MetricsSink; optional recorder interfaces cover run summaries
// and resource usage and are detected by type assertion. Sinks are built
// from configuration with NewMetricsSink, which returns a MultiSink when
// several are configured.
package metrics
