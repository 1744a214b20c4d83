// Package metrics implements the core metrics sinks. PromSink exposes run
// outcomes as Prometheus collectors and InfluxSink writes dispatch records
// and run summaries as InfluxDB points. Both register themselves with the
// core sink registry under "prometheus" and "influx".
package metrics
