package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/wildfire/core/metrics"
)

// PromSink records dispatch outcomes in Prometheus metrics.
type PromSink struct {
	decisions *prometheus.CounterVec
	cost      *prometheus.HistogramVec
	units     *prometheus.GaugeVec
	runs      *prometheus.CounterVec
}

// NewPromSink registers sink metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wildfire_dispatch_decisions_total",
		Help: "Dispatch decisions by severity, outcome and resource",
	}, []string{"severity", "outcome", "resource"})
	cost := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wildfire_dispatch_cost",
		Help:    "Cost charged per decision: unit cost on success, damage on miss",
		Buckets: []float64{1000, 2500, 5000, 10000, 25000, 50000, 100000, 200000, 500000},
	}, []string{"outcome"})
	units := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wildfire_resource_units",
		Help: "Resource units by kind and state (used, available)",
	}, []string{"resource", "state"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wildfire_runs_total",
		Help: "Completed dispatch runs",
	}, []string{"result"})

	var err error
	if decisions, err = register(reg, decisions); err != nil {
		return nil, err
	}
	if cost, err = register(reg, cost); err != nil {
		return nil, err
	}
	if units, err = register(reg, units); err != nil {
		return nil, err
	}
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	return &PromSink{decisions: decisions, cost: cost, units: units, runs: runs}, nil
}

// register returns the already registered collector when one exists.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordDispatch counts the decision and observes its cost.
func (s *PromSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	r := ev.Record
	s.decisions.WithLabelValues(r.Severity.String(), string(r.Outcome), r.Resource).Inc()
	if r.Succeeded() {
		s.cost.WithLabelValues(string(r.Outcome)).Observe(r.Cost)
	} else {
		s.cost.WithLabelValues(string(r.Outcome)).Observe(r.DamageCost)
	}
	return nil
}

// RecordResourceUsage sets the unit gauges.
func (s *PromSink) RecordResourceUsage(usage []coremetrics.ResourceUsage) error {
	for _, u := range usage {
		s.units.WithLabelValues(u.Name, "used").Set(float64(u.Used))
		s.units.WithLabelValues(u.Name, "available").Set(float64(u.Total - u.Used))
	}
	return nil
}

// RecordRunSummary counts completed runs, split by whether anything was missed.
func (s *PromSink) RecordRunSummary(sum coremetrics.RunSummary) error {
	result := "clean"
	if sum.Missed > 0 {
		result = "with_misses"
	}
	s.runs.WithLabelValues(result).Inc()
	return nil
}
