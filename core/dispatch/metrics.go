package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	incidentsProcessed *prometheus.CounterVec
	operationalCost    prometheus.Counter
	damageCost         prometheus.Counter
	resourceUnitsUsed  *prometheus.GaugeVec
	decisionLatency    prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, prometheus.Counter, prometheus.Counter, *prometheus.GaugeVec, prometheus.Histogram) {
	inc := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildfire_incidents_processed_total",
			Help: "Number of incidents decided, by severity and outcome",
		},
		[]string{"severity", "outcome"},
	)
	op := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wildfire_operational_cost_total",
			Help: "Sum of unit costs of committed resources",
		},
	)
	dmg := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wildfire_damage_cost_total",
			Help: "Sum of damage costs charged for missed incidents",
		},
	)
	used := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wildfire_resource_units_used",
			Help: "Units committed per resource kind in each run still in progress",
		},
		[]string{"run_id", "resource"},
	)
	lat := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wildfire_dispatch_decision_seconds",
			Help:    "Time to select and commit a resource for one incident",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
	)
	return inc, op, dmg, used, lat
}

func init() {
	incidentsProcessed, operationalCost, damageCost, resourceUnitsUsed, decisionLatency = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(incidentsProcessed, operationalCost, damageCost, resourceUnitsUsed, decisionLatency)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	incidentsProcessed, operationalCost, damageCost, resourceUnitsUsed, decisionLatency = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
