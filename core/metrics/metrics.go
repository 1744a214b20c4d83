package metrics

import (
	"time"

	"github.com/kilianp07/wildfire/core/model"
)

// DispatchEvent is emitted once per processed incident.
type DispatchEvent struct {
	RunID  string
	Record model.DispatchRecord
	Time   time.Time
}

// MetricsSink records dispatch outcomes for observability purposes.
type MetricsSink interface {
	RecordDispatch(ev DispatchEvent) error
}

// RunSummary is the aggregate of a completed run.
type RunSummary struct {
	RunID           string
	Events          int
	Addressed       int
	Missed          int
	OperationalCost float64
	DamageCost      float64
	Duration        time.Duration
	Time            time.Time
}

// RunSummaryRecorder records completed runs.
type RunSummaryRecorder interface {
	RecordRunSummary(s RunSummary) error
}

// ResourceUsage is the unit usage of one resource kind.
type ResourceUsage struct {
	RunID string
	Name  string
	Total int
	Used  int
	Time  time.Time
}

// ResourceUsageRecorder records resource usage after each incident.
type ResourceUsageRecorder interface {
	RecordResourceUsage(u []ResourceUsage) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordDispatch(DispatchEvent) error        { return nil }
func (NopSink) RecordRunSummary(RunSummary) error         { return nil }
func (NopSink) RecordResourceUsage([]ResourceUsage) error { return nil }
