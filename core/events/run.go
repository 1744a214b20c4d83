package events

import (
	"time"

	"github.com/kilianp07/wildfire/core/model"
)

// RunStarted is published before the first incident of a run is processed.
type RunStarted struct {
	RunID     string
	Incidents int
	Policy    string
	Time      time.Time
}

// IncidentProcessed is published after each incident's accounting is applied.
type IncidentProcessed struct {
	RunID  string
	Seq    int
	Record model.DispatchRecord
}

// RunCompleted carries the final totals of a run.
type RunCompleted struct {
	RunID           string
	Addressed       int
	Missed          int
	OperationalCost float64
	DamageCost      float64
	Duration        time.Duration
}
