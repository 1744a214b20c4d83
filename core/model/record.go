package model

import (
	"encoding/json"
	"time"
)

// Outcome tags the terminal state of a processed incident.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeMissed  Outcome = "MISSED"
)

// DispatchRecord is the audit entry written once per processed incident.
// SUCCESS entries carry Resource, Cost and DeploymentMinutes; MISSED entries
// carry DamageCost.
type DispatchRecord struct {
	Timestamp         time.Time
	Severity          Severity
	Outcome           Outcome
	Resource          string
	Cost              float64
	DeploymentMinutes float64
	DamageCost        float64
	IncidentID        string
}

// Succeeded reports whether a resource was committed.
func (r DispatchRecord) Succeeded() bool { return r.Outcome == OutcomeSuccess }

type recordJSON struct {
	Timestamp         time.Time `json:"timestamp"`
	Severity          Severity  `json:"severity"`
	Outcome           Outcome   `json:"response"`
	IncidentID        string    `json:"incident_id,omitempty"`
	Resource          *string   `json:"resource,omitempty"`
	Cost              *float64  `json:"cost,omitempty"`
	DeploymentMinutes *float64  `json:"deployment_time_minutes,omitempty"`
	DamageCost        *float64  `json:"damage_cost,omitempty"`
}

// MarshalJSON emits resource/cost for SUCCESS entries and damage_cost for
// MISSED entries.
func (r DispatchRecord) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		Timestamp:  r.Timestamp,
		Severity:   r.Severity,
		Outcome:    r.Outcome,
		IncidentID: r.IncidentID,
	}
	if r.Succeeded() {
		out.Resource = &r.Resource
		out.Cost = &r.Cost
		out.DeploymentMinutes = &r.DeploymentMinutes
	} else {
		out.DamageCost = &r.DamageCost
	}
	return json.Marshal(out)
}

func (r *DispatchRecord) UnmarshalJSON(b []byte) error {
	var in recordJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*r = DispatchRecord{
		Timestamp:  in.Timestamp,
		Severity:   in.Severity,
		Outcome:    in.Outcome,
		IncidentID: in.IncidentID,
	}
	if in.Resource != nil {
		r.Resource = *in.Resource
	}
	if in.Cost != nil {
		r.Cost = *in.Cost
	}
	if in.DeploymentMinutes != nil {
		r.DeploymentMinutes = *in.DeploymentMinutes
	}
	if in.DamageCost != nil {
		r.DamageCost = *in.DamageCost
	}
	return nil
}
