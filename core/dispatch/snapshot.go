package dispatch

import (
	"github.com/kilianp07/wildfire/core/model"
	"github.com/kilianp07/wildfire/core/resources"
)

// ResourceState is the snapshot view of one resource kind.
type ResourceState struct {
	Name                  string  `json:"name"`
	DeploymentTimeMinutes float64 `json:"deployment_time_minutes"`
	Cost                  float64 `json:"cost"`
	TotalUnits            int     `json:"total_units"`
	UsedUnits             int     `json:"used_units"`
	AvailableUnits        int     `json:"available_units"`
}

// State is the full system snapshot published after an incident.
type State struct {
	Resources           map[string]ResourceState `json:"resources"`
	Events              []model.Incident         `json:"events"`
	DamageCosts         DamageTable              `json:"damage_costs"`
	OperationalCosts    float64                  `json:"operational_costs"`
	MissedResponseCosts float64                  `json:"missed_response_costs"`
	Statistics          Statistics               `json:"statistics"`
}

// State returns the system snapshot of the completed run.
func (r Result) State() State {
	return newState(r.Kinds, r.Incidents, r.Damage, r.Accounting)
}

func newState(kinds []resources.Kind, incidents []model.Incident, damage DamageTable, acc Accounting) State {
	return State{
		Resources:           resourceStates(kinds),
		Events:              cloneIncidents(incidents),
		DamageCosts:         damage.Clone(),
		OperationalCosts:    acc.OperationalCost,
		MissedResponseCosts: acc.MissedResponseCost,
		Statistics:          acc.Clone().Statistics,
	}
}

func resourceStates(kinds []resources.Kind) map[string]ResourceState {
	out := make(map[string]ResourceState, len(kinds))
	for _, k := range kinds {
		out[k.Name] = ResourceState{
			Name:                  k.Name,
			DeploymentTimeMinutes: k.DeploymentDuration.Minutes(),
			Cost:                  k.UnitCost,
			TotalUnits:            k.TotalUnits,
			UsedUnits:             k.UsedUnits,
			AvailableUnits:        k.Available(),
		}
	}
	return out
}

func cloneIncidents(in []model.Incident) []model.Incident {
	out := make([]model.Incident, len(in))
	for i, inc := range in {
		if inc.AssignedResource != nil {
			name := *inc.AssignedResource
			inc.AssignedResource = &name
		}
		out[i] = inc
	}
	return out
}
