// Package report turns the final state of a dispatch run into the report
// document, a human readable summary and derived analytics.
package report

import (
	"encoding/json"

	"github.com/kilianp07/wildfire/core/dispatch"
	"github.com/kilianp07/wildfire/core/model"
	"github.com/kilianp07/wildfire/core/resources"
)

// EfficiencyMetrics holds derived cost ratios.
type EfficiencyMetrics struct {
	AvgCostPerResponse float64 `json:"avg_cost_per_response"`
}

// Report is the final report document. Field names are a stable contract.
type Report struct {
	TotalEvents         int                         `json:"total_events"`
	FiresAddressed      int                         `json:"fires_addressed"`
	FiresMissed         int                         `json:"fires_missed"`
	OperationalCosts    float64                     `json:"operational_costs"`
	DamageCosts         float64                     `json:"damage_costs"`
	SeverityReport      dispatch.Statistics         `json:"severity_report"`
	ResourceUtilization map[string]resources.Status `json:"resource_utilization"`
	EfficiencyMetrics   EfficiencyMetrics           `json:"efficiency_metrics"`

	order []string
}

// Generate builds the report from the final ledger and pool kinds. It reads
// its inputs only and always yields the same document for the same state.
func Generate(acc dispatch.Accounting, kinds []resources.Kind) Report {
	acc = acc.Clone()
	if acc.Statistics.Addressed == nil {
		acc.Statistics.Addressed = model.NewSeverityCounts()
	}
	if acc.Statistics.Missed == nil {
		acc.Statistics.Missed = model.NewSeverityCounts()
	}
	addressed, missed := acc.Addressed(), acc.Missed()
	r := Report{
		TotalEvents:         addressed + missed,
		FiresAddressed:      addressed,
		FiresMissed:         missed,
		OperationalCosts:    acc.OperationalCost,
		DamageCosts:         acc.MissedResponseCost,
		SeverityReport:      acc.Statistics,
		ResourceUtilization: make(map[string]resources.Status, len(kinds)),
		order:               make([]string, 0, len(kinds)),
	}
	for _, k := range kinds {
		r.ResourceUtilization[k.Name] = resources.Status{Total: k.TotalUnits, Used: k.UsedUnits, Available: k.Available()}
		r.order = append(r.order, k.Name)
	}
	if addressed > 0 {
		r.EfficiencyMetrics.AvgCostPerResponse = acc.OperationalCost / float64(addressed)
	}
	return r
}

// FromResult is Generate over a completed run.
func FromResult(res dispatch.Result) Report {
	return Generate(res.Accounting, res.Kinds)
}

// TotalCost is operational plus damage cost.
func (r Report) TotalCost() float64 { return r.OperationalCosts + r.DamageCosts }

// SuccessRates returns addressed/(addressed+missed) per severity. Severities
// without incidents are omitted.
func (r Report) SuccessRates() map[model.Severity]float64 {
	out := make(map[model.Severity]float64)
	for _, s := range model.Severities {
		a, m := r.SeverityReport.Addressed[s], r.SeverityReport.Missed[s]
		if a+m == 0 {
			continue
		}
		out[s] = float64(a) / float64(a+m)
	}
	return out
}

// Utilization returns used/total as a percentage per resource. Kinds with no
// units report 0.
func (r Report) Utilization() map[string]float64 {
	out := make(map[string]float64, len(r.ResourceUtilization))
	for name, st := range r.ResourceUtilization {
		if st.Total == 0 {
			out[name] = 0
			continue
		}
		out[name] = float64(st.Used) / float64(st.Total) * 100
	}
	return out
}

// ResourceNames lists resources in pool order when known, otherwise sorted.
func (r Report) ResourceNames() []string {
	if len(r.order) == len(r.ResourceUtilization) {
		return append([]string(nil), r.order...)
	}
	return sortedKeys(r.ResourceUtilization)
}

// MarshalIndent encodes the report with two-space indentation.
func (r Report) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
