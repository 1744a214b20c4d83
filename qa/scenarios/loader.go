package scenarios

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/wildfire/core/ingest"
	"github.com/kilianp07/wildfire/core/model"
	"github.com/kilianp07/wildfire/core/resources"
)

// IncidentDef is an incident as written in a scenario file.
type IncidentDef struct {
	ID            string    `yaml:"id"`
	Timestamp     string    `yaml:"timestamp"`
	FireStartTime string    `yaml:"fire_start_time"`
	Location      []float64 `yaml:"location"`
	Severity      string    `yaml:"severity"`
}

// ToModel parses the definition through the upload path.
func (d IncidentDef) ToModel() (model.Incident, error) {
	loc, err := json.Marshal(d.Location)
	if err != nil {
		return model.Incident{}, err
	}
	start := d.FireStartTime
	if start == "" {
		start = d.Timestamp
	}
	inc, err := ingest.Record{
		ID:            d.ID,
		Timestamp:     d.Timestamp,
		FireStartTime: start,
		Location:      loc,
		Severity:      d.Severity,
	}.Incident()
	if err != nil {
		return inc, fmt.Errorf("incident %s: %w", d.ID, err)
	}
	return inc, nil
}

// Expected lists the checks applied after the run. Empty fields are skipped.
type Expected struct {
	Order            []string           `yaml:"order,omitempty"`
	Assignments      map[string]string  `yaml:"assignments,omitempty"`
	TotalEvents      *int               `yaml:"total_events,omitempty"`
	FiresAddressed   *int               `yaml:"fires_addressed,omitempty"`
	FiresMissed      *int               `yaml:"fires_missed,omitempty"`
	OperationalCosts *float64           `yaml:"operational_costs,omitempty"`
	DamageCosts      *float64           `yaml:"damage_costs,omitempty"`
	AvgCost          *float64           `yaml:"avg_cost_per_response,omitempty"`
	Used             map[string]int     `yaml:"used,omitempty"`
	Damage           map[string]float64 `yaml:"damage_by_severity,omitempty"`
}

// Scenario is one dispatch run with its expected outcome. When Resources is
// empty the built-in catalog is used; otherwise it is the whole pool, in
// file order.
type Scenario struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description,omitempty"`
	Policy      string             `yaml:"policy,omitempty"`
	Resources   []resources.Spec   `yaml:"resources,omitempty"`
	DamageCosts map[string]float64 `yaml:"damage_costs,omitempty"`
	Incidents   []IncidentDef      `yaml:"incidents"`
	Expected    Expected           `yaml:"expected"`
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("scenario %s: missing name", path)
	}
	return &sc, nil
}

// IncidentModels converts every incident definition.
func (s *Scenario) IncidentModels() ([]model.Incident, error) {
	out := make([]model.Incident, 0, len(s.Incidents))
	for _, d := range s.Incidents {
		inc, err := d.ToModel()
		if err != nil {
			return nil, err
		}
		out = append(out, inc)
	}
	return out, nil
}
