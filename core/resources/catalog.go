package resources

import (
	"sort"
	"time"
)

// Spec describes one resource kind as configured. Missing fields are zero.
type Spec struct {
	Name                  string  `json:"name,omitempty" yaml:"name,omitempty"`
	DeploymentTimeMinutes float64 `json:"deployment_time_minutes" yaml:"deployment_time_minutes"`
	Cost                  float64 `json:"cost" yaml:"cost"`
	TotalUnits            int     `json:"total_units" yaml:"total_units"`
}

// DeploymentDuration converts DeploymentTimeMinutes into a duration.
func (s Spec) DeploymentDuration() time.Duration {
	return time.Duration(s.DeploymentTimeMinutes * float64(time.Minute))
}

// DefaultCatalog returns the built-in resource kinds in declaration order.
func DefaultCatalog() []Spec {
	return []Spec{
		{Name: "smoke_jumpers", DeploymentTimeMinutes: 30, Cost: 5000, TotalUnits: 5},
		{Name: "fire_engines", DeploymentTimeMinutes: 60, Cost: 2000, TotalUnits: 10},
		{Name: "helicopters", DeploymentTimeMinutes: 45, Cost: 8000, TotalUnits: 3},
		{Name: "tanker_planes", DeploymentTimeMinutes: 120, Cost: 15000, TotalUnits: 2},
		{Name: "ground_crews", DeploymentTimeMinutes: 90, Cost: 3000, TotalUnits: 8},
	}
}

// Merge overlays custom entries on base by name. An entry replacing a base
// kind keeps its position; new kinds are appended in lexical name order so
// the result is deterministic for unordered config maps.
func Merge(base []Spec, custom map[string]Spec) []Spec {
	out := make([]Spec, 0, len(base)+len(custom))
	seen := make(map[string]bool, len(base))
	for _, b := range base {
		seen[b.Name] = true
		if c, ok := custom[b.Name]; ok {
			c.Name = b.Name
			out = append(out, c)
			continue
		}
		out = append(out, b)
	}
	extra := make([]string, 0, len(custom))
	for name := range custom {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		c := custom[name]
		c.Name = name
		out = append(out, c)
	}
	return out
}
