package dispatch

import (
	"fmt"

	"github.com/kilianp07/wildfire/core/model"
)

// DamageTable holds the damage cost charged for a missed incident of each
// severity.
type DamageTable map[model.Severity]float64

// DefaultDamageTable returns LOW=50000, MEDIUM=100000, HIGH=200000.
func DefaultDamageTable() DamageTable {
	return DamageTable{
		model.SeverityLow:    50000,
		model.SeverityMedium: 100000,
		model.SeverityHigh:   200000,
	}
}

// Cost returns the damage charged for sev. ok is false for a severity
// outside the closed set.
func (d DamageTable) Cost(sev model.Severity) (float64, bool) {
	if !sev.Valid() {
		return 0, false
	}
	c, ok := d[sev]
	return c, ok
}

// Override returns a copy of d with the severities present in custom
// replaced. Keys are severity names, case-insensitive.
func (d DamageTable) Override(custom map[string]float64) (DamageTable, error) {
	out := d.Clone()
	for key, v := range custom {
		sev, err := model.ParseSeverity(key)
		if err != nil {
			return nil, fmt.Errorf("damage_costs: %w", err)
		}
		if v < 0 {
			return nil, fmt.Errorf("%w: damage_costs: negative cost %g for %s", model.ErrInvalidInput, v, sev)
		}
		out[sev] = v
	}
	return out, nil
}

// Clone returns a copy of d.
func (d DamageTable) Clone() DamageTable {
	out := make(DamageTable, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
