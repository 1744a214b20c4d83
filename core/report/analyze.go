package report

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/wildfire/core/dispatch"
	"github.com/kilianp07/wildfire/core/model"
	"github.com/kilianp07/wildfire/core/resources"
)

// Distribution summarises a sample.
type Distribution struct {
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
}

// Analysis complements the report with distributions over the audit trail
// and a hindsight comparison against the cheapest feasible allocation.
type Analysis struct {
	ResponseCost      Distribution       `json:"response_cost"`
	DeploymentMinutes Distribution       `json:"deployment_minutes"`
	DamageCost        Distribution       `json:"damage_cost"`
	ResourceShare     map[string]float64 `json:"resource_share"`
	ActualCost        float64            `json:"actual_cost"`
	HindsightCost     float64            `json:"hindsight_cost"`
	Regret            float64            `json:"regret"`
}

// Analyze computes the analysis for a run. kinds supplies full capacities
// and unit costs; damage the per-severity damage table.
func Analyze(records []model.DispatchRecord, kinds []resources.Kind, damage dispatch.DamageTable) (Analysis, error) {
	var costs, minutes, dmg []float64
	share := make(map[string]float64)
	counts := model.NewSeverityCounts()
	for _, r := range records {
		counts[r.Severity]++
		if r.Succeeded() {
			costs = append(costs, r.Cost)
			minutes = append(minutes, r.DeploymentMinutes)
			share[r.Resource]++
		} else {
			dmg = append(dmg, r.DamageCost)
		}
	}
	for name := range share {
		share[name] /= float64(len(costs))
	}
	a := Analysis{
		ResponseCost:      distribution(costs),
		DeploymentMinutes: distribution(minutes),
		DamageCost:        distribution(dmg),
		ResourceShare:     share,
	}
	a.ActualCost = a.ResponseCost.Sum + a.DamageCost.Sum
	if len(records) == 0 {
		return a, nil
	}
	best, err := HindsightCost(counts, kinds, damage)
	if err != nil {
		return a, err
	}
	a.HindsightCost = best
	a.Regret = a.ActualCost - best
	if a.Regret < 0 && a.Regret > -1e-6 {
		a.Regret = 0
	}
	return a, nil
}

func distribution(x []float64) Distribution {
	if len(x) == 0 {
		return Distribution{}
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	d := Distribution{
		Count: len(x),
		Sum:   floats.Sum(sorted),
		Mean:  stat.Mean(sorted, nil),
		Min:   floats.Min(sorted),
		Max:   floats.Max(sorted),
		P50:   stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P90:   stat.Quantile(0.9, stat.Empirical, sorted, nil),
	}
	if len(x) > 1 {
		d.StdDev = stat.StdDev(sorted, nil)
	}
	return d
}

// HindsightCost is the minimum total cost achievable had every incident been
// known up front: each incident is either served by a unit (paying its cost)
// or missed (paying its damage), subject to unit capacities. The allocation
// is a transportation problem solved as a linear program.
func HindsightCost(counts model.SeverityCounts, kinds []resources.Kind, damage dispatch.DamageTable) (float64, error) {
	sevs := model.Severities
	nk, ns := len(kinds), len(sevs)
	n := ns*nk + ns
	y := func(s, k int) int { return s*nk + k }
	m := func(s int) int { return ns*nk + s }

	c := make([]float64, n)
	for s, sev := range sevs {
		for k, kind := range kinds {
			c[y(s, k)] = kind.UnitCost
		}
		cost, ok := damage.Cost(sev)
		if !ok {
			return 0, fmt.Errorf("report: %w: no damage cost for %s", model.ErrInvalidInput, sev)
		}
		c[m(s)] = cost
	}

	// capacity rows, then x >= 0
	g := mat.NewDense(nk+n, n, nil)
	h := make([]float64, nk+n)
	for k, kind := range kinds {
		for s := range sevs {
			g.Set(k, y(s, k), 1)
		}
		h[k] = float64(kind.TotalUnits)
	}
	for i := 0; i < n; i++ {
		g.Set(nk+i, i, -1)
	}

	// every incident is served or missed
	A := mat.NewDense(ns, n, nil)
	b := make([]float64, ns)
	for s, sev := range sevs {
		for k := range kinds {
			A.Set(s, y(s, k), 1)
		}
		A.Set(s, m(s), 1)
		b[s] = float64(counts[sev])
	}

	cStd, AStd, bStd := lp.Convert(c, g, h, A, b)
	opt, _, err := lp.Simplex(cStd, AStd, bStd, 1e-9, nil)
	if err != nil {
		return 0, fmt.Errorf("report: hindsight lp: %w", err)
	}
	return opt, nil
}
