package scenarios

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/wildfire/core/dispatch"
	"github.com/kilianp07/wildfire/core/report"
	"github.com/kilianp07/wildfire/core/resources"
	"github.com/kilianp07/wildfire/infra/logger"
)

// Run executes sc on a fresh pool and engine and returns the final report.
func Run(ctx context.Context, sc *Scenario) (dispatch.Result, report.Report, error) {
	specs := sc.Resources
	if len(specs) == 0 {
		specs = resources.DefaultCatalog()
	}
	pool, err := resources.NewPool(specs)
	if err != nil {
		return dispatch.Result{}, report.Report{}, err
	}
	damage, err := dispatch.DefaultDamageTable().Override(sc.DamageCosts)
	if err != nil {
		return dispatch.Result{}, report.Report{}, err
	}
	eng, err := dispatch.NewEngine(pool, damage, logger.NopLogger{})
	if err != nil {
		return dispatch.Result{}, report.Report{}, err
	}
	if sc.Policy != "" {
		p, err := dispatch.NewPolicy(sc.Policy)
		if err != nil {
			return dispatch.Result{}, report.Report{}, err
		}
		eng.SetPolicy(p)
	}
	incidents, err := sc.IncidentModels()
	if err != nil {
		return dispatch.Result{}, report.Report{}, err
	}
	if err := eng.Process(ctx, incidents); err != nil {
		return dispatch.Result{}, report.Report{}, err
	}
	res := eng.Complete(ctx)
	return res, report.FromResult(res), nil
}

// RunScenario runs sc and checks every expectation it declares.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	res, rep, err := Run(context.Background(), sc)
	require.NoError(t, err)
	exp := sc.Expected

	if exp.Order != nil {
		got := make([]string, len(res.Records))
		for i, r := range res.Records {
			got[i] = r.IncidentID
		}
		assert.Equal(t, exp.Order, got, "processing order")
	}
	if exp.Assignments != nil {
		byID := make(map[string]string, len(res.Records))
		for _, r := range res.Records {
			byID[r.IncidentID] = r.Resource
		}
		for id, want := range exp.Assignments {
			assert.Equal(t, want, byID[id], "assignment of %s", id)
		}
	}
	if exp.TotalEvents != nil {
		assert.Equal(t, *exp.TotalEvents, rep.TotalEvents, "total_events")
	}
	if exp.FiresAddressed != nil {
		assert.Equal(t, *exp.FiresAddressed, rep.FiresAddressed, "fires_addressed")
	}
	if exp.FiresMissed != nil {
		assert.Equal(t, *exp.FiresMissed, rep.FiresMissed, "fires_missed")
	}
	if exp.OperationalCosts != nil {
		assert.InDelta(t, *exp.OperationalCosts, rep.OperationalCosts, 1e-9, "operational_costs")
	}
	if exp.DamageCosts != nil {
		assert.InDelta(t, *exp.DamageCosts, rep.DamageCosts, 1e-9, "damage_costs")
	}
	if exp.AvgCost != nil {
		assert.InDelta(t, *exp.AvgCost, rep.EfficiencyMetrics.AvgCostPerResponse, 1e-9, "avg_cost_per_response")
	}
	for name, used := range exp.Used {
		assert.Equal(t, used, rep.ResourceUtilization[name].Used, "used units of %s", name)
	}
	for _, r := range res.Records {
		if r.Succeeded() {
			continue
		}
		if want, ok := exp.Damage[r.Severity.String()]; ok {
			assert.InDelta(t, want, r.DamageCost, 1e-9, "damage for %s", r.IncidentID)
		}
	}

	// Cost identity holds for every scenario.
	var op, dmg float64
	for _, r := range res.Records {
		op += r.Cost
		dmg += r.DamageCost
	}
	assert.InDelta(t, op, rep.OperationalCosts, 1e-9)
	assert.InDelta(t, dmg, rep.DamageCosts, 1e-9)
	assert.Equal(t, rep.TotalEvents, rep.FiresAddressed+rep.FiresMissed)
}
