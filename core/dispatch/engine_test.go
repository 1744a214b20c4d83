package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/wildfire/core/dispatch/logging"
	"github.com/kilianp07/wildfire/core/events"
	"github.com/kilianp07/wildfire/core/metrics"
	"github.com/kilianp07/wildfire/core/model"
	"github.com/kilianp07/wildfire/core/resources"
	"github.com/kilianp07/wildfire/internal/eventbus"
)

var t0 = time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)

func incident(id string, at time.Time, sev model.Severity) model.Incident {
	return model.Incident{ID: id, OccurredAt: at, ReportedAt: at.Add(-10 * time.Minute), Severity: sev}
}

func newEngine(t *testing.T, specs []resources.Spec) *Engine {
	t.Helper()
	pool, err := resources.NewPool(specs)
	require.NoError(t, err)
	eng, err := NewEngine(pool, nil, nil)
	require.NoError(t, err)
	return eng
}

func TestScenarioA_SeverityTieBreakWins(t *testing.T) {
	eng := newEngine(t, []resources.Spec{{Name: "only", Cost: 100, TotalUnits: 1}})
	in := []model.Incident{incident("low", t0, model.SeverityLow), incident("high", t0, model.SeverityHigh)}
	require.NoError(t, eng.Process(context.Background(), in))

	res := eng.Result()
	require.Len(t, res.Records, 2)
	assert.Equal(t, "high", res.Records[0].IncidentID)
	assert.Equal(t, model.OutcomeSuccess, res.Records[0].Outcome)
	assert.Equal(t, "low", res.Records[1].IncidentID)
	assert.Equal(t, model.OutcomeMissed, res.Records[1].Outcome)
	assert.Equal(t, 50000.0, res.Records[1].DamageCost)
	assert.Equal(t, 100.0, res.Accounting.OperationalCost)
	assert.Equal(t, 50000.0, res.Accounting.MissedResponseCost)
	assert.False(t, in[1].Handled, "caller slice must not be mutated")
}

func TestScenarioB_CheapestIgnoresSeverity(t *testing.T) {
	specs := []resources.Spec{
		{Name: "slow_cheap", Cost: 100, DeploymentTimeMinutes: 120, TotalUnits: 1},
		{Name: "fast_dear", Cost: 200, DeploymentTimeMinutes: 15, TotalUnits: 1},
	}
	for _, sev := range model.Severities {
		eng := newEngine(t, specs)
		require.NoError(t, eng.Process(context.Background(), []model.Incident{incident("x", t0, sev)}))
		rec := eng.Records()[0]
		assert.Equal(t, "slow_cheap", rec.Resource, sev.String())
		assert.Equal(t, 120.0, rec.DeploymentMinutes)
	}
}

func TestSeverityAwarePolicySendsFastestToHigh(t *testing.T) {
	specs := []resources.Spec{
		{Name: "slow_cheap", Cost: 100, DeploymentTimeMinutes: 120, TotalUnits: 1},
		{Name: "fast_dear", Cost: 200, DeploymentTimeMinutes: 15, TotalUnits: 1},
	}
	eng := newEngine(t, specs)
	eng.SetPolicy(SeverityAwarePolicy{})
	in := []model.Incident{incident("h", t0, model.SeverityHigh), incident("l", t0.Add(time.Minute), model.SeverityLow)}
	require.NoError(t, eng.Process(context.Background(), in))
	recs := eng.Records()
	assert.Equal(t, "fast_dear", recs[0].Resource)
	assert.Equal(t, "slow_cheap", recs[1].Resource)
	assert.Equal(t, PolicySeverityAware, eng.Result().Policy)
}

func TestScenarioC_NoCapacityMissesEverything(t *testing.T) {
	specs := resources.DefaultCatalog()
	for i := range specs {
		specs[i].TotalUnits = 0
	}
	eng := newEngine(t, specs)
	in := []model.Incident{
		incident("a", t0, model.SeverityLow),
		incident("b", t0.Add(time.Hour), model.SeverityMedium),
		incident("c", t0.Add(2*time.Hour), model.SeverityHigh),
		incident("d", t0.Add(3*time.Hour), model.SeverityHigh),
	}
	require.NoError(t, eng.Process(context.Background(), in))
	acc := eng.Accounting()
	assert.Zero(t, acc.OperationalCost)
	assert.Equal(t, 50000.0+100000+200000+200000, acc.MissedResponseCost)
	assert.Equal(t, 4, acc.Missed())
	assert.Equal(t, 2, acc.Statistics.Missed[model.SeverityHigh])
}

func TestEmptyRun(t *testing.T) {
	eng := newEngine(t, resources.DefaultCatalog())
	require.NoError(t, eng.Process(context.Background(), nil))
	res := eng.Complete(context.Background())
	assert.Empty(t, res.Records)
	assert.Zero(t, res.Accounting.Addressed()+res.Accounting.Missed())
}

func TestInvalidIncidentRejectsWholeBatch(t *testing.T) {
	eng := newEngine(t, resources.DefaultCatalog())
	in := []model.Incident{incident("ok", t0, model.SeverityHigh), {ID: "bad", OccurredAt: t0, ReportedAt: t0, Severity: model.Severity(9)}}
	err := eng.Process(context.Background(), in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
	assert.Empty(t, eng.Records())
	for _, st := range eng.Result().Resources {
		assert.Zero(t, st.Used)
	}
}

func TestAccountingIdentityAndOutcomeConsistency(t *testing.T) {
	eng := newEngine(t, resources.DefaultCatalog())
	var in []model.Incident
	for i := 0; i < 40; i++ {
		in = append(in, incident(string(rune('A'+i)), t0.Add(time.Duration(i%7)*time.Minute), model.Severities[i%3]))
	}
	require.NoError(t, eng.Process(context.Background(), in))
	res := eng.Result()

	var op, dmg float64
	success := map[string]string{}
	for _, r := range res.Records {
		if r.Succeeded() {
			op += r.Cost
			success[r.IncidentID] = r.Resource
		} else {
			want, _ := DefaultDamageTable().Cost(r.Severity)
			assert.Equal(t, want, r.DamageCost)
			dmg += r.DamageCost
		}
	}
	assert.InDelta(t, res.Accounting.OperationalCost, op, 1e-9)
	assert.InDelta(t, res.Accounting.MissedResponseCost, dmg, 1e-9)
	assert.Equal(t, 28, res.Accounting.Addressed(), "catalog holds 28 units")
	assert.Equal(t, 12, res.Accounting.Missed())

	for _, inc := range res.Incidents {
		name, ok := success[inc.ID]
		assert.Equal(t, ok, inc.Handled, inc.ID)
		assert.Equal(t, name, inc.Assigned(), inc.ID)
	}
	for _, k := range res.Kinds {
		assert.GreaterOrEqual(t, k.UsedUnits, 0)
		assert.LessOrEqual(t, k.UsedUnits, k.TotalUnits)
	}
	equal := append([]resources.Kind(nil), res.Kinds...)
	assert.Equal(t, "fire_engines", equal[1].Name)
	assert.Equal(t, 10, equal[1].UsedUnits, "cheapest kind is exhausted first")
}

func TestDeterministicRuns(t *testing.T) {
	in := []model.Incident{
		incident("1", t0.Add(time.Hour), model.SeverityLow),
		incident("2", t0, model.SeverityMedium),
		incident("3", t0, model.SeverityHigh),
	}
	run := func() []byte {
		eng := newEngine(t, resources.DefaultCatalog())
		require.NoError(t, eng.Process(context.Background(), in))
		b, err := json.Marshal(struct {
			Records []model.DispatchRecord
			State   State
		}{eng.Records(), eng.Snapshot()})
		require.NoError(t, err)
		return b
	}
	assert.Equal(t, string(run()), string(run()))
}

func TestObserverSeesEveryStep(t *testing.T) {
	eng := newEngine(t, []resources.Spec{{Name: "r", Cost: 10, TotalUnits: 1}})
	var seqs []int
	var lastCosts []float64
	eng.AddObserver(ObserverFunc(func(_ context.Context, s Step) error {
		seqs = append(seqs, s.Seq)
		st := s.State()
		lastCosts = append(lastCosts, st.OperationalCosts+st.MissedResponseCosts)
		assert.Equal(t, s.Accounting.OperationalCost, st.OperationalCosts)
		return errors.New("ignored")
	}))
	in := []model.Incident{incident("a", t0, model.SeverityHigh), incident("b", t0.Add(time.Minute), model.SeverityLow)}
	require.NoError(t, eng.Process(context.Background(), in))
	assert.Equal(t, []int{1, 2}, seqs)
	assert.Equal(t, []float64{10, 50010}, lastCosts)
}

func TestSnapshotDocumentFields(t *testing.T) {
	eng := newEngine(t, resources.DefaultCatalog())
	require.NoError(t, eng.Process(context.Background(), []model.Incident{incident("a", t0, model.SeverityHigh)}))
	b, err := json.Marshal(eng.Snapshot())
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	for _, k := range []string{"resources", "events", "damage_costs", "operational_costs", "missed_response_costs", "statistics"} {
		assert.Contains(t, doc, k)
	}
	fe := doc["resources"].(map[string]any)["fire_engines"].(map[string]any)
	assert.Equal(t, 9.0, fe["available_units"])
	assert.Equal(t, 60.0, fe["deployment_time_minutes"])
	ev := doc["events"].([]any)[0].(map[string]any)
	assert.Equal(t, true, ev["handled"])
	assert.Equal(t, "fire_engines", ev["assigned_resource"])
	assert.Equal(t, 200000.0, doc["damage_costs"].(map[string]any)["high"])
}

func TestResultStateMatchesSnapshot(t *testing.T) {
	eng := newEngine(t, resources.DefaultCatalog())
	require.NoError(t, eng.Process(context.Background(), []model.Incident{
		incident("a", t0, model.SeverityHigh),
		incident("b", t0.Add(time.Minute), model.SeverityLow),
	}))
	res := eng.Complete(context.Background())
	assert.Equal(t, eng.Snapshot(), res.State())
	assert.Equal(t, 4000.0, res.State().OperationalCosts)
	assert.Equal(t, 200000.0, res.State().DamageCosts[model.SeverityHigh])
}

type summarySink struct {
	events    int
	summaries []metrics.RunSummary
	usage     [][]metrics.ResourceUsage
}

func (s *summarySink) RecordDispatch(metrics.DispatchEvent) error { s.events++; return nil }
func (s *summarySink) RecordRunSummary(r metrics.RunSummary) error {
	s.summaries = append(s.summaries, r)
	return nil
}
func (s *summarySink) RecordResourceUsage(u []metrics.ResourceUsage) error {
	s.usage = append(s.usage, u)
	return nil
}

func TestCompletePublishesSummary(t *testing.T) {
	eng := newEngine(t, resources.DefaultCatalog())
	eng.SetRunID("run-1")
	sink := &summarySink{}
	eng.SetMetricsSink(sink)
	bus := eventbus.NewWithBuffer(16)
	sub := bus.Subscribe()
	eng.SetBus(bus)

	require.NoError(t, eng.Process(context.Background(), []model.Incident{incident("a", t0, model.SeverityLow)}))
	eng.Complete(context.Background())

	assert.Equal(t, 1, sink.events)
	require.Len(t, sink.summaries, 1)
	assert.Equal(t, "run-1", sink.summaries[0].RunID)
	assert.Equal(t, 2000.0, sink.summaries[0].OperationalCost)
	require.Len(t, sink.usage, 1)
	assert.Len(t, sink.usage[0], 5)

	assert.IsType(t, events.RunStarted{}, <-sub)
	assert.IsType(t, events.IncidentProcessed{}, <-sub)
	done, ok := (<-sub).(events.RunCompleted)
	require.True(t, ok)
	assert.Equal(t, 1, done.Addressed)
	bus.Close()
}

func TestAuditStoreReceivesRecords(t *testing.T) {
	store, err := logging.NewJSONLStore(filepath.Join(t.TempDir(), "audit.jsonl"))
	require.NoError(t, err)
	eng := newEngine(t, []resources.Spec{{Name: "r", Cost: 10, TotalUnits: 1}})
	eng.SetAuditStore(store)
	in := []model.Incident{incident("a", t0, model.SeverityHigh), incident("b", t0, model.SeverityMedium)}
	require.NoError(t, eng.Process(context.Background(), in))
	recs, err := store.Query(context.Background(), logging.AuditQuery{RunID: eng.RunID()})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	stored := make([]model.DispatchRecord, len(recs))
	for i, r := range recs {
		stored[i] = r.Record
	}
	assert.Equal(t, eng.Accounting(), Replay(stored))
	require.NoError(t, eng.Close())
}

func TestPrometheusCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	ResetMetrics(reg)
	t.Cleanup(func() { ResetMetrics(nil) })

	eng := newEngine(t, []resources.Spec{{Name: "r", Cost: 10, TotalUnits: 1}})
	in := []model.Incident{incident("a", t0, model.SeverityHigh), incident("b", t0, model.SeverityHigh)}
	require.NoError(t, eng.Process(context.Background(), in))

	assert.Equal(t, 1.0, testutil.ToFloat64(incidentsProcessed.WithLabelValues("high", "SUCCESS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(incidentsProcessed.WithLabelValues("high", "MISSED")))
	assert.Equal(t, 10.0, testutil.ToFloat64(operationalCost))
	assert.Equal(t, 200000.0, testutil.ToFloat64(damageCost))
	assert.Equal(t, 1.0, testutil.ToFloat64(resourceUnitsUsed.WithLabelValues(eng.RunID(), "r")))
}

func TestResourceGaugeIsPerRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	ResetMetrics(reg)
	t.Cleanup(func() { ResetMetrics(nil) })

	specs := []resources.Spec{{Name: "r", Cost: 10, TotalUnits: 3}}
	first := newEngine(t, specs)
	first.SetRunID("run-1")
	second := newEngine(t, specs)
	second.SetRunID("run-2")
	ctx := context.Background()
	require.NoError(t, first.Process(ctx, []model.Incident{incident("a", t0, model.SeverityLow), incident("b", t0, model.SeverityLow)}))
	require.NoError(t, second.Process(ctx, []model.Incident{incident("c", t0, model.SeverityLow)}))

	assert.Equal(t, 2.0, testutil.ToFloat64(resourceUnitsUsed.WithLabelValues("run-1", "r")))
	assert.Equal(t, 1.0, testutil.ToFloat64(resourceUnitsUsed.WithLabelValues("run-2", "r")))

	first.Complete(ctx)
	assert.Equal(t, 1, testutil.CollectAndCount(resourceUnitsUsed), "completed run leaves the gauge")
	second.Complete(ctx)
	assert.Equal(t, 0, testutil.CollectAndCount(resourceUnitsUsed))
}

func TestNewEngineRequiresCompleteDamageTable(t *testing.T) {
	pool, err := resources.Initialize(nil)
	require.NoError(t, err)
	_, err = NewEngine(pool, DamageTable{model.SeverityLow: 1}, nil)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = NewEngine(nil, nil, nil)
	assert.Error(t, err)
}
