package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/wildfire/core/dispatch"
	"github.com/kilianp07/wildfire/core/dispatch/logging"
	"github.com/kilianp07/wildfire/core/model"
	"github.com/kilianp07/wildfire/core/resources"
	"github.com/kilianp07/wildfire/infra/logger"
)

func TestReplayMatchesEngine(t *testing.T) {
	store, err := logging.NewSQLiteStore(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	at := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	totals := map[string]dispatch.Accounting{}
	for _, id := range []string{"run-b", "run-a"} {
		pool, err := resources.Initialize(map[string]resources.Spec{"fire_engines": {Cost: 2000, TotalUnits: 1}})
		require.NoError(t, err)
		eng, err := dispatch.NewEngine(pool, nil, logger.NopLogger{})
		require.NoError(t, err)
		eng.SetRunID(id)
		eng.SetAuditStore(store)
		var incs []model.Incident
		for i := 0; i < 30; i++ {
			incs = append(incs, model.Incident{OccurredAt: at.Add(time.Duration(i) * time.Minute), ReportedAt: at, Severity: model.Severities[i%3]})
		}
		require.NoError(t, eng.Process(context.Background(), incs))
		totals[id] = eng.Complete(context.Background()).Accounting
	}

	runs, err := Replay(context.Background(), store, logging.AuditQuery{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-a", runs[0].RunID)
	for _, r := range runs {
		assert.True(t, r.OK(), "%s: %v", r.RunID, r.Problems)
		assert.Equal(t, 30, r.Records)
		want := totals[r.RunID]
		assert.True(t, Matches(r.Accounting, want.Addressed(), want.Missed(), want.OperationalCost, want.MissedResponseCost))
	}
}

type sliceStore struct{ recs []logging.AuditRecord }

func (s *sliceStore) Append(_ context.Context, r logging.AuditRecord) error {
	s.recs = append(s.recs, r)
	return nil
}

func (s *sliceStore) Query(_ context.Context, q logging.AuditQuery) ([]logging.AuditRecord, error) {
	var out []logging.AuditRecord
	for _, r := range s.recs {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *sliceStore) Close() error { return nil }

func TestReplayFlagsInconsistencies(t *testing.T) {
	s := &sliceStore{recs: []logging.AuditRecord{
		{RunID: "r", Seq: 1, Record: model.DispatchRecord{Severity: model.SeverityLow, Outcome: model.OutcomeSuccess}},
		{RunID: "r", Seq: 3, Record: model.DispatchRecord{Severity: model.SeverityLow, Outcome: model.OutcomeMissed, Resource: "x"}},
	}}
	runs, err := Replay(context.Background(), s, logging.AuditQuery{RunID: "r"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.False(t, runs[0].OK())
	assert.Len(t, runs[0].Problems, 3)
}
