package logging

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/wildfire/core/model"
)

var base = time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

func sampleRecords() []AuditRecord {
	return []AuditRecord{
		{RunID: "r1", Seq: 1, Record: model.DispatchRecord{Timestamp: base, Severity: model.SeverityHigh, Outcome: model.OutcomeSuccess, Resource: "fire_engines", Cost: 2000, DeploymentMinutes: 60}},
		{RunID: "r1", Seq: 2, Record: model.DispatchRecord{Timestamp: base.Add(time.Hour), Severity: model.SeverityLow, Outcome: model.OutcomeMissed, DamageCost: 50000}},
		{RunID: "r2", Seq: 1, Record: model.DispatchRecord{Timestamp: base.Add(2 * time.Hour), Severity: model.SeverityHigh, Outcome: model.OutcomeMissed, DamageCost: 200000}},
	}
}

func exerciseStore(t *testing.T, store AuditStore) {
	t.Helper()
	ctx := context.Background()
	for _, r := range sampleRecords() {
		require.NoError(t, store.Append(ctx, r))
	}

	all, err := store.Query(ctx, AuditQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	run, err := store.Query(ctx, AuditQuery{RunID: "r1"})
	require.NoError(t, err)
	require.Len(t, run, 2)
	assert.Equal(t, 1, run[0].Seq)
	assert.Equal(t, "fire_engines", run[0].Record.Resource)
	assert.Equal(t, 50000.0, run[1].Record.DamageCost)

	high, err := store.Query(ctx, AuditQuery{Severity: model.SeverityHigh, Outcome: model.OutcomeMissed})
	require.NoError(t, err)
	require.Len(t, high, 1)
	assert.Equal(t, "r2", high[0].RunID)

	window, err := store.Query(ctx, AuditQuery{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, model.SeverityLow, window[0].Record.Severity)
}

func TestJSONLStore(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "audit.jsonl"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}

func TestRotatingJSONLStore(t *testing.T) {
	store, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "logs", "audit.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore("file:audit_test.db?mode=memory&cache=shared")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}

func TestOpenSelectsBackend(t *testing.T) {
	s, err := Open(Config{})
	require.NoError(t, err)
	assert.Nil(t, s)

	c := Config{Backend: "jsonl", Path: filepath.Join(t.TempDir(), "a.jsonl")}
	require.NoError(t, c.Validate())
	s, err = Open(c)
	require.NoError(t, err)
	assert.IsType(t, &JSONLStore{}, s)

	assert.Error(t, Config{Backend: "csv", Path: "x"}.Validate())
	_, err = Open(Config{Backend: "csv"})
	assert.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	c := Config{Backend: "rotating"}
	c.SetDefaults()
	assert.Equal(t, "dispatch_audit.jsonl", c.Path)
	assert.Equal(t, 10, c.MaxSizeMB)
	c = Config{Backend: "sqlite"}
	c.SetDefaults()
	assert.Equal(t, "dispatch_audit.db", c.Path)
}
