package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/wildfire/core/model"
	"github.com/kilianp07/wildfire/core/queue"
	"github.com/kilianp07/wildfire/core/resources"
)

func TestRunOrdersWithinWindow(t *testing.T) {
	eng := newEngine(t, []resources.Spec{{Name: "only", Cost: 1, TotalUnits: 1}})
	eng.SetWindow(queue.Window{MaxSize: 3, MaxWait: time.Second})

	in := make(chan model.Incident, 3)
	in <- incident("low", t0, model.SeverityLow)
	in <- model.Incident{ID: "bad", OccurredAt: t0, ReportedAt: t0}
	in <- incident("high", t0, model.SeverityHigh)
	close(in)

	require.NoError(t, eng.Run(context.Background(), in))
	recs := eng.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "high", recs[0].IncidentID)
	assert.Equal(t, model.OutcomeSuccess, recs[0].Outcome)
	assert.Equal(t, model.OutcomeMissed, recs[1].Outcome)
}

func TestRunStopsOnCancel(t *testing.T) {
	eng := newEngine(t, resources.DefaultCatalog())
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan model.Incident)
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx, in) }()
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunDecidesBufferedIncidentsOnCancel(t *testing.T) {
	eng := newEngine(t, resources.DefaultCatalog())
	eng.SetWindow(queue.Window{MaxSize: 16, MaxWait: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan model.Incident)
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx, in) }()

	// unbuffered sends return once the window holds the incident
	in <- incident("low", t0, model.SeverityLow)
	in <- incident("high", t0, model.SeverityHigh)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	recs := eng.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "high", recs[0].IncidentID)
	assert.Equal(t, "low", recs[1].IncidentID)
	assert.Equal(t, 2, eng.Accounting().Addressed())
}
