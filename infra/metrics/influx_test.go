package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/wildfire/core/metrics"
	"github.com/kilianp07/wildfire/core/model"
)

func captureServer(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, strings.TrimSpace(string(data)))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), bodies...)
	}
}

func TestInfluxSink_RecordDispatch(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	ts := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	ev := coremetrics.DispatchEvent{RunID: "r1", Record: model.DispatchRecord{
		Timestamp: ts, Severity: model.SeverityHigh, Outcome: model.OutcomeSuccess,
		Resource: "fire_engines", Cost: 2000, DeploymentMinutes: 60,
	}}
	require.NoError(t, sink.RecordDispatch(ev))

	p := write.NewPointWithMeasurement("dispatch_decision").
		AddTag("run_id", "r1").
		AddTag("severity", "high").
		AddTag("outcome", "SUCCESS").
		AddTag("resource", "fire_engines").
		AddField("cost", 2000.0).
		AddField("deployment_minutes", 60.0).
		SetTime(ts)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	got := bodies()
	require.Len(t, got, 1)
	assert.Equal(t, expected, got[0])
}

func TestInfluxSink_RecordMissedAndSummary(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	ts := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, sink.RecordDispatch(coremetrics.DispatchEvent{RunID: "r1", Record: model.DispatchRecord{
		Timestamp: ts, Severity: model.SeverityLow, Outcome: model.OutcomeMissed, DamageCost: 50000,
	}}))
	require.NoError(t, sink.RecordRunSummary(coremetrics.RunSummary{RunID: "r1", Events: 1, Missed: 1, DamageCost: 50000, Time: ts}))

	got := bodies()
	require.Len(t, got, 2)
	assert.Contains(t, got[0], "damage_cost=50000")
	assert.NotContains(t, got[0], "resource=")
	assert.True(t, strings.HasPrefix(got[1], "dispatch_run,run_id=r1"))
	assert.Contains(t, got[1], "missed=1i")
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	_, isInflux := sink.(*InfluxSink)
	assert.False(t, isInflux, "expected NopSink on failing health check")
	assert.True(t, called, "health endpoint not called")
}
