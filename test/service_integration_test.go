package test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/wildfire/app"
	"github.com/kilianp07/wildfire/config"
	"github.com/kilianp07/wildfire/core/dispatch/logging"
	"github.com/kilianp07/wildfire/core/factory"
	"github.com/kilianp07/wildfire/jobs/audit"
	"github.com/kilianp07/wildfire/simulator"
	"github.com/kilianp07/wildfire/test/util"
)

func post(t *testing.T, url, token string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// TestServiceEndToEnd runs the full service: HTTP API, Prometheus endpoint,
// SQLite audit trail and run store, then replays the audit trail.
func TestServiceEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping service test in short mode")
	}
	dir := t.TempDir()
	apiAddr, err := util.FreeAddr()
	require.NoError(t, err)
	promAddr, err := util.FreeAddr()
	require.NoError(t, err)

	cfg := config.Default()
	cfg.API.Addr = apiAddr
	cfg.API.Token = "secret"
	cfg.Metrics.PrometheusAddr = promAddr
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "prometheus"}}
	cfg.Logging.Backend = "sqlite"
	cfg.Logging.Path = filepath.Join(dir, "audit.db")
	cfg.RunStore.Backend = "sqlite"
	cfg.RunStore.Path = filepath.Join(dir, "runs.db")
	cfg.Snapshot.Dir = filepath.Join(dir, "out")
	require.NoError(t, cfg.Validate())

	svc, err := app.New(cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	defer func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Error("service did not stop")
		}
	}()

	waitCtx, waitCancel := context.WithTimeout(ctx, util.ServerTimeout)
	defer waitCancel()
	require.NoError(t, util.WaitForHTTP(waitCtx, "http://"+apiAddr+"/healthz"))

	incidents, err := simulator.Generate(simulator.Config{Count: 60, Seed: 42})
	require.NoError(t, err)
	var body bytes.Buffer
	require.NoError(t, simulator.WriteJSON(&body, incidents))

	resp := post(t, "http://"+apiAddr+"/api/p1/process_uploaded_data", "secret", body.Bytes())
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		FinalReport struct {
			TotalEvents      int     `json:"total_events"`
			FiresAddressed   int     `json:"fires_addressed"`
			FiresMissed      int     `json:"fires_missed"`
			OperationalCosts float64 `json:"operational_costs"`
			DamageCosts      float64 `json:"damage_costs"`
		} `json:"final_report"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	rep := out.FinalReport
	assert.Equal(t, 60, rep.TotalEvents)
	assert.Equal(t, 60, rep.FiresAddressed+rep.FiresMissed)
	// 28 units in the default catalog.
	assert.Equal(t, 28, rep.FiresAddressed)

	unauth := post(t, "http://"+apiAddr+"/api/p1/process_uploaded_data", "wrong", body.Bytes())
	_ = unauth.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, unauth.StatusCode)

	metricCtx, metricCancel := context.WithTimeout(ctx, util.MetricTimeout)
	defer metricCancel()
	require.NoError(t, util.WaitForMetric(metricCtx, "http://"+promAddr+"/metrics", "wildfire_dispatch_decisions_total"))

	store, err := logging.NewSQLiteStore(cfg.Logging.Path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	runs, err := audit.Replay(context.Background(), store, logging.AuditQuery{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].OK(), runs[0].Problems)
	assert.True(t, audit.Matches(runs[0].Accounting, rep.FiresAddressed, rep.FiresMissed, rep.OperationalCosts, rep.DamageCosts))

	latest, err := svc.Runs().Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runs[0].RunID, latest.RunID)
}
