package test

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/wildfire/app"
	"github.com/kilianp07/wildfire/config"
	"github.com/kilianp07/wildfire/infra/mqtt"
	"github.com/kilianp07/wildfire/simulator"
	"github.com/kilianp07/wildfire/test/util"
)

type collected struct {
	mu      sync.Mutex
	records int
	final   []byte
}

func (c *collected) handle(_ paho.Client, m paho.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case strings.HasSuffix(m.Topic(), "/record"):
		c.records++
	case strings.HasSuffix(m.Topic(), "/final_report"):
		c.final = append([]byte(nil), m.Payload()...)
	}
}

func (c *collected) snapshot() (int, []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.records, c.final
}

// TestStreamDispatchWithMQTTContainer publishes generated incidents to the
// intake topic of a running service and checks the snapshots it publishes.
func TestStreamDispatchWithMQTTContainer(t *testing.T) {
	if os.Getenv("E2E") != "1" {
		t.Skip("set E2E=1 to run container tests")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed")
	}
	ctx := context.Background()
	broker, cleanup, err := util.StartMosquitto(ctx)
	if err != nil {
		t.Skipf("mosquitto: %v", err)
	}
	defer cleanup()

	got := &collected{}
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("observer"))
	tok := sub.Connect()
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())
	defer sub.Disconnect(100)
	tok = sub.Subscribe("wildfire/#", 1, got.handle)
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())

	apiAddr, err := util.FreeAddr()
	require.NoError(t, err)
	cfg := config.Default()
	cfg.API.Addr = apiAddr
	cfg.MQTT.Broker = broker
	cfg.MQTT.ClientID = "wildfire-e2e"
	cfg.MQTT.IntakeTopic = "intake/incidents"
	cfg.MQTT.QoS = map[string]byte{"snapshot": 1, "intake": 1}
	cfg.Dispatch.Window.MaxSize = 4
	require.NoError(t, cfg.Validate())

	svc, err := app.New(cfg)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- svc.Run(runCtx) }()

	waitCtx, waitCancel := context.WithTimeout(ctx, util.ServerTimeout)
	defer waitCancel()
	require.NoError(t, util.WaitForHTTP(waitCtx, "http://"+apiAddr+"/healthz"))

	pub, err := mqtt.NewPahoClient(mqtt.Config{Broker: broker, ClientID: "generator"})
	require.NoError(t, err)
	defer pub.Disconnect()
	incidents, err := simulator.Generate(simulator.Config{Count: 12, Seed: 9})
	require.NoError(t, err)
	n, err := simulator.Replay(ctx, pub, cfg.MQTT.IntakeTopic, incidents, 10*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, 12, n)

	require.Eventually(t, func() bool {
		records, _ := got.snapshot()
		return records == 12
	}, 10*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("service did not stop")
	}

	require.Eventually(t, func() bool {
		_, final := got.snapshot()
		return final != nil
	}, 10*time.Second, 50*time.Millisecond)
	_, final := got.snapshot()
	var env struct {
		Payload struct {
			TotalEvents int `json:"total_events"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(final, &env))
	assert.Equal(t, 12, env.Payload.TotalEvents)
}
