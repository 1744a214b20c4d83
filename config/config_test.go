package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kilianp07/wildfire/core/dispatch"
	"github.com/kilianp07/wildfire/core/model"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `resources:
  fire_engines:
    deployment_time_minutes: 50
    cost: 1800
    total_units: 12
  water_bombers:
    deployment_time_minutes: 40
    cost: 9000
    total_units: 1
damage_costs:
  high: 250000
dispatch:
  policy: severity_aware
  window:
    max_size: 4
logging:
  backend: sqlite
  path: audit.db
snapshot:
  dir: out
  interval: 5
metrics:
  sinks:
    - type: "nop"
  prometheus_addr: ":9100"
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "cli"
  username: "user"
  password: "pass"
api:
  addr: ":9000"
  token: secret
prediction:
  module:
    type: mock
    conf:
      base: 0.5
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "cli"},
		{"username", cfg.MQTT.Username, "user"},
		{"topic_prefix default", cfg.MQTT.TopicPrefix, "wildfire"},
		{"policy", cfg.Dispatch.Policy, dispatch.PolicySeverityAware},
		{"window.max_size", cfg.Dispatch.Window.MaxSize, 4},
		{"window.max_wait_ms default", cfg.Dispatch.Window.MaxWaitMsec, 500},
		{"logging.backend", cfg.Logging.Backend, "sqlite"},
		{"snapshot.interval", cfg.Snapshot.Interval, 5},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"prometheus_addr", cfg.Metrics.PrometheusAddr, ":9100"},
		{"api.addr", cfg.API.Addr, ":9000"},
		{"api.token", cfg.API.Token, "secret"},
		{"prediction.type", cfg.Prediction.Module.Type, "mock"},
		{"prediction.threshold default", cfg.Prediction.Threshold, 0.90},
		{"runstore default", cfg.RunStore.Backend, "memory"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}

	cat := cfg.Catalog()
	if len(cat) != 6 || cat[1].Name != "fire_engines" || cat[1].Cost != 1800 || cat[5].Name != "water_bombers" {
		t.Errorf("catalog merge wrong: %+v", cat)
	}
	dmg, err := cfg.DamageTable()
	if err != nil {
		t.Fatalf("damage table: %v", err)
	}
	if dmg[model.SeverityHigh] != 250000 || dmg[model.SeverityLow] != 50000 {
		t.Errorf("damage override wrong: %v", dmg)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"dispatch":{"policy":"cheapest"}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("K_DISPATCH__POLICY", "severity_aware")
	t.Setenv("K_API__ADDR", ":7000")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Dispatch.Policy != dispatch.PolicySeverityAware {
		t.Errorf("env override not applied: %s", cfg.Dispatch.Policy)
	}
	if cfg.API.Addr != ":7000" {
		t.Errorf("env override not applied: %s", cfg.API.Addr)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Dispatch.Policy != dispatch.PolicyCheapest || cfg.API.Addr != ":8080" || cfg.Logging.Backend != "" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.Catalog()) != 5 {
		t.Errorf("expected built-in catalog")
	}
	if !reflect.DeepEqual(Default(), cfg) {
		t.Errorf("Default differs from Load(\"\")")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"bad_policy.yaml": "dispatch:\n  policy: random\n",
		"bad_damage.yaml": "damage_costs:\n  extreme: 10\n",
		"bad_store.yaml":  "logging:\n  backend: redis\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	path := filepath.Join(dir, "bad_damage.yaml")
	if _, err := Load(path); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("damage error should be invalid input: %v", err)
	}
	if _, err := Load(filepath.Join(dir, "config.toml")); err == nil {
		t.Errorf("expected unsupported format error")
	}
}
