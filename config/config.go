// Package config loads the service configuration from a YAML or JSON file
// with K_-prefixed environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/wildfire/core/dispatch"
	"github.com/kilianp07/wildfire/core/dispatch/logging"
	"github.com/kilianp07/wildfire/core/metrics"
	"github.com/kilianp07/wildfire/core/prediction"
	"github.com/kilianp07/wildfire/core/resources"
	"github.com/kilianp07/wildfire/infra/mqtt"
	"github.com/kilianp07/wildfire/infra/runstore"
	"github.com/kilianp07/wildfire/infra/snapshot"
)

type Config struct {
	// Resources overrides or extends the built-in catalog by name.
	Resources map[string]resources.Spec `json:"resources"`
	// DamageCosts overrides the per-severity damage table.
	DamageCosts map[string]float64 `json:"damage_costs"`
	Dispatch    dispatch.Config    `json:"dispatch"`
	Logging     logging.Config     `json:"logging"`
	Snapshot    snapshot.Config    `json:"snapshot"`
	Metrics     metrics.Config     `json:"metrics"`
	MQTT        mqtt.Config        `json:"mqtt"`
	API         APIConfig          `json:"api"`
	Sentry      SentryConfig       `json:"sentry"`
	Prediction  prediction.Config  `json:"prediction"`
	RunStore    runstore.Config    `json:"runstore"`
}

// Load reads path (YAML or JSON) and applies environment overrides such as
// K_DISPATCH__POLICY=severity_aware. An empty path yields the defaults plus
// any environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	c.Dispatch.SetDefaults()
	c.Logging.SetDefaults()
	c.Snapshot.SetDefaults()
	c.MQTT.SetDefaults()
	c.API.SetDefaults()
	c.Prediction.SetDefaults()
	c.RunStore.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if _, err := resources.NewPool(c.Catalog()); err != nil {
		return fmt.Errorf("resources: %w", err)
	}
	if _, err := c.DamageTable(); err != nil {
		return err
	}
	checks := []func() error{
		c.Dispatch.Validate,
		c.Logging.Validate,
		c.Snapshot.Validate,
		c.MQTT.Validate,
		c.API.Validate,
		c.Prediction.Validate,
		c.RunStore.Validate,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// Catalog merges the configured resources over the built-in kinds.
func (c *Config) Catalog() []resources.Spec {
	return resources.Merge(resources.DefaultCatalog(), c.Resources)
}

// DamageTable applies the configured overrides to the default table.
func (c *Config) DamageTable() (dispatch.DamageTable, error) {
	return dispatch.DefaultDamageTable().Override(c.DamageCosts)
}
