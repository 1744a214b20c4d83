package config

import "fmt"

// APIConfig configures the HTTP API.
type APIConfig struct {
	Addr string `json:"addr"`
	// Token enables bearer authentication when set.
	Token string `json:"token"`
	// MaxBodyMB limits upload sizes.
	MaxBodyMB int `json:"max_body_mb"`
	// ReadTimeoutSeconds bounds request reads.
	ReadTimeoutSeconds int `json:"read_timeout_seconds"`
}

func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.MaxBodyMB == 0 {
		c.MaxBodyMB = 10
	}
	if c.ReadTimeoutSeconds == 0 {
		c.ReadTimeoutSeconds = 15
	}
}

func (c APIConfig) Validate() error {
	if c.MaxBodyMB < 0 || c.ReadTimeoutSeconds < 0 {
		return fmt.Errorf("api: limits must be positive")
	}
	return nil
}
