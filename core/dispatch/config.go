package dispatch

import (
	"fmt"
	"time"

	"github.com/kilianp07/wildfire/core/queue"
)

// Config defines dispatch-related settings.
type Config struct {
	// Policy names the candidate selection policy: "cheapest" or "severity_aware".
	Policy string       `json:"policy"`
	Window WindowConfig `json:"window"`
}

// WindowConfig bounds the buffer used to order a live incident stream.
type WindowConfig struct {
	MaxSize     int `json:"max_size"`
	MaxWaitMsec int `json:"max_wait_ms"`
}

// SetDefaults applies the cheapest policy and a 16 incident / 500ms window.
func (c *Config) SetDefaults() {
	if c.Policy == "" {
		c.Policy = PolicyCheapest
	}
	if c.Window.MaxSize <= 0 {
		c.Window.MaxSize = 16
	}
	if c.Window.MaxWaitMsec <= 0 {
		c.Window.MaxWaitMsec = 500
	}
}

// Validate checks the policy name against the registered policies.
func (c Config) Validate() error {
	if _, err := NewPolicy(c.Policy); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	if c.Window.MaxSize < 0 || c.Window.MaxWaitMsec < 0 {
		return fmt.Errorf("dispatch: window bounds must be positive")
	}
	return nil
}

// QueueWindow converts the settings into a stream window.
func (c WindowConfig) QueueWindow() queue.Window {
	return queue.Window{
		MaxSize: c.MaxSize,
		MaxWait: time.Duration(c.MaxWaitMsec) * time.Millisecond,
	}
}
