package runstore

import "fmt"

// Config selects the run history backend.
type Config struct {
	// Backend is "memory" (default) or "sqlite".
	Backend string `json:"backend"`
	Path    string `json:"path"`
	// MaxRuns bounds the memory backend.
	MaxRuns int `json:"max_runs"`
}

// SetDefaults applies defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Backend == "sqlite" && c.Path == "" {
		c.Path = "dispatch_runs.db"
	}
	if c.Backend == "memory" && c.MaxRuns == 0 {
		c.MaxRuns = 100
	}
}

// Validate checks the backend name.
func (c Config) Validate() error {
	switch c.Backend {
	case "", "memory", "sqlite":
		return nil
	default:
		return fmt.Errorf("runstore: unknown backend %q", c.Backend)
	}
}

// Open returns the configured store.
func Open(c Config) (Store, error) {
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Backend == "sqlite" {
		return NewSQLiteStore(c.Path)
	}
	return NewMemoryStore(c.MaxRuns), nil
}
