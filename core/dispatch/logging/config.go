package logging

import "fmt"

// Config selects and tunes the audit store backend.
type Config struct {
	// Backend is "jsonl", "rotating" or "sqlite". Empty disables auditing.
	Backend string `json:"backend"`
	Path    string `json:"path"`
	// Rotation settings, used by the rotating backend only.
	MaxSizeMB  int `json:"max_size_mb"`
	MaxBackups int `json:"max_backups"`
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults fills the path for the selected backend.
func (c *Config) SetDefaults() {
	if c.Backend == "rotating" && c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
	if c.Path != "" {
		return
	}
	switch c.Backend {
	case "sqlite":
		c.Path = "dispatch_audit.db"
	case "jsonl", "rotating":
		c.Path = "dispatch_audit.jsonl"
	}
}

// Validate checks the backend name.
func (c Config) Validate() error {
	switch c.Backend {
	case "", "jsonl", "rotating", "sqlite":
	default:
		return fmt.Errorf("logging: unknown backend %q", c.Backend)
	}
	if c.Backend != "" && c.Path == "" {
		return fmt.Errorf("logging: path is required")
	}
	return nil
}

// Open builds the configured store. It returns nil, nil when auditing is disabled.
func Open(c Config) (AuditStore, error) {
	switch c.Backend {
	case "":
		return nil, nil
	case "jsonl":
		return NewJSONLStore(c.Path)
	case "rotating":
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	case "sqlite":
		return NewSQLiteStore(c.Path)
	default:
		return nil, fmt.Errorf("logging: unknown backend %q", c.Backend)
	}
}
