package simulator

import (
	"fmt"
	"time"

	"github.com/kilianp07/wildfire/core/model"
)

// Config holds parameters for incident generation.
type Config struct {
	Count int   `json:"count"`
	Seed  int64 `json:"seed"`
	// Start is the timestamp of the earliest possible incident.
	Start time.Time `json:"start"`
	// Span is the window after Start in which incidents occur.
	Span time.Duration `json:"span"`
	// MaxReportDelay bounds how long a fire burns before it is reported.
	MaxReportDelay time.Duration `json:"max_report_delay"`
	// Weights are the relative frequencies of low, medium and high.
	Weights [3]float64 `json:"weights"`
	Bounds  Bounds     `json:"bounds"`
}

// Bounds is the area incidents are placed in.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// SetDefaults fills a one day window over northern California.
func (c *Config) SetDefaults() {
	if c.Count == 0 {
		c.Count = 100
	}
	if c.Start.IsZero() {
		c.Start = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	}
	if c.Span == 0 {
		c.Span = 24 * time.Hour
	}
	if c.MaxReportDelay == 0 {
		c.MaxReportDelay = 2 * time.Hour
	}
	if c.Weights == [3]float64{} {
		c.Weights = [3]float64{0.5, 0.3, 0.2}
	}
	if c.Bounds == (Bounds{}) {
		c.Bounds = Bounds{MinLat: 38.0, MaxLat: 41.0, MinLon: -123.5, MaxLon: -120.0}
	}
}

// Validate checks the generation parameters.
func (c Config) Validate() error {
	if c.Count < 0 {
		return fmt.Errorf("simulator: %w: negative count", model.ErrInvalidInput)
	}
	if c.Span < 0 || c.MaxReportDelay < 0 {
		return fmt.Errorf("simulator: %w: negative duration", model.ErrInvalidInput)
	}
	var sum float64
	for _, w := range c.Weights {
		if w < 0 {
			return fmt.Errorf("simulator: %w: negative severity weight", model.ErrInvalidInput)
		}
		sum += w
	}
	if sum == 0 {
		return fmt.Errorf("simulator: %w: severity weights sum to zero", model.ErrInvalidInput)
	}
	if c.Bounds.MinLat > c.Bounds.MaxLat || c.Bounds.MinLon > c.Bounds.MaxLon {
		return fmt.Errorf("simulator: %w: inverted bounds", model.ErrInvalidInput)
	}
	return nil
}
