// Package snapshot writes run progress to JSON files: system_state.json and
// event_log.json while the run progresses and once more at the end, along
// with final_report.json.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kilianp07/wildfire/core/dispatch"
	"github.com/kilianp07/wildfire/core/model"
	"github.com/kilianp07/wildfire/core/report"
)

const (
	StateFile  = "system_state.json"
	EventsFile = "event_log.json"
	ReportFile = "final_report.json"
)

// Config controls the file observer.
type Config struct {
	// Dir receives the files. The service only writes snapshots when set.
	Dir string `json:"dir"`
	// Interval writes the state files every Interval incidents. The default
	// of 1 persists after every incident; a negative value writes only at
	// run completion.
	Interval int `json:"interval"`
}

// SetDefaults applies the per-incident interval.
func (c *Config) SetDefaults() {
	if c.Interval == 0 {
		c.Interval = 1
	}
}

// Validate is a no-op; every interval is meaningful.
func (c Config) Validate() error { return nil }

// FileWriter is a dispatch observer persisting snapshots to disk. Files are
// replaced atomically so readers never see a partial document.
type FileWriter struct {
	cfg Config

	mu     sync.Mutex
	events []model.DispatchRecord
}

// NewFileWriter creates the output directory.
func NewFileWriter(cfg Config) (*FileWriter, error) {
	cfg.SetDefaults()
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return &FileWriter{cfg: cfg}, nil
}

// IncidentProcessed implements dispatch.Observer.
func (w *FileWriter) IncidentProcessed(_ context.Context, step dispatch.Step) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, step.Record)
	if w.cfg.Interval < 0 || step.Seq%w.cfg.Interval != 0 {
		return nil
	}
	return w.flush(step.State())
}

// RunCompleted writes the final state, the full event log and the report,
// whatever the interval skipped.
func (w *FileWriter) RunCompleted(_ context.Context, res dispatch.Result) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events[:0], res.Records...)
	if err := w.flush(res.State()); err != nil {
		return err
	}
	return w.writeJSON(ReportFile, report.FromResult(res))
}

func (w *FileWriter) flush(st dispatch.State) error {
	if err := w.writeJSON(StateFile, st); err != nil {
		return err
	}
	return w.writeJSON(EventsFile, w.events)
}

func (w *FileWriter) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot: encode %s: %w", name, err)
	}
	path := filepath.Join(w.cfg.Dir, name)
	tmp, err := os.CreateTemp(w.cfg.Dir, name+".*")
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("snapshot: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}
