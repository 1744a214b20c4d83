// Package runstore keeps the final reports of completed dispatch runs so the
// API can serve the latest one and operators can browse history.
package runstore

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/wildfire/core/dispatch"
	"github.com/kilianp07/wildfire/core/report"
)

// ErrNotFound is returned when no run matches.
var ErrNotFound = errors.New("runstore: run not found")

// Run is one completed run.
type Run struct {
	RunID       string        `json:"run_id"`
	Policy      string        `json:"policy"`
	CompletedAt time.Time     `json:"completed_at"`
	Report      report.Report `json:"final_report"`
}

// Store persists completed runs.
type Store interface {
	Save(ctx context.Context, run Run) error
	Get(ctx context.Context, runID string) (Run, error)
	// Latest returns the most recently completed run.
	Latest(ctx context.Context) (Run, error)
	// List returns up to limit runs, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]Run, error)
	Close() error
}

// Recorder adapts a Store to dispatch.RunObserver.
type Recorder struct {
	Store Store
	now   func() time.Time
}

// NewRecorder returns a Recorder saving into s.
func NewRecorder(s Store) *Recorder { return &Recorder{Store: s, now: time.Now} }

// IncidentProcessed is a no-op; only completed runs are stored.
func (r *Recorder) IncidentProcessed(context.Context, dispatch.Step) error { return nil }

// RunCompleted saves the final report.
func (r *Recorder) RunCompleted(ctx context.Context, res dispatch.Result) error {
	return r.Store.Save(ctx, Run{
		RunID:       res.RunID,
		Policy:      res.Policy,
		CompletedAt: r.now().UTC(),
		Report:      report.FromResult(res),
	})
}
