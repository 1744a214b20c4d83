package dispatch

import (
	"context"

	"github.com/kilianp07/wildfire/core/model"
)

// Step describes one processed incident. State builds a full snapshot on
// demand, so observers that only need the record pay nothing for it.
type Step struct {
	RunID      string
	Seq        int
	Incident   model.Incident
	Record     model.DispatchRecord
	Accounting Accounting
	state      func() State
}

// State returns the system snapshot as of this step.
func (s Step) State() State {
	if s.state == nil {
		return State{}
	}
	return s.state()
}

// Observer is notified after every processed incident. Errors are reported
// but never change dispatch outcomes.
type Observer interface {
	IncidentProcessed(ctx context.Context, step Step) error
}

// RunObserver is implemented by observers that also want the final result.
type RunObserver interface {
	RunCompleted(ctx context.Context, res Result) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, step Step) error

func (f ObserverFunc) IncidentProcessed(ctx context.Context, step Step) error { return f(ctx, step) }
