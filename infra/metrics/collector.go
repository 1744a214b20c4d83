package metrics

import (
	"context"
	"sync"

	"github.com/kilianp07/wildfire/core/events"
	"github.com/kilianp07/wildfire/internal/eventbus"
)

// RunTracker follows run lifecycle events from the bus and keeps the latest
// completion per run.
type RunTracker struct {
	mu       sync.RWMutex
	active   map[string]events.RunStarted
	complete map[string]events.RunCompleted
	seen     map[string]int
}

// NewRunTracker returns an empty tracker.
func NewRunTracker() *RunTracker {
	return &RunTracker{
		active:   make(map[string]events.RunStarted),
		complete: make(map[string]events.RunCompleted),
		seen:     make(map[string]int),
	}
}

// Active returns the number of runs started but not completed.
func (t *RunTracker) Active() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.active)
}

// Processed returns the number of IncidentProcessed events seen for a run.
func (t *RunTracker) Processed(runID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.seen[runID]
}

// Completed returns the completion event for a run.
func (t *RunTracker) Completed(runID string) (events.RunCompleted, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.complete[runID]
	return c, ok
}

func (t *RunTracker) handle(ev eventbus.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch e := ev.(type) {
	case events.RunStarted:
		t.active[e.RunID] = e
	case events.IncidentProcessed:
		t.seen[e.RunID]++
	case events.RunCompleted:
		delete(t.active, e.RunID)
		t.complete[e.RunID] = e
	}
}

// StartEventCollector subscribes to the event bus and feeds tracker until the
// context is canceled or the bus is closed. It returns once subscribed.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, tracker *RunTracker) {
	if bus == nil || tracker == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				tracker.handle(ev)
			}
		}
	}()
}
