// Package runner executes complete dispatch runs: it builds a fresh pool and
// engine per run, wires the shared collaborators and returns the final state
// and report.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kilianp07/wildfire/core/dispatch"
	"github.com/kilianp07/wildfire/core/dispatch/logging"
	"github.com/kilianp07/wildfire/core/logger"
	"github.com/kilianp07/wildfire/core/metrics"
	"github.com/kilianp07/wildfire/core/model"
	"github.com/kilianp07/wildfire/core/queue"
	"github.com/kilianp07/wildfire/core/report"
	"github.com/kilianp07/wildfire/core/resources"
	"github.com/kilianp07/wildfire/internal/eventbus"
)

// Request describes one run. Resources and DamageCosts override the
// runner's defaults for this run only.
type Request struct {
	Incidents   []model.Incident
	Resources   map[string]resources.Spec
	DamageCosts map[string]float64
	// RunID is generated when empty.
	RunID string
}

// Output is everything a completed run produced.
type Output struct {
	Result dispatch.Result
	State  dispatch.State
	Report report.Report
}

// Runner holds the collaborators shared by every run.
type Runner struct {
	Resources   map[string]resources.Spec
	DamageCosts map[string]float64
	Policy      string

	Log     logger.Logger
	Metrics metrics.MetricsSink
	Bus     eventbus.EventBus
	Audit   logging.AuditStore
	// Observers returns the observers attached to each new engine.
	Observers func() []dispatch.Observer

	mu   sync.RWMutex
	last *Output
}

// Run processes req.Incidents to completion on a fresh engine.
func (r *Runner) Run(ctx context.Context, req Request) (Output, error) {
	eng, err := r.newEngine(req)
	if err != nil {
		return Output{}, err
	}
	if err := eng.Process(ctx, req.Incidents); err != nil {
		return Output{}, err
	}
	return r.finish(ctx, eng), nil
}

// Stream dispatches incidents from in, ordered within window, until in is
// closed or ctx is canceled, then completes the run. req.Incidents is ignored.
func (r *Runner) Stream(ctx context.Context, req Request, in <-chan model.Incident, window queue.Window) (Output, error) {
	eng, err := r.newEngine(req)
	if err != nil {
		return Output{}, err
	}
	eng.SetWindow(window)
	runErr := eng.Run(ctx, in)
	// Complete with a fresh context so observers still receive the final
	// report after a shutdown.
	out := r.finish(context.WithoutCancel(ctx), eng)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return out, runErr
	}
	return out, nil
}

func (r *Runner) newEngine(req Request) (*dispatch.Engine, error) {
	custom := mergeSpecs(r.Resources, req.Resources)
	pool, err := resources.Initialize(custom)
	if err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}
	damage, err := dispatch.DefaultDamageTable().Override(r.DamageCosts)
	if err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}
	if damage, err = damage.Override(req.DamageCosts); err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}
	policy, err := dispatch.NewPolicy(r.Policy)
	if err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}

	eng, err := dispatch.NewEngine(pool, damage, r.Log)
	if err != nil {
		return nil, err
	}
	eng.SetRunID(req.RunID)
	eng.SetPolicy(policy)
	if r.Metrics != nil {
		eng.SetMetricsSink(r.Metrics)
	}
	if r.Bus != nil {
		eng.SetBus(r.Bus)
	}
	if r.Audit != nil {
		eng.SetAuditStore(r.Audit)
	}
	if r.Observers != nil {
		for _, o := range r.Observers() {
			eng.AddObserver(o)
		}
	}
	return eng, nil
}

func (r *Runner) finish(ctx context.Context, eng *dispatch.Engine) Output {
	res := eng.Complete(ctx)
	out := Output{Result: res, State: eng.Snapshot(), Report: report.FromResult(res)}
	r.mu.Lock()
	r.last = &out
	r.mu.Unlock()
	return out
}

// Last returns the most recent run, if any.
func (r *Runner) Last() (Output, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return Output{}, false
	}
	return *r.last, true
}

func mergeSpecs(base, over map[string]resources.Spec) map[string]resources.Spec {
	if len(over) == 0 {
		return base
	}
	out := make(map[string]resources.Spec, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
