package dispatch

import (
	"context"

	"github.com/kilianp07/wildfire/core/model"
)

// Run dispatches a live incident stream until in is closed or ctx is done.
// Incidents are buffered by the configured window and each flushed batch is
// decided in queue order, so severity tie-breaking holds within a window.
// Invalid incidents are logged and skipped instead of rejecting the batch.
// On cancellation the incidents still held by the window are decided before
// Run returns, so every accepted incident gets a record.
func (e *Engine) Run(ctx context.Context, in <-chan model.Incident) error {
	for batch := range e.window.Batches(ctx, in) {
		pctx := ctx
		if ctx.Err() != nil {
			// audit and observer writes must outlive the canceled stream
			pctx = context.WithoutCancel(ctx)
		}
		valid := batch[:0:0]
		for _, inc := range batch {
			if err := inc.Validate(); err != nil {
				e.logger.Warnf("run %s: dropping incident %q: %v", e.runID, inc.ID, err)
				continue
			}
			valid = append(valid, inc)
		}
		if len(valid) == 0 {
			continue
		}
		if err := e.Process(pctx, valid); err != nil {
			e.report(err)
		}
	}
	return ctx.Err()
}
