package queue

import (
	"context"
	"time"

	"github.com/kilianp07/wildfire/core/model"
)

// Window buffers a live incident stream and emits sorted batches. A batch is
// flushed when it reaches MaxSize incidents, when MaxWait has elapsed since
// its first incident, or when the input closes. Ordering holds within a
// batch only: a wider window trades latency for correct tie-breaking.
type Window struct {
	MaxSize int
	MaxWait time.Duration
}

// Batches consumes in until it is closed or ctx is done and returns a channel
// of ordered batches. When ctx is done, incidents already accepted (buffered
// or queued on in) are emitted as a final batch rather than dropped. Every
// batch is sent unconditionally, so the caller must drain the output channel;
// it is closed after the final flush.
func (w Window) Batches(ctx context.Context, in <-chan model.Incident) <-chan []model.Incident {
	size := w.MaxSize
	if size <= 0 {
		size = 1
	}
	out := make(chan []model.Incident)
	go func() {
		defer close(out)
		var (
			buf   []model.Incident
			timer *time.Timer
			tick  <-chan time.Time
		)
		flush := func() {
			if timer != nil {
				timer.Stop()
				timer, tick = nil, nil
			}
			if len(buf) == 0 {
				return
			}
			batch := Order(buf)
			buf = nil
			out <- batch
		}
		for {
			select {
			case inc, ok := <-in:
				if !ok {
					flush()
					return
				}
				buf = append(buf, inc)
				if len(buf) == 1 && w.MaxWait > 0 {
					timer = time.NewTimer(w.MaxWait)
					tick = timer.C
				}
				if len(buf) >= size {
					flush()
				}
			case <-tick:
				timer, tick = nil, nil
				flush()
			case <-ctx.Done():
				buf = append(buf, drain(in)...)
				flush()
				return
			}
		}
	}()
	return out
}

// drain returns the incidents already queued on in without blocking.
func drain(in <-chan model.Incident) []model.Incident {
	var rest []model.Incident
	for {
		select {
		case inc, ok := <-in:
			if !ok {
				return rest
			}
			rest = append(rest, inc)
		default:
			return rest
		}
	}
}
