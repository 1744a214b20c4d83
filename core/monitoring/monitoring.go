package monitoring

import "time"

// Monitor reports faults that must not interrupt a run, such as a failed
// snapshot write or an unreachable metrics backend.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init sets the process-wide monitor. A nil monitor is ignored.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// CaptureException records err with optional tags such as run_id.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	current.CaptureException(err, tags)
}

// Recover captures panics in goroutines and re-panics.
func Recover() { current.Recover() }

// Flush flushes buffered events.
func Flush(d time.Duration) { current.Flush(d) }
