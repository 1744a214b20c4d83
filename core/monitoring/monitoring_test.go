package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingMonitor struct {
	errs []error
	tags []map[string]string
}

func (r *recordingMonitor) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}
func (r *recordingMonitor) Recover()            {}
func (r *recordingMonitor) Flush(time.Duration) {}

func TestCaptureExceptionForwards(t *testing.T) {
	rec := &recordingMonitor{}
	Init(rec)
	t.Cleanup(func() { current = NopMonitor{} })

	CaptureException(nil, nil)
	CaptureException(errors.New("snapshot write"), map[string]string{"run_id": "r1"})
	Init(nil)

	assert.Len(t, rec.errs, 1)
	assert.Equal(t, "r1", rec.tags[0]["run_id"])
}
