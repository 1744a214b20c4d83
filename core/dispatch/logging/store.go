package logging

import (
	"context"
	"time"

	"github.com/kilianp07/wildfire/core/model"
)

// AuditRecord is one dispatch decision tagged with the run that produced it.
type AuditRecord struct {
	RunID  string               `json:"run_id"`
	Seq    int                  `json:"seq"`
	Record model.DispatchRecord `json:"record"`
}

// AuditQuery filters stored records. Zero fields match everything.
type AuditQuery struct {
	RunID    string
	Start    time.Time
	End      time.Time
	Severity model.Severity
	Outcome  model.Outcome
}

// Matches reports whether rec satisfies every non-zero filter of q.
func (q AuditQuery) Matches(rec AuditRecord) bool {
	if q.RunID != "" && rec.RunID != q.RunID {
		return false
	}
	ts := rec.Record.Timestamp
	if !q.Start.IsZero() && ts.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && ts.After(q.End) {
		return false
	}
	if q.Severity != 0 && rec.Record.Severity != q.Severity {
		return false
	}
	if q.Outcome != "" && rec.Record.Outcome != q.Outcome {
		return false
	}
	return true
}

// AuditStore persists AuditRecords and supports querying.
type AuditStore interface {
	Append(ctx context.Context, rec AuditRecord) error
	Query(ctx context.Context, q AuditQuery) ([]AuditRecord, error)
	Close() error
}
