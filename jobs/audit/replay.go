// Package audit rebuilds run accounting from a stored audit trail.
package audit

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/kilianp07/wildfire/core/dispatch"
	"github.com/kilianp07/wildfire/core/dispatch/logging"
	"github.com/kilianp07/wildfire/core/model"
)

// RunAudit is the recomputed ledger of one run.
type RunAudit struct {
	RunID      string
	Records    int
	Accounting dispatch.Accounting
	// Problems lists identity violations; empty means the trail is consistent.
	Problems []string
}

// OK reports whether the run passed every check.
func (r RunAudit) OK() bool { return len(r.Problems) == 0 }

// Replay queries store and recomputes accounting per run. Runs are returned
// sorted by ID.
func Replay(ctx context.Context, store logging.AuditStore, q logging.AuditQuery) ([]RunAudit, error) {
	recs, err := store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("audit: query: %w", err)
	}
	byRun := make(map[string][]logging.AuditRecord)
	for _, r := range recs {
		byRun[r.RunID] = append(byRun[r.RunID], r)
	}
	ids := make([]string, 0, len(byRun))
	for id := range byRun {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]RunAudit, 0, len(ids))
	for _, id := range ids {
		out = append(out, verify(id, byRun[id]))
	}
	return out, nil
}

func verify(runID string, recs []logging.AuditRecord) RunAudit {
	ra := RunAudit{RunID: runID, Records: len(recs)}
	plain := make([]model.DispatchRecord, 0, len(recs))
	for i, r := range recs {
		if r.Seq != i+1 {
			ra.Problems = append(ra.Problems, fmt.Sprintf("seq %d at position %d", r.Seq, i+1))
		}
		rec := r.Record
		switch rec.Outcome {
		case model.OutcomeSuccess:
			if rec.Resource == "" || rec.DamageCost != 0 {
				ra.Problems = append(ra.Problems, fmt.Sprintf("seq %d: SUCCESS must name a resource and carry no damage", r.Seq))
			}
		case model.OutcomeMissed:
			if rec.Resource != "" || rec.Cost != 0 {
				ra.Problems = append(ra.Problems, fmt.Sprintf("seq %d: MISSED must not carry a resource or cost", r.Seq))
			}
		default:
			ra.Problems = append(ra.Problems, fmt.Sprintf("seq %d: unknown outcome %q", r.Seq, rec.Outcome))
		}
		plain = append(plain, rec)
	}
	ra.Accounting = dispatch.Replay(plain)
	return ra
}

// Matches compares a replayed ledger with the totals a run reported.
func Matches(acc dispatch.Accounting, addressed, missed int, operational, damage float64) bool {
	return acc.Addressed() == addressed && acc.Missed() == missed &&
		math.Abs(acc.OperationalCost-operational) < 1e-6 &&
		math.Abs(acc.MissedResponseCost-damage) < 1e-6
}
