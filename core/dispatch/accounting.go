package dispatch

import "github.com/kilianp07/wildfire/core/model"

// Statistics counts addressed and missed incidents by severity.
type Statistics struct {
	Addressed model.SeverityCounts `json:"addressed"`
	Missed    model.SeverityCounts `json:"missed"`
}

// Accounting is the running cost ledger of one run. Every field only grows.
type Accounting struct {
	OperationalCost    float64
	MissedResponseCost float64
	Statistics         Statistics
}

// NewAccounting returns a zeroed ledger with every severity present.
func NewAccounting() Accounting {
	return Accounting{Statistics: Statistics{
		Addressed: model.NewSeverityCounts(),
		Missed:    model.NewSeverityCounts(),
	}}
}

func (a *Accounting) addressed(sev model.Severity, cost float64) {
	a.OperationalCost += cost
	a.Statistics.Addressed[sev]++
}

func (a *Accounting) missed(sev model.Severity, damage float64) {
	a.MissedResponseCost += damage
	a.Statistics.Missed[sev]++
}

// Addressed returns the number of incidents that received a resource.
func (a Accounting) Addressed() int { return a.Statistics.Addressed.Total() }

// Missed returns the number of incidents that did not.
func (a Accounting) Missed() int { return a.Statistics.Missed.Total() }

// Clone returns a deep copy.
func (a Accounting) Clone() Accounting {
	a.Statistics.Addressed = a.Statistics.Addressed.Clone()
	a.Statistics.Missed = a.Statistics.Missed.Clone()
	return a
}

// Replay rebuilds a ledger from audit records. Records are trusted as
// written, so the result satisfies the cost identity by construction.
func Replay(records []model.DispatchRecord) Accounting {
	acc := NewAccounting()
	for _, r := range records {
		if r.Succeeded() {
			acc.addressed(r.Severity, r.Cost)
		} else {
			acc.missed(r.Severity, r.DamageCost)
		}
	}
	return acc
}
