// Package queue orders incidents for dispatch.
//
// Incidents are decided by occurrence time, earliest first. Incidents that
// share a timestamp are decided by severity, HIGH before MEDIUM before LOW.
// The sort is stable so equal keys keep their input order.
package queue

import (
	"sort"

	"github.com/kilianp07/wildfire/core/model"
)

// Less reports whether a must be dispatched before b.
func Less(a, b model.Incident) bool {
	if !a.OccurredAt.Equal(b.OccurredAt) {
		return a.OccurredAt.Before(b.OccurredAt)
	}
	return a.Severity.Priority() > b.Severity.Priority()
}

// Order returns a sorted copy of incidents. The input slice is not modified.
func Order(incidents []model.Incident) []model.Incident {
	out := append([]model.Incident(nil), incidents...)
	sort.SliceStable(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}
