// Package events defines the run lifecycle events emitted on the event bus.
//
// Available event types:
//   - RunStarted: a batch or stream run began
//   - IncidentProcessed: one incident reached SUCCESS or MISSED
//   - RunCompleted: the run finished and its totals are final
package events
