package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/wildfire/core/dispatch"
	"github.com/kilianp07/wildfire/core/model"
	"github.com/kilianp07/wildfire/core/report"
)

// Envelope wraps every message published by SnapshotPublisher.
type Envelope struct {
	MessageID string    `json:"message_id"`
	RunID     string    `json:"run_id"`
	Seq       int       `json:"seq,omitempty"`
	SentAt    time.Time `json:"sent_at"`
	Payload   any       `json:"payload"`
}

type stepPayload struct {
	Record model.DispatchRecord `json:"record"`
	State  *dispatch.State      `json:"system_state,omitempty"`
}

// SnapshotPublisher streams run progress to MQTT. Every processed incident
// produces a message on <prefix>/<run>/record; every Interval-th incident
// also carries the full system state. The final report goes to
// <prefix>/<run>/final_report.
type SnapshotPublisher struct {
	pub      Publisher
	prefix   string
	interval int
	now      func() time.Time
}

// NewSnapshotPublisher returns a publisher. interval <= 0 disables state
// snapshots and only records are sent.
func NewSnapshotPublisher(pub Publisher, prefix string, interval int) *SnapshotPublisher {
	if prefix == "" {
		prefix = "wildfire"
	}
	return &SnapshotPublisher{pub: pub, prefix: prefix, interval: interval, now: time.Now}
}

func (s *SnapshotPublisher) topic(runID, leaf string) string {
	return fmt.Sprintf("%s/%s/%s", s.prefix, runID, leaf)
}

func (s *SnapshotPublisher) send(topic string, env Envelope) error {
	env.MessageID = uuid.NewString()
	env.SentAt = s.now().UTC()
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("mqtt: encode envelope: %w", err)
	}
	return s.pub.Publish(topic, data)
}

// IncidentProcessed implements dispatch.Observer.
func (s *SnapshotPublisher) IncidentProcessed(_ context.Context, step dispatch.Step) error {
	p := stepPayload{Record: step.Record}
	if s.interval > 0 && step.Seq%s.interval == 0 {
		st := step.State()
		p.State = &st
	}
	return s.send(s.topic(step.RunID, "record"), Envelope{RunID: step.RunID, Seq: step.Seq, Payload: p})
}

// RunCompleted implements dispatch.RunObserver.
func (s *SnapshotPublisher) RunCompleted(_ context.Context, res dispatch.Result) error {
	return s.send(s.topic(res.RunID, "final_report"), Envelope{RunID: res.RunID, Payload: report.FromResult(res)})
}
