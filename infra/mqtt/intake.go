package mqtt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/wildfire/core/ingest"
	"github.com/kilianp07/wildfire/core/model"
)

var intakeMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "wildfire_mqtt_intake_messages_total",
	Help: "Incident messages received over MQTT by result",
}, []string{"result"})

func init() {
	prometheus.MustRegister(intakeMessages)
}

// DecodeIncidents parses an intake payload: a single incident object, an
// array of incidents, or {"events": [...]}.
func DecodeIncidents(payload []byte) ([]model.Incident, error) {
	payload = bytes.TrimSpace(payload)
	incs, err := ingest.ReadJSON(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	if len(incs) > 0 || len(payload) == 0 || payload[0] != '{' {
		return incs, nil
	}
	var rec ingest.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("mqtt: %w: %v", model.ErrInvalidInput, err)
	}
	if rec.Timestamp == "" {
		return nil, nil
	}
	inc, err := rec.Incident()
	if err != nil {
		return nil, err
	}
	return []model.Incident{inc}, nil
}

// Incidents subscribes to topic and streams decoded incidents until ctx is
// canceled, at which point the subscription is dropped and the channel closed.
// Malformed messages are logged and counted, never forwarded.
func (p *PahoClient) Incidents(ctx context.Context, topic string, buffer int) (<-chan model.Incident, error) {
	out := make(chan model.Incident, buffer)
	var mu sync.Mutex
	closed := false

	handler := func(_ paho.Client, msg paho.Message) {
		incs, err := DecodeIncidents(msg.Payload())
		if err != nil {
			intakeMessages.WithLabelValues("invalid").Inc()
			p.logger.Warnf("dropping intake message on %s: %v", msg.Topic(), err)
			return
		}
		intakeMessages.WithLabelValues("accepted").Inc()
		mu.Lock()
		defer mu.Unlock()
		for _, inc := range incs {
			if closed {
				return
			}
			select {
			case out <- inc:
			case <-ctx.Done():
				return
			}
		}
	}
	if token := p.cli.Subscribe(topic, p.intakeQoS, handler); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt: subscribe %s: %w", topic, token.Error())
	}
	p.logger.Infof("listening for incidents on %s", topic)

	go func() {
		<-ctx.Done()
		if token := p.cli.Unsubscribe(topic); token.Wait() && token.Error() != nil {
			p.logger.Warnf("unsubscribe %s: %v", topic, token.Error())
		}
		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()
	return out, nil
}
