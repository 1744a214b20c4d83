package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kilianp07/wildfire/core/model"
)

// Publisher sends one payload to an MQTT topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Replay publishes each incident as a JSON object on topic, waiting pace
// between messages. It stops early when ctx is canceled.
func Replay(ctx context.Context, pub Publisher, topic string, incidents []model.Incident, pace time.Duration) (int, error) {
	var ticker *time.Ticker
	if pace > 0 {
		ticker = time.NewTicker(pace)
		defer ticker.Stop()
	}
	for i, inc := range incidents {
		if i > 0 && ticker != nil {
			select {
			case <-ctx.Done():
				return i, ctx.Err()
			case <-ticker.C:
			}
		} else if err := ctx.Err(); err != nil {
			return i, err
		}
		b, err := json.Marshal(inc)
		if err != nil {
			return i, err
		}
		if err := pub.Publish(topic, b); err != nil {
			return i, fmt.Errorf("simulator: publish %s: %w", inc.ID, err)
		}
	}
	return len(incidents), nil
}
