// Package simulator produces synthetic incident streams for load tests,
// demos and scenario files. Generation is deterministic for a given seed.
package simulator

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/kilianp07/wildfire/core/model"
)

// Generate returns cfg.Count incidents sorted by occurrence time. IDs are
// fire0001..fireNNNN in that order.
func Generate(cfg Config) ([]model.Incident, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	out := make([]model.Incident, cfg.Count)
	for i := range out {
		occurred := cfg.Start.Add(randDuration(rng, cfg.Span))
		out[i] = model.Incident{
			OccurredAt: occurred,
			ReportedAt: occurred.Add(-randDuration(rng, cfg.MaxReportDelay)),
			Location: model.Location{
				Lat: round(cfg.Bounds.MinLat + rng.Float64()*(cfg.Bounds.MaxLat-cfg.Bounds.MinLat)),
				Lon: round(cfg.Bounds.MinLon + rng.Float64()*(cfg.Bounds.MaxLon-cfg.Bounds.MinLon)),
			},
			Severity: pickSeverity(rng, cfg.Weights),
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	for i := range out {
		out[i].ID = fmt.Sprintf("fire%04d", i+1)
	}
	return out, nil
}

// randDuration returns a whole-second duration in [0, span].
func randDuration(rng *rand.Rand, span time.Duration) time.Duration {
	secs := int64(span / time.Second)
	if secs <= 0 {
		return 0
	}
	return time.Duration(rng.Int63n(secs+1)) * time.Second
}

func pickSeverity(rng *rand.Rand, w [3]float64) model.Severity {
	x := rng.Float64() * (w[0] + w[1] + w[2])
	for i, s := range model.Severities {
		if x < w[i] {
			return s
		}
		x -= w[i]
	}
	return model.SeverityHigh
}

func round(v float64) float64 {
	return float64(int64(v*1e4)) / 1e4
}
