package prediction

import (
	"context"
	"math"
	"time"
)

// Unloaded is the predictor used when no model is configured.
type Unloaded struct{}

func (Unloaded) Predict(context.Context, Request) ([]Candidate, error) {
	return nil, ErrModelNotLoaded
}

// Mock produces a deterministic hourly forecast for every requested location.
// Probability oscillates around Base with the given Amplitude over a day.
type Mock struct {
	Base      float64 `json:"base"`
	Amplitude float64 `json:"amplitude"`
}

func (m Mock) Predict(ctx context.Context, req Request) ([]Candidate, error) {
	base := m.Base
	if base == 0 {
		base = 0.85
	}
	var out []Candidate
	for h := 0; h < req.Hours; h++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		at := req.Start.Add(time.Duration(h) * time.Hour)
		phase := 2 * math.Pi * float64(at.UTC().Hour()) / 24
		for i, loc := range req.Locations {
			p := base + m.Amplitude*math.Sin(phase+float64(i))
			p = math.Max(0, math.Min(1, p))
			out = append(out, Candidate{
				Time:     at,
				Location: loc,
				Risk: RiskFactors{
					FireProbability: p,
					Temperature:     20 + 15*p,
					Humidity:        60 - 40*p,
					WindSpeed:       5 + 20*p,
					FWI:             50 * p,
					DSR:             10 * p * p,
				},
			})
		}
	}
	return out, nil
}
