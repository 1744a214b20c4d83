package prediction

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/wildfire/core/factory"
	"github.com/kilianp07/wildfire/core/model"
)

// DefaultThreshold keeps only high-confidence predictions.
const DefaultThreshold = 0.90

// ErrModelNotLoaded is returned when predicting before a model is available.
var ErrModelNotLoaded = errors.New("prediction: model not loaded")

// RiskFactors are the model inputs reported alongside a prediction.
type RiskFactors struct {
	FireProbability float64 `json:"fire_probability"`
	Temperature     float64 `json:"temperature"`
	Humidity        float64 `json:"humidity"`
	WindSpeed       float64 `json:"wind_speed"`
	FWI             float64 `json:"fwi"`
	DSR             float64 `json:"dsr"`
}

// Candidate is one forecast point.
type Candidate struct {
	Time     time.Time      `json:"time"`
	Location model.Location `json:"location"`
	Risk     RiskFactors    `json:"risk_factors"`
}

// Request bounds a forecast.
type Request struct {
	Start     time.Time        `json:"start"`
	Hours     int              `json:"hours"`
	Locations []model.Location `json:"locations"`
}

// Predictor forecasts fire probability.
type Predictor interface {
	Predict(ctx context.Context, req Request) ([]Candidate, error)
}

// HighRisk returns candidates at or above threshold ordered by time.
func HighRisk(cands []Candidate, threshold float64) []Candidate {
	var out []Candidate
	for _, c := range cands {
		if c.Risk.FireProbability >= threshold {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// SeverityFor maps a probability above the threshold onto a severity band:
// the top third of the remaining range is HIGH, the middle third MEDIUM.
func SeverityFor(p, threshold float64) model.Severity {
	span := (1 - threshold) / 3
	switch {
	case p >= 1-span:
		return model.SeverityHigh
	case p >= 1-2*span:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// ToIncidents turns high-risk candidates into incidents ready for dispatch.
func ToIncidents(cands []Candidate, threshold float64) []model.Incident {
	risky := HighRisk(cands, threshold)
	out := make([]model.Incident, 0, len(risky))
	for i, c := range risky {
		out = append(out, model.Incident{
			ID:         fmt.Sprintf("pred-%04d", i+1),
			OccurredAt: c.Time,
			ReportedAt: c.Time,
			Location:   c.Location,
			Severity:   SeverityFor(c.Risk.FireProbability, threshold),
		})
	}
	return out
}

// Entry is one prediction in the grouped API document.
type Entry struct {
	Time     string      `json:"time"`
	Location Coordinates `json:"location"`
	Risk     RiskFactors `json:"risk_factors"`
}

// Coordinates is the object form of a location.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GroupByDate groups high-risk candidates by UTC date for the API.
func GroupByDate(cands []Candidate, threshold float64) map[string][]Entry {
	out := make(map[string][]Entry)
	for _, c := range HighRisk(cands, threshold) {
		t := c.Time.UTC()
		day := t.Format("2006-01-02")
		out[day] = append(out[day], Entry{
			Time:     t.Format("15:04:05"),
			Location: Coordinates{Latitude: c.Location.Lat, Longitude: c.Location.Lon},
			Risk:     c.Risk,
		})
	}
	return out
}

// Config selects the predictor module.
type Config struct {
	Module    factory.ModuleConfig `json:"module"`
	Threshold float64              `json:"threshold"`
}

// SetDefaults applies the 0.90 threshold.
func (c *Config) SetDefaults() {
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
}

// Validate checks the threshold range.
func (c Config) Validate() error {
	if c.Threshold <= 0 || c.Threshold > 1 {
		return fmt.Errorf("prediction: threshold %g outside (0,1]", c.Threshold)
	}
	return nil
}

var registry = factory.NewRegistry[Predictor]()

func init() {
	registry.MustRegister("mock", func(conf map[string]any) (Predictor, error) {
		var m Mock
		if err := factory.Decode(conf, &m); err != nil {
			return nil, err
		}
		return m, nil
	})
}

// RegisterPredictor adds a predictor factory.
func RegisterPredictor(name string, f factory.Factory[Predictor]) error {
	return registry.Register(name, f)
}

// New builds the configured predictor. An empty module type yields Unloaded.
func New(cfg Config) (Predictor, error) {
	if cfg.Module.Type == "" {
		return Unloaded{}, nil
	}
	return registry.Create(cfg.Module)
}
