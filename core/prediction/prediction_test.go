package prediction

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/wildfire/core/factory"
	"github.com/kilianp07/wildfire/core/model"
)

var t0 = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

func cand(h int, p float64) Candidate {
	return Candidate{Time: t0.Add(time.Duration(h) * time.Hour), Location: model.Location{Lat: 1, Lon: 2}, Risk: RiskFactors{FireProbability: p}}
}

func TestSeverityBands(t *testing.T) {
	assert.Equal(t, model.SeverityHigh, SeverityFor(0.99, DefaultThreshold))
	assert.Equal(t, model.SeverityMedium, SeverityFor(0.95, DefaultThreshold))
	assert.Equal(t, model.SeverityLow, SeverityFor(0.91, DefaultThreshold))
}

func TestToIncidentsFiltersAndOrders(t *testing.T) {
	incs := ToIncidents([]Candidate{cand(3, 0.99), cand(1, 0.5), cand(2, 0.90)}, DefaultThreshold)
	require.Len(t, incs, 2)
	assert.Equal(t, t0.Add(2*time.Hour), incs[0].OccurredAt)
	assert.Equal(t, model.SeverityLow, incs[0].Severity)
	assert.Equal(t, model.SeverityHigh, incs[1].Severity)
	for _, inc := range incs {
		assert.NoError(t, inc.Validate())
	}
}

func TestGroupByDate(t *testing.T) {
	g := GroupByDate([]Candidate{cand(1, 0.95), cand(25, 0.97), cand(2, 0.1)}, DefaultThreshold)
	require.Len(t, g, 2)
	assert.Equal(t, "01:00:00", g["2024-07-01"][0].Time)
	assert.Equal(t, 1.0, g["2024-07-02"][0].Location.Latitude)
}

func TestUnloaded(t *testing.T) {
	p, err := New(Config{})
	require.NoError(t, err)
	_, err = p.Predict(context.Background(), Request{Hours: 1})
	assert.ErrorIs(t, err, ErrModelNotLoaded)
}

func TestMockIsDeterministic(t *testing.T) {
	p, err := New(Config{Module: factory.ModuleConfig{Type: "mock", Conf: map[string]any{"base": 0.9, "amplitude": 0.08}}})
	require.NoError(t, err)
	req := Request{Start: t0, Hours: 24, Locations: []model.Location{{Lat: 34, Lon: -118}, {Lat: 35, Lon: -119}}}
	a, err := p.Predict(context.Background(), req)
	require.NoError(t, err)
	b, err := p.Predict(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, a, 48)
	assert.Equal(t, a, b)
	for _, c := range a {
		assert.GreaterOrEqual(t, c.Risk.FireProbability, 0.0)
		assert.LessOrEqual(t, c.Risk.FireProbability, 1.0)
	}
	assert.NotEmpty(t, ToIncidents(a, DefaultThreshold))
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, DefaultThreshold, c.Threshold)
	require.NoError(t, c.Validate())
	c.Threshold = 1.5
	assert.Error(t, c.Validate())
}
