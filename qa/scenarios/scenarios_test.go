package scenarios

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/wildfire/core/model"
)

func TestScenario(t *testing.T) {
	files, err := filepath.Glob("*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		sc, err := Load(f)
		require.NoError(t, err, f)
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load("no-file.yaml")
	assert.Error(t, err)

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(":"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	unnamed := filepath.Join(dir, "unnamed.yaml")
	require.NoError(t, os.WriteFile(unnamed, []byte("incidents: []\n"), 0o644))
	_, err = Load(unnamed)
	assert.Error(t, err)
}

func TestRunRejectsBadInput(t *testing.T) {
	sc := &Scenario{Name: "bad", Incidents: []IncidentDef{{ID: "x", Timestamp: "yesterday", Location: []float64{1, 2}, Severity: "low"}}}
	_, _, err := Run(context.Background(), sc)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	sc = &Scenario{Name: "bad-damage", DamageCosts: map[string]float64{"extreme": 1}}
	_, _, err = Run(context.Background(), sc)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	sc = &Scenario{Name: "bad-policy", Policy: "random"}
	_, _, err = Run(context.Background(), sc)
	assert.Error(t, err)
}
