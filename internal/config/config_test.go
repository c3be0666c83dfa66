package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, int64(1000), cfg.Sim.StepLengthMS)
	assert.Equal(t, int64(42), cfg.Sim.Seed)

	assert.Equal(t, 25.0, cfg.Device.ReactionDist)
	assert.Equal(t, 1.0, cfg.Device.MinGapFactor)
	assert.True(t, cfg.Device.Activated)
	assert.False(t, cfg.Device.InvertDirection)
	assert.Equal(t, 12.5, cfg.Device.NearDist)
	assert.Equal(t, 0.577, cfg.Device.ReactionProbNear)
	assert.Equal(t, 0.189, cfg.Device.ReactionProbFar)

	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"zero step length", func(c *Config) { c.Sim.StepLengthMS = 0 }, "step_length_ms"},
		{"negative reaction distance", func(c *Config) { c.Device.ReactionDist = -1 }, "reactiondist"},
		{"zero min gap factor", func(c *Config) { c.Device.MinGapFactor = 0 }, "mingapfactor"},
		{"near probability above one", func(c *Config) { c.Device.ReactionProbNear = 1.2 }, "reaction_prob_near"},
		{"negative far probability", func(c *Config) { c.Device.ReactionProbFar = -0.1 }, "reaction_prob_far"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
sim:
  step_length_ms: 500
  steps: 60
  seed: 7
device:
  reactiondist: 30
  mingapfactor: 1.5
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(500), cfg.Sim.StepLengthMS)
	assert.Equal(t, 60, cfg.Sim.Steps)
	assert.Equal(t, int64(7), cfg.Sim.Seed)
	assert.Equal(t, 30.0, cfg.Device.ReactionDist)
	assert.Equal(t, 1.5, cfg.Device.MinGapFactor)
	// untouched values keep their defaults
	assert.Equal(t, 0.577, cfg.Device.ReactionProbNear)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("device:\n  mingapfactor: -2\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mingapfactor")
}
