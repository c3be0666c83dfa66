// Package config loads the simulation and device configuration from
// YAML files, environment variables and .env files, with sensible
// defaults for every knob.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration settings.
type Config struct {
	// Simulation stepping
	Sim SimConfig `yaml:"sim" mapstructure:"sim"`

	// Priority-vehicle device defaults
	Device DeviceConfig `yaml:"device" mapstructure:"device"`

	// Output settings
	Output OutputConfig `yaml:"output" mapstructure:"output"`
}

// SimConfig controls the stepping kernel.
type SimConfig struct {
	StepLengthMS int64  `yaml:"step_length_ms" mapstructure:"step_length_ms"`
	Steps        int    `yaml:"steps" mapstructure:"steps"`
	Seed         int64  `yaml:"seed" mapstructure:"seed"`
	Scenario     string `yaml:"scenario" mapstructure:"scenario"`
}

// DeviceConfig carries the per-instance defaults of the priority
// vehicle device. All of these remain runtime-mutable through the
// device parameter interface.
type DeviceConfig struct {
	ReactionDist    float64 `yaml:"reactiondist" mapstructure:"reactiondist"`
	MinGapFactor    float64 `yaml:"mingapfactor" mapstructure:"mingapfactor"`
	Activated       bool    `yaml:"activated" mapstructure:"activated"`
	InvertDirection bool    `yaml:"invert_direction" mapstructure:"invert_direction"`

	// Distance-banded reaction probabilities, calibrated from
	// real-world observations.
	NearDist         float64 `yaml:"near_dist" mapstructure:"near_dist"`
	ReactionProbNear float64 `yaml:"reaction_prob_near" mapstructure:"reaction_prob_near"`
	ReactionProbFar  float64 `yaml:"reaction_prob_far" mapstructure:"reaction_prob_far"`
}

// OutputConfig controls trip output and the run archive.
type OutputConfig struct {
	TripInfoPath string `yaml:"tripinfo_path" mapstructure:"tripinfo_path"`
	ArchivePath  string `yaml:"archive_path" mapstructure:"archive_path"`
}

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Sim: SimConfig{
			StepLengthMS: 1000,
			Steps:        300,
			Seed:         42,
		},
		Device: DeviceConfig{
			ReactionDist:     25.0,
			MinGapFactor:     1.0,
			Activated:        true,
			InvertDirection:  false,
			NearDist:         12.5,
			ReactionProbNear: 0.577,
			ReactionProbFar:  0.189,
		},
		Output: OutputConfig{
			TripInfoPath: "tripinfo.xml",
			ArchivePath:  filepath.Join(homeDir, ".rescuelane", "runs.db"),
		},
	}
}

// Load loads configuration from the given file, falling back to
// standard search locations and environment variables.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("sim", cfg.Sim)
	v.SetDefault("device", cfg.Device)
	v.SetDefault("output", cfg.Output)

	v.SetEnvPrefix("RESCUELANE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".rescuelane")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".rescuelane"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that would otherwise surface deep in
// the simulation.
func (c *Config) Validate() error {
	if c.Sim.StepLengthMS <= 0 {
		return fmt.Errorf("sim.step_length_ms must be positive, got %d", c.Sim.StepLengthMS)
	}
	if c.Device.ReactionDist < 0 {
		return fmt.Errorf("device.reactiondist must be >= 0, got %g", c.Device.ReactionDist)
	}
	if c.Device.MinGapFactor <= 0 {
		return fmt.Errorf("device.mingapfactor must be > 0, got %g", c.Device.MinGapFactor)
	}
	if c.Device.ReactionProbNear < 0 || c.Device.ReactionProbNear > 1 {
		return fmt.Errorf("device.reaction_prob_near must be in [0,1], got %g", c.Device.ReactionProbNear)
	}
	if c.Device.ReactionProbFar < 0 || c.Device.ReactionProbFar > 1 {
		return fmt.Errorf("device.reaction_prob_far must be in [0,1], got %g", c.Device.ReactionProbFar)
	}
	return nil
}

// loadEnvFiles loads .env files in order of precedence.
func loadEnvFiles() {
	envFiles := []string{
		".env.local", // local overrides (highest precedence)
		".env",       // main environment file
	}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
}
