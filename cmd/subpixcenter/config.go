package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/abhijithrajan/subpixelcentering/pkg/subpix"
)

// Config is the YAML form of the centering parameters plus the CLI's own
// output options. Keys left out of the file keep their defaults.
type Config struct {
	Angles        int              `yaml:"angles"`
	Box           int              `yaml:"box"`
	Grid          GridConfig       `yaml:"grid"`
	Saturation    SaturationConfig `yaml:"saturation"`
	Tolerance     ToleranceConfig  `yaml:"tolerance"`
	MaxIterations int              `yaml:"max_iterations"`
	Workers       int              `yaml:"workers"`
	Debayer       bool             `yaml:"debayer"`
	Debug         bool             `yaml:"debug"`
	Plot          string           `yaml:"plot"`
	Preview       string           `yaml:"preview"`
}

type GridConfig struct {
	HalfSteps int     `yaml:"half_steps"`
	Step      float64 `yaml:"step"`
}

type SaturationConfig struct {
	Enabled bool    `yaml:"enabled"`
	Radius  float64 `yaml:"radius"`
}

type ToleranceConfig struct {
	Enabled bool    `yaml:"enabled"`
	Pixels  float64 `yaml:"pixels"`
}

// DefaultConfig mirrors subpix.NewCenteringParams.
func DefaultConfig() *Config {
	p := subpix.NewCenteringParams()
	return &Config{
		Angles:        p.NumAngles,
		Box:           p.BoxSize,
		Grid:          GridConfig{HalfSteps: p.Grid.HalfSteps, Step: p.Grid.Step},
		MaxIterations: p.MaxIterations,
		Workers:       p.Workers,
	}
}

// LoadConfig reads a YAML configuration file over the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	return config, nil
}

// Params converts the configuration into centering parameters.
func (c *Config) Params() *subpix.CenteringParams {
	p := subpix.NewCenteringParams()
	p.NumAngles = c.Angles
	p.BoxSize = c.Box
	p.Grid = subpix.Grid{HalfSteps: c.Grid.HalfSteps, Step: c.Grid.Step}
	p.SaturationMask = subpix.SaturationMask{Enabled: c.Saturation.Enabled, Radius: c.Saturation.Radius}
	p.Tolerance = subpix.Tolerance{Enabled: c.Tolerance.Enabled, Pixels: c.Tolerance.Pixels}
	p.MaxIterations = c.MaxIterations
	p.Workers = c.Workers
	return p
}
