// Package config holds the settings of a railroad instance, read from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// TickInterval is how often the running simulation advances.
	TickInterval time.Duration `yaml:"tick-interval" json:"tick-interval"`
	// StepDuration is how far a single step advances a paused simulation.
	StepDuration time.Duration `yaml:"step-duration" json:"step-duration"`
	Placement    Placement     `yaml:"placement" json:"placement"`
	// Preset names the built-in scenario used when LayoutFile is empty.
	Preset string `yaml:"preset" json:"preset"`
	// LayoutFile is an HCL scenario.
	LayoutFile string `yaml:"layout-file" json:"layout-file"`
	// CarsFile is a JSON catalogue of formations trains can be spawned from.
	CarsFile string `yaml:"cars-file" json:"cars-file"`
	DBPath   string `yaml:"db-path" json:"db-path"`
	Listen   string `yaml:"listen" json:"listen"`
	// AllowedOrigins may call the HTTP API from a browser. Empty allows any origin.
	AllowedOrigins []string      `yaml:"allowed-origins" json:"allowed-origins"`
	TracePath      string        `yaml:"trace-path" json:"trace-path"`
	LogLevel       zapcore.Level `yaml:"log-level" json:"log-level"`
}

type Placement struct {
	MaxIterations int `yaml:"max-iterations" json:"max-iterations"`
	// Tolerance in metres.
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
}

func Default() Config {
	return Config{
		TickInterval: 50 * time.Millisecond,
		StepDuration: time.Second,
		Placement: Placement{
			MaxIterations: 50,
			Tolerance:     0.05,
		},
		Preset:   "initial",
		DBPath:   "railroad.db",
		Listen:   "127.0.0.1:8080",
		LogLevel: zapcore.InfoLevel,
	}
}

func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick-interval %s must be positive", c.TickInterval)
	}
	if c.StepDuration <= 0 {
		return fmt.Errorf("step-duration %s must be positive", c.StepDuration)
	}
	if c.Placement.MaxIterations < 1 {
		return fmt.Errorf("placement.max-iterations %d must be at least 1", c.Placement.MaxIterations)
	}
	if !(c.Placement.Tolerance > 0) {
		return fmt.Errorf("placement.tolerance %g must be positive", c.Placement.Tolerance)
	}
	if c.Preset == "" && c.LayoutFile == "" {
		return errors.New("one of preset and layout-file is required")
	}
	return nil
}

// Load reads path over the defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse is Load on YAML already in memory.
func Parse(data []byte) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
