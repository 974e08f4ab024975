package sim

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
	"nyiyui.ca/hato/railroad/config"
	"nyiyui.ca/hato/railroad/tal"
	"nyiyui.ca/hato/railroad/tal/layout/preset"
)

// NewEnv loads the scenario and formations c points to.
func NewEnv(c config.Config) (Env, error) {
	env := Env{StepDuration: c.StepDuration}
	var initial tal.Scenario
	var err error
	if c.LayoutFile != "" {
		initial, err = preset.ParseHCLFile(c.LayoutFile)
	} else {
		initial, err = preset.Lookup(c.Preset)
	}
	if err != nil {
		return Env{}, fmt.Errorf("initial scenario: %w", err)
	}
	warnLoops(initial.Layout)
	env.Initial = initial.Clone
	if c.CarsFile != "" {
		data, err := os.ReadFile(c.CarsFile)
		if err != nil {
			return Env{}, fmt.Errorf("reading cars file: %w", err)
		}
		if err := json.Unmarshal(data, &env.Formations); err != nil {
			return Env{}, fmt.Errorf("parsing cars file %s: %w", c.CarsFile, err)
		}
		zap.S().Infow("read formations", "count", len(env.Formations.Forms))
	}
	return env, nil
}
