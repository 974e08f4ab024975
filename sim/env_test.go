package sim

import (
	"os"
	"path/filepath"
	"testing"

	"nyiyui.ca/hato/railroad/config"
)

func TestNewEnv(t *testing.T) {
	dir := t.TempDir()
	carsPath := filepath.Join(dir, "cars.json")
	err := os.WriteFile(carsPath, []byte(`{"sets": {"2fe1cbb0-b584-45f5-96ec-a9bfd55b1e91": {"comment": "pair", "cars": [{"length": 15}, {"length": 15}]}}}`), 0o644)
	if err != nil {
		t.Fatalf("write cars: %s", err)
	}
	c := config.Default()
	c.Preset = "passing-loop"
	c.CarsFile = carsPath
	env, err := NewEnv(c)
	if err != nil {
		t.Fatalf("NewEnv: %s", err)
	}
	if got := Init(env).Trains[0].Name; got != "Local" {
		t.Fatalf("initial train: %s", got)
	}
	if _, _, ok := env.Formations.Lookup("pair"); !ok {
		t.Fatalf("formation not loaded")
	}

	layoutPath := filepath.Join(dir, "tiny.hcl")
	err = os.WriteFile(layoutPath, []byte("edge {\n  from = 0\n  to = 1\n  length = 5\n}\n"), 0o644)
	if err != nil {
		t.Fatalf("write layout: %s", err)
	}
	c = config.Default()
	c.LayoutFile = layoutPath
	env, err = NewEnv(c)
	if err != nil {
		t.Fatalf("NewEnv with layout file: %s", err)
	}
	if got := len(Init(env).Trains); got != 0 {
		t.Fatalf("tiny layout has %d trains", got)
	}

	c = config.Default()
	c.Preset = "nowhere"
	if _, err := NewEnv(c); err == nil {
		t.Fatalf("unknown preset accepted")
	}
}
