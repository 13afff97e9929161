package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if c.Grid.Width != 50 || c.Grid.Height != 50 {
		t.Errorf("unexpected default dimensions %dx%d", c.Grid.Width, c.Grid.Height)
	}
	if c.Run.Threshold != 0.5 {
		t.Errorf("unexpected default threshold %f", c.Run.Threshold)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "segsim.yaml")

	content := `
grid:
  width: 30
  height: 20
  groups: 3
  empty_fraction: 0.1
run:
  threshold: 0.625
  rounds: 12
  seed: 77
  stop_when_settled: true
store:
  enabled: true
  path: runs.db
server:
  addr: "localhost:9000"
  frame_interval: 50ms
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	c, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if c.Grid.Width != 30 || c.Grid.Height != 20 || c.Grid.Groups != 3 {
		t.Errorf("grid section not loaded: %+v", c.Grid)
	}
	if c.Run.Threshold != 0.625 || c.Run.Rounds != 12 || c.Run.Seed != 77 || !c.Run.StopWhenSettled {
		t.Errorf("run section not loaded: %+v", c.Run)
	}
	if !c.Store.Enabled || c.Store.Path != "runs.db" {
		t.Errorf("store section not loaded: %+v", c.Store)
	}
	if c.Server.Addr != "localhost:9000" || c.Server.FrameInterval != 50*time.Millisecond {
		t.Errorf("server section not loaded: %+v", c.Server)
	}
	if c.Logging.Level != "debug" {
		t.Errorf("logging section not loaded: %+v", c.Logging)
	}
}

func TestLoadFromFile_PartialKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "segsim.yaml")

	content := `
run:
  threshold: 0.75
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	c, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.Run.Threshold != 0.75 {
		t.Errorf("threshold not overridden: %f", c.Run.Threshold)
	}
	if c.Grid.Width != 50 || c.Grid.EmptyFraction != 0.2 {
		t.Errorf("defaults not preserved: %+v", c.Grid)
	}
}

func TestLoadFromFile_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "segsim.yaml")
	if err := os.WriteFile(path, []byte("grid: ["), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected parse error for malformed YAML")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SEGSIM_SEED", "123")
	t.Setenv("SEGSIM_THRESHOLD", "0.9")
	t.Setenv("SEGSIM_ROUNDS", "7")
	t.Setenv("SEGSIM_DB_PATH", "/tmp/other.db")
	t.Setenv("SEGSIM_STORE_ENABLED", "1")
	t.Setenv("SEGSIM_LOG_LEVEL", "trace")

	c := Default()
	applyEnvOverrides(c)

	if c.Run.Seed != 123 {
		t.Errorf("seed override not applied: %d", c.Run.Seed)
	}
	if c.Run.Threshold != 0.9 {
		t.Errorf("threshold override not applied: %f", c.Run.Threshold)
	}
	if c.Run.Rounds != 7 {
		t.Errorf("rounds override not applied: %d", c.Run.Rounds)
	}
	if c.Store.Path != "/tmp/other.db" || !c.Store.Enabled {
		t.Errorf("store overrides not applied: %+v", c.Store)
	}
	if c.Logging.Level != "trace" {
		t.Errorf("log level override not applied: %s", c.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"default", func(c *Config) {}, true},
		{"store enabled with path", func(c *Config) { c.Store.Enabled = true }, true},
		{"zero width", func(c *Config) { c.Grid.Width = 0 }, false},
		{"zero groups", func(c *Config) { c.Grid.Groups = 0 }, false},
		{"empty fraction of one", func(c *Config) { c.Grid.EmptyFraction = 1 }, false},
		{"threshold above one", func(c *Config) { c.Run.Threshold = 2 }, false},
		{"negative rounds", func(c *Config) { c.Run.Rounds = -1 }, false},
		{"store enabled without path", func(c *Config) { c.Store.Enabled = true; c.Store.Path = "" }, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, false},
		{"negative frame interval", func(c *Config) { c.Server.FrameInterval = -time.Second }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSimConfig(t *testing.T) {
	c := Default()
	c.Grid.Width = 10
	c.Grid.Height = 8
	c.Grid.Groups = 4
	c.Grid.EmptyFraction = 0.3
	c.Run.Threshold = 0.4
	c.Run.Seed = 9

	sc := c.SimConfig()
	if sc.Width != 10 || sc.Height != 8 || sc.Groups != 4 {
		t.Errorf("dimensions not mapped: %+v", sc)
	}
	if sc.EmptyFrac != 0.3 || sc.Threshold != 0.4 || sc.Seed != 9 {
		t.Errorf("parameters not mapped: %+v", sc)
	}
}
