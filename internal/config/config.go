// Package config provides unified configuration loading for segsim.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/avandermeer/segsim/internal/sim"
)

// Config contains all segsim configuration settings.
type Config struct {
	// Grid describes the lattice and its initial population.
	Grid GridConfig `json:"grid" yaml:"grid"`

	// Run controls the simulation rounds.
	Run RunConfig `json:"run" yaml:"run"`

	// Store controls run persistence.
	Store StoreConfig `json:"store" yaml:"store"`

	// Server configures the live visualization server.
	Server ServerConfig `json:"server" yaml:"server"`

	// Logging configures operational logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// GridConfig describes the lattice dimensions and initial population.
type GridConfig struct {
	// Width and Height are the grid dimensions in cells.
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`

	// Groups is the number of group identities (k).
	Groups int `json:"groups" yaml:"groups"`

	// EmptyFraction is the probability that a cell starts empty.
	// Range: [0, 1).
	EmptyFraction float64 `json:"empty_fraction" yaml:"empty_fraction"`
}

// RunConfig controls the simulation rounds.
type RunConfig struct {
	// Threshold is the minimum same-group neighbor share for an agent
	// to stay put. Range: [0, 1].
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// Rounds is the number of rounds to execute.
	Rounds int `json:"rounds" yaml:"rounds"`

	// Seed seeds the simulation's random source. Runs with the same
	// seed and configuration are identical.
	Seed int64 `json:"seed" yaml:"seed"`

	// StopWhenSettled stops a run after the first round with zero
	// movers. Off by default; the engine itself never auto-stops.
	StopWhenSettled bool `json:"stop_when_settled" yaml:"stop_when_settled"`
}

// StoreConfig controls run persistence.
type StoreConfig struct {
	// Enabled turns on persistence of runs to the SQLite store.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the SQLite database path.
	Path string `json:"path" yaml:"path"`
}

// ServerConfig configures the live visualization server.
type ServerConfig struct {
	// Addr is the listen address, e.g. "localhost:8080". Empty means
	// an OS-assigned port on localhost.
	Addr string `json:"addr" yaml:"addr"`

	// FrameInterval is the delay between streamed rounds.
	FrameInterval time.Duration `json:"frame_interval" yaml:"frame_interval"`
}

// LoggingConfig configures segsim's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or
	// "trace". "debug" enables the per-round JSONL trace.
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Grid: GridConfig{
			Width:         50,
			Height:        50,
			Groups:        2,
			EmptyFraction: 0.2,
		},
		Run: RunConfig{
			Threshold: 0.5,
			Rounds:    50,
			Seed:      1,
		},
		Store: StoreConfig{
			Enabled: false,
			Path:    "segsim.db",
		},
		Server: ServerConfig{
			Addr:          "localhost:0",
			FrameInterval: 200 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from an optional file path and environment
// variables. Order: defaults -> file (explicit path, or segsim.yaml in
// the working directory when present) -> environment variables.
func Load(path string) (*Config, error) {
	config := Default()

	if path == "" {
		if _, err := os.Stat("segsim.yaml"); err == nil {
			path = "segsim.yaml"
		}
	}
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
		return fmt.Errorf("grid dimensions must be positive, got %dx%d", c.Grid.Width, c.Grid.Height)
	}
	if c.Grid.Groups < 1 {
		return fmt.Errorf("groups must be >= 1, got %d", c.Grid.Groups)
	}
	if c.Grid.EmptyFraction < 0 || c.Grid.EmptyFraction >= 1 {
		return fmt.Errorf("empty_fraction must be in [0,1), got %f", c.Grid.EmptyFraction)
	}
	if c.Run.Threshold < 0 || c.Run.Threshold > 1 {
		return fmt.Errorf("threshold must be in [0,1], got %f", c.Run.Threshold)
	}
	if c.Run.Rounds < 0 {
		return fmt.Errorf("rounds must be >= 0, got %d", c.Run.Rounds)
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return fmt.Errorf("store.path is required when the store is enabled")
	}
	if c.Server.FrameInterval < 0 {
		return fmt.Errorf("frame_interval must be non-negative, got %v", c.Server.FrameInterval)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// SimConfig maps the grid and run sections onto the engine's Config.
func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Width:     c.Grid.Width,
		Height:    c.Grid.Height,
		Groups:    c.Grid.Groups,
		EmptyFrac: c.Grid.EmptyFraction,
		Threshold: c.Run.Threshold,
		Seed:      c.Run.Seed,
	}
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("SEGSIM_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Run.Seed = n
		}
	}

	if v := os.Getenv("SEGSIM_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Run.Threshold = f
		}
	}

	if v := os.Getenv("SEGSIM_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Run.Rounds = n
		}
	}

	if v := os.Getenv("SEGSIM_DB_PATH"); v != "" {
		config.Store.Path = v
	}

	if v := os.Getenv("SEGSIM_STORE_ENABLED"); v != "" {
		config.Store.Enabled = v == "true" || v == "1"
	}

	if v := os.Getenv("SEGSIM_SERVER_ADDR"); v != "" {
		config.Server.Addr = v
	}

	if v := os.Getenv("SEGSIM_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}
