package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avandermeer/segsim/internal/config"
	"github.com/avandermeer/segsim/internal/store"
)

// loadConfig loads configuration honoring the global --config and
// --log-level flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
	}
	return cfg, nil
}

// openStore opens the configured SQLite store, honoring a --db flag
// override when the command defines one.
func openStore(cmd *cobra.Command, cfg *config.Config) (store.RunStore, error) {
	if cmd.Flags().Lookup("db") != nil && cmd.Flags().Changed("db") {
		cfg.Store.Path, _ = cmd.Flags().GetString("db")
		cfg.Store.Enabled = true
	}
	if cfg.Store.Path == "" {
		return nil, fmt.Errorf("no database path configured")
	}
	return store.NewSQLiteRunStore(cfg.Store.Path)
}

// parseThresholds parses a comma-separated threshold list, e.g. "0.3,0.5,0.7".
func parseThresholds(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	thresholds := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold %q: %w", p, err)
		}
		if v < 0 || v > 1 {
			return nil, fmt.Errorf("threshold %v out of range [0,1]", v)
		}
		thresholds = append(thresholds, v)
	}
	if len(thresholds) == 0 {
		return nil, fmt.Errorf("no thresholds given")
	}
	return thresholds, nil
}
