package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avandermeer/segsim/internal/config"
	"github.com/avandermeer/segsim/internal/grid"
	"github.com/avandermeer/segsim/internal/logging"
	"github.com/avandermeer/segsim/internal/sim"
	"github.com/avandermeer/segsim/internal/store"
	"github.com/avandermeer/segsim/internal/visualization"
)

// runSummary is the JSON output of the run command.
type runSummary struct {
	RunID           int64   `json:"run_id,omitempty"`
	Rounds          int     `json:"rounds"`
	Moved           int     `json:"moved"`
	Settled         bool    `json:"settled"`
	UnsatisfiedFrac float64 `json:"unsatisfied_frac"`
	MeanSimilarity  float64 `json:"mean_similarity"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation",
		Long: `Run a segregation simulation and print per-round statistics.

Flags override the config file; unset flags keep configured values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyRunFlags(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			showGrid, _ := cmd.Flags().GetBool("show-grid")
			logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)

			engine, err := sim.New(cfg.SimConfig())
			if err != nil {
				return err
			}
			if err := engine.Init(); err != nil {
				return err
			}

			ctx := cmd.Context()
			var (
				st    store.RunStore
				runID int64
			)
			if cfg.Store.Enabled {
				st, err = openStore(cmd, cfg)
				if err != nil {
					return fmt.Errorf("opening store: %w", err)
				}
				defer st.Close()

				runID, err = st.CreateRun(ctx, store.Run{
					Width:         cfg.Grid.Width,
					Height:        cfg.Grid.Height,
					Groups:        cfg.Grid.Groups,
					EmptyFraction: cfg.Grid.EmptyFraction,
					Threshold:     cfg.Run.Threshold,
					Seed:          cfg.Run.Seed,
				})
				if err != nil {
					return fmt.Errorf("recording run: %w", err)
				}
				if err := st.SaveSnapshot(ctx, snapshotOf(runID, 0, engine.Grid())); err != nil {
					return fmt.Errorf("saving initial snapshot: %w", err)
				}
			}

			roundLog := logging.NewRoundLogger(".segsim", cfg.Logging.Level)
			defer roundLog.Close()

			result, err := engine.Run(cfg.Run.Rounds, sim.RunOptions{
				StopWhenSettled: cfg.Run.StopWhenSettled,
				OnRound: func(stat sim.RoundStat) {
					logger.Debug("round complete",
						"round", stat.Round,
						"moved", stat.Moved,
						"unsatisfied_frac", stat.UnsatisfiedFrac,
						"mean_similarity", stat.MeanSimilarity)
					roundLog.Log(map[string]any{
						"round":            stat.Round,
						"moved":            stat.Moved,
						"unsatisfied_frac": stat.UnsatisfiedFrac,
						"mean_similarity":  stat.MeanSimilarity,
					})
					if st != nil {
						if err := st.AddRound(ctx, store.Round{
							RunID:           runID,
							Round:           stat.Round,
							Moved:           stat.Moved,
							UnsatisfiedFrac: stat.UnsatisfiedFrac,
							MeanSimilarity:  stat.MeanSimilarity,
						}); err != nil {
							logger.Error("failed to record round", "round", stat.Round, "error", err)
						}
					}
					if !jsonOut {
						fmt.Printf("round %3d: moved %5d  unsatisfied %5.1f%%  similarity %5.1f%%\n",
							stat.Round, stat.Moved, stat.UnsatisfiedFrac*100, stat.MeanSimilarity*100)
					}
				},
			})
			if err != nil {
				return err
			}

			if st != nil {
				if err := st.SaveSnapshot(ctx, snapshotOf(runID, len(result.Rounds), engine.Grid())); err != nil {
					return fmt.Errorf("saving final snapshot: %w", err)
				}
				if err := st.FinishRun(ctx, runID, len(result.Rounds)); err != nil {
					return fmt.Errorf("finishing run: %w", err)
				}
			}

			summary := runSummary{
				RunID:   runID,
				Rounds:  len(result.Rounds),
				Moved:   result.Moved(),
				Settled: result.Settled,
			}
			if len(result.Rounds) > 0 {
				last := result.Rounds[len(result.Rounds)-1]
				summary.UnsatisfiedFrac = last.UnsatisfiedFrac
				summary.MeanSimilarity = last.MeanSimilarity
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(summary)
			}
			if showGrid {
				fmt.Print(visualization.RenderASCII(engine.Grid()))
			}
			fmt.Printf("%d rounds, %d total moves", summary.Rounds, summary.Moved)
			if summary.Settled {
				fmt.Print(", settled")
			}
			fmt.Println()
			if runID != 0 {
				fmt.Printf("saved as run %d\n", runID)
			}
			return nil
		},
	}

	cmd.Flags().Int("width", 0, "Grid width")
	cmd.Flags().Int("height", 0, "Grid height")
	cmd.Flags().Int("groups", 0, "Number of groups")
	cmd.Flags().Float64("empty-frac", 0, "Fraction of cells left empty")
	cmd.Flags().Float64("threshold", 0, "Satisfaction threshold in [0,1]")
	cmd.Flags().Int("rounds", 0, "Number of rounds")
	cmd.Flags().Int64("seed", 0, "Random seed")
	cmd.Flags().Bool("stop-when-settled", false, "Stop after the first round with zero movers")
	cmd.Flags().Bool("store", false, "Persist the run to the SQLite store")
	cmd.Flags().String("db", "", "SQLite database path (implies --store)")
	cmd.Flags().Bool("show-grid", false, "Print the final grid as ASCII")

	return cmd
}

// applyRunFlags overlays explicitly-set run flags onto the config.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("width") {
		cfg.Grid.Width, _ = f.GetInt("width")
	}
	if f.Changed("height") {
		cfg.Grid.Height, _ = f.GetInt("height")
	}
	if f.Changed("groups") {
		cfg.Grid.Groups, _ = f.GetInt("groups")
	}
	if f.Changed("empty-frac") {
		cfg.Grid.EmptyFraction, _ = f.GetFloat64("empty-frac")
	}
	if f.Changed("threshold") {
		cfg.Run.Threshold, _ = f.GetFloat64("threshold")
	}
	if f.Changed("rounds") {
		cfg.Run.Rounds, _ = f.GetInt("rounds")
	}
	if f.Changed("seed") {
		cfg.Run.Seed, _ = f.GetInt64("seed")
	}
	if f.Changed("stop-when-settled") {
		cfg.Run.StopWhenSettled, _ = f.GetBool("stop-when-settled")
	}
	if f.Changed("store") {
		cfg.Store.Enabled, _ = f.GetBool("store")
	}
	if f.Changed("db") {
		cfg.Store.Enabled = true
	}
}

func snapshotOf(runID int64, round int, g *grid.Grid) store.Snapshot {
	return store.Snapshot{
		RunID:  runID,
		Round:  round,
		Width:  g.Width(),
		Height: g.Height(),
		Groups: g.Groups(),
		Cells:  g.Cells(),
	}
}
