package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/avandermeer/segsim/internal/visualization"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect persisted runs",
	}

	cmd.PersistentFlags().String("db", "", "SQLite database path")

	cmd.AddCommand(
		newRunsListCmd(),
		newRunsShowCmd(),
	)
	return cmd
}

func newRunsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List persisted runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := openStore(cmd, cfg)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context())
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(runs)
			}

			if len(runs) == 0 {
				fmt.Println("no runs")
				return nil
			}
			fmt.Printf("%-5s %-20s %-9s %-7s %-11s %-10s %-7s %s\n",
				"id", "created", "grid", "groups", "empty-frac", "threshold", "seed", "rounds")
			for _, r := range runs {
				fmt.Printf("%-5d %-20s %-9s %-7d %-11.2f %-10.2f %-7d %d\n",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"),
					fmt.Sprintf("%dx%d", r.Width, r.Height),
					r.Groups, r.EmptyFraction, r.Threshold, r.Seed, r.Rounds)
			}
			return nil
		},
	}
}

func newRunsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run's round series and final grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := openStore(cmd, cfg)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer st.Close()

			ctx := cmd.Context()
			run, err := st.GetRun(ctx, runID)
			if err != nil {
				return err
			}
			rounds, err := st.GetRounds(ctx, runID)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"run":    run,
					"rounds": rounds,
				})
			}

			fmt.Printf("run %d: %dx%d grid, %d groups, empty %.2f, threshold %.2f, seed %d\n",
				run.ID, run.Width, run.Height, run.Groups, run.EmptyFraction, run.Threshold, run.Seed)
			for _, r := range rounds {
				fmt.Printf("round %3d: moved %5d  unsatisfied %5.1f%%  similarity %5.1f%%\n",
					r.Round, r.Moved, r.UnsatisfiedFrac*100, r.MeanSimilarity*100)
			}

			showGrid, _ := cmd.Flags().GetBool("show-grid")
			if showGrid {
				snap, err := st.GetSnapshot(ctx, runID, run.Rounds)
				if err != nil {
					return fmt.Errorf("loading final snapshot: %w", err)
				}
				g, err := snap.Grid()
				if err != nil {
					return err
				}
				fmt.Print(visualization.RenderASCII(g))
			}
			return nil
		},
	}

	cmd.Flags().Bool("show-grid", false, "Print the final grid as ASCII")
	return cmd
}
