package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/avandermeer/segsim/internal/logging"
	"github.com/avandermeer/segsim/internal/visualization"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live browser view of the simulation",
		Long: `Start an HTTP server with a websocket stream of simulation rounds.

Every connected browser watches an identical run: each connection gets
a fresh engine seeded from the same configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyRunFlags(cmd, cfg)
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("frame-interval") {
				cfg.Server.FrameInterval, _ = cmd.Flags().GetDuration("frame-interval")
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)
			srv := visualization.NewServer(cfg.SimConfig(), cfg.Run.Rounds, cfg.Server.FrameInterval, logger)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			notifySignals(sigCh)
			go func() {
				<-sigCh
				logger.Info("shutting down")
				cancel()
			}()

			go func() {
				for srv.Addr() == "" {
					time.Sleep(10 * time.Millisecond)
				}
				fmt.Printf("watching at http://%s (Ctrl+C to stop)\n", srv.Addr())
			}()

			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default from config; empty picks a free port)")
	cmd.Flags().Duration("frame-interval", 0, "Delay between streamed rounds")
	cmd.Flags().Int("width", 0, "Grid width")
	cmd.Flags().Int("height", 0, "Grid height")
	cmd.Flags().Int("groups", 0, "Number of groups")
	cmd.Flags().Float64("empty-frac", 0, "Fraction of cells left empty")
	cmd.Flags().Float64("threshold", 0, "Satisfaction threshold in [0,1]")
	cmd.Flags().Int("rounds", 0, "Number of rounds to stream")
	cmd.Flags().Int64("seed", 0, "Random seed")

	return cmd
}
