package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// roundsHeader is the column layout for exported round series.
var roundsHeader = []string{"run_id", "round", "moved", "unsatisfied_frac", "mean_similarity"}

// ExportRoundsCSV writes a run's round series as CSV.
func ExportRoundsCSV(w io.Writer, rounds []Round) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(roundsHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range rounds {
		record := []string{
			strconv.FormatInt(r.RunID, 10),
			strconv.Itoa(r.Round),
			strconv.Itoa(r.Moved),
			strconv.FormatFloat(r.UnsatisfiedFrac, 'f', 6, 64),
			strconv.FormatFloat(r.MeanSimilarity, 'f', 6, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write round %d: %w", r.Round, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportRun writes the round series of the given run from the store as CSV.
func ExportRun(ctx context.Context, s RunStore, runID int64, w io.Writer) error {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return err
	}
	rounds, err := s.GetRounds(ctx, runID)
	if err != nil {
		return err
	}
	return ExportRoundsCSV(w, rounds)
}
