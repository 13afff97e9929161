// Package store defines the RunStore interface for persisting simulation
// runs, their per-round series, and grid snapshots.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/avandermeer/segsim/internal/grid"
)

// ErrNotFound is returned when a run or snapshot does not exist.
var ErrNotFound = errors.New("not found")

// Run records the parameters of a single simulation run.
type Run struct {
	ID            int64     `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	Groups        int       `json:"groups"`
	EmptyFraction float64   `json:"empty_fraction"`
	Threshold     float64   `json:"threshold"`
	Seed          int64     `json:"seed"`
	Rounds        int       `json:"rounds"`
}

// Round records the outcome of one simulation round within a run.
type Round struct {
	RunID           int64   `json:"run_id"`
	Round           int     `json:"round"`
	Moved           int     `json:"moved"`
	UnsatisfiedFrac float64 `json:"unsatisfied_frac"`
	MeanSimilarity  float64 `json:"mean_similarity"`
}

// Snapshot records the full grid state at a point in a run.
// Round 0 is the initial state before any rounds execute.
type Snapshot struct {
	RunID  int64           `json:"run_id"`
	Round  int             `json:"round"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Groups int             `json:"groups"`
	Cells  []grid.Occupant `json:"cells"`
}

// Grid reconstructs the snapshot's grid.
func (s *Snapshot) Grid() (*grid.Grid, error) {
	return grid.FromCells(s.Width, s.Height, s.Groups, s.Cells)
}

// RunStore defines the interface for persisting simulation runs.
type RunStore interface {
	// CreateRun records a new run and returns its ID.
	// The CreatedAt and ID fields of the argument are ignored.
	CreateRun(ctx context.Context, run Run) (int64, error)

	// FinishRun records the number of rounds a run executed.
	FinishRun(ctx context.Context, runID int64, rounds int) error

	// AddRound appends a round record to a run.
	AddRound(ctx context.Context, round Round) error

	// SaveSnapshot stores a grid snapshot for a run.
	SaveSnapshot(ctx context.Context, snap Snapshot) error

	// GetRun returns a run by ID, or ErrNotFound.
	GetRun(ctx context.Context, id int64) (*Run, error)

	// ListRuns returns all runs, newest first.
	ListRuns(ctx context.Context) ([]Run, error)

	// GetRounds returns a run's round series in round order.
	GetRounds(ctx context.Context, runID int64) ([]Round, error)

	// GetSnapshot returns the snapshot for a run and round, or ErrNotFound.
	GetSnapshot(ctx context.Context, runID int64, round int) (*Snapshot, error)

	// Close releases store resources.
	Close() error
}
