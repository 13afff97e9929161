package simulation

import (
	"github.com/avandermeer/segsim/internal/grid"
	"github.com/avandermeer/segsim/internal/sim"
)

// Scenario describes one simulation experiment.
type Scenario struct {
	// Name identifies the scenario in failure messages.
	Name string

	// Config is the engine configuration. Width, Height, Groups and
	// EmptyFrac are ignored when Layout is set.
	Config sim.Config

	// Rounds is the number of rounds to execute.
	Rounds int

	// StopWhenSettled stops the run at the first round with zero movers.
	StopWhenSettled bool

	// Layout, when non-nil, replaces the random initial population with
	// an explicit grid of LayoutWidth x LayoutHeight cells.
	Layout       []grid.Occupant
	LayoutWidth  int
	LayoutHeight int
	LayoutGroups int
}

// Result holds everything a scenario produced: the persisted run ID, the
// initial and final grids, and the per-round series.
type Result struct {
	RunID   int64
	Initial *grid.Grid
	Final   *grid.Grid
	Rounds  []sim.RoundStat
	Settled bool
}

// FirstRound returns the first round's stats. Panics on empty runs.
func (r Result) FirstRound() sim.RoundStat { return r.Rounds[0] }

// LastRound returns the final round's stats. Panics on empty runs.
func (r Result) LastRound() sim.RoundStat { return r.Rounds[len(r.Rounds)-1] }

// TotalMoved sums movers across all rounds.
func (r Result) TotalMoved() int {
	total := 0
	for _, s := range r.Rounds {
		total += s.Moved
	}
	return total
}
