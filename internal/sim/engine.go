// Package sim implements the segregation model dynamics: the
// satisfaction rule over Moore neighborhoods and the per-round batch
// relocation of unsatisfied agents.
//
// The engine owns its grid and its random source exclusively. Given
// the same seed and the same starting grid, two runs produce identical
// outcomes; there is no other source of nondeterminism.
package sim

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/avandermeer/segsim/internal/grid"
)

// ErrNotInitialized is returned when Step or Run is called before the
// engine has a grid.
var ErrNotInitialized = errors.New("engine not initialized")

// Config holds the simulation parameters.
type Config struct {
	// Width and Height are the grid dimensions.
	Width  int
	Height int

	// Groups is the number of group identities (k). Must be >= 1.
	Groups int

	// EmptyFrac is the probability that a cell starts empty. Must be
	// in [0, 1).
	EmptyFrac float64

	// Threshold is the minimum fraction of same-group neighbors, among
	// occupied neighbors, required for an agent to stay put. Must be
	// in [0, 1]. Agents with no occupied neighbors are satisfied.
	Threshold float64

	// Seed seeds the engine's private random source.
	Seed int64
}

// DefaultConfig returns the default simulation configuration: a 50×50
// grid, two groups, 20% empty cells, threshold 0.5.
func DefaultConfig() Config {
	return Config{
		Width:     50,
		Height:    50,
		Groups:    2,
		EmptyFrac: 0.2,
		Threshold: 0.5,
		Seed:      1,
	}
}

// Validate checks the configuration against the ranges documented on
// each field. All violations are reported as grid.ErrConfig.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %dx%d", grid.ErrConfig, c.Width, c.Height)
	}
	if c.Groups < 1 {
		return fmt.Errorf("%w: groups must be >= 1, got %d", grid.ErrConfig, c.Groups)
	}
	if c.EmptyFrac < 0 || c.EmptyFrac >= 1 {
		return fmt.Errorf("%w: empty fraction must be in [0,1), got %g", grid.ErrConfig, c.EmptyFrac)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("%w: threshold must be in [0,1], got %g", grid.ErrConfig, c.Threshold)
	}
	return nil
}

// RoundStat describes one completed round.
type RoundStat struct {
	// Round is the 1-based round number within a Run, or 0 when the
	// stat was produced by a bare Step.
	Round int `json:"round"`

	// Moved is the number of agents relocated this round.
	Moved int `json:"moved"`

	// UnsatisfiedFrac is the fraction of agents below threshold at the
	// start of the round (movers / population). Zero when the grid has
	// no agents.
	UnsatisfiedFrac float64 `json:"unsatisfied_frac"`

	// MeanSimilarity is the mean same-group neighbor share after the
	// relocation, over agents with at least one occupied neighbor.
	MeanSimilarity float64 `json:"mean_similarity"`
}

// RunOptions controls Run behavior beyond the round count.
type RunOptions struct {
	// StopWhenSettled stops the run after the first round in which no
	// agent moved. The engine never stops early on its own; this is
	// the caller opting in.
	StopWhenSettled bool

	// OnRound, when non-nil, is invoked after each completed round.
	OnRound func(stat RoundStat)
}

// Result is the outcome of a Run.
type Result struct {
	// Rounds holds one stat per executed round, in order.
	Rounds []RoundStat `json:"rounds"`

	// Settled is true if the final executed round moved zero agents.
	Settled bool `json:"settled"`
}

// Moved returns the total number of relocations across all rounds.
func (r Result) Moved() int {
	total := 0
	for _, s := range r.Rounds {
		total += s.Moved
	}
	return total
}

// Engine evolves a grid round by round. Not safe for concurrent use:
// the grid and the random source are owned by exactly one stepper.
type Engine struct {
	cfg  Config
	rng  *rand.Rand
	grid *grid.Grid
}

// New creates an engine from a validated configuration. The engine
// starts without a grid; call Init or InitFrom before stepping.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// Init populates a fresh grid from the configuration using the
// engine's random source.
func (e *Engine) Init() error {
	g, err := grid.New(e.cfg.Width, e.cfg.Height, e.cfg.Groups, e.cfg.EmptyFrac, e.rng)
	if err != nil {
		return err
	}
	e.grid = g
	return nil
}

// InitFrom installs an explicit starting grid, cloning it so the
// caller's copy is never mutated. The grid dimensions override the
// configured ones.
func (e *Engine) InitFrom(g *grid.Grid) {
	e.grid = g.Clone()
	e.cfg.Width = g.Width()
	e.cfg.Height = g.Height()
	e.cfg.Groups = g.Groups()
}

// Grid returns the engine's grid for inspection, or nil before Init.
func (e *Engine) Grid() *grid.Grid { return e.grid }

// Step runs one round: a full satisfaction scan over every occupied
// cell, then one atomic batch relocation of all unsatisfied agents.
// It returns the stat for the round.
//
// Relocation pools the previously-empty cells with the cells vacated
// this round, shuffles the pool with the engine's random source, and
// assigns one pooled cell per mover. An agent may land back on its own
// origin by chance. The grid is not mutated until the scan is
// complete, so a failed call leaves the grid untouched.
func (e *Engine) Step() (RoundStat, error) {
	if e.grid == nil {
		return RoundStat{}, ErrNotInitialized
	}
	g := e.grid

	// Scan pass: classify every cell. Single sweep with per-cell
	// neighbor counting; no grid mutation yet.
	var (
		pool       []grid.Point // empty cells, then vacated cells
		origins    []grid.Point
		movers     []grid.Occupant
		population int
	)
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			occ := g.At(x, y)
			if occ == grid.Empty {
				pool = append(pool, grid.Point{X: x, Y: y})
				continue
			}
			population++
			same, other := g.NeighborCounts(x, y)
			if same+other == 0 {
				// No occupied neighbors: satisfied by definition.
				continue
			}
			ratio := float64(same) / float64(same+other)
			if ratio < e.cfg.Threshold {
				origins = append(origins, grid.Point{X: x, Y: y})
				movers = append(movers, occ)
			}
		}
	}

	// Relocation pass: vacate all movers, then assign destinations
	// from the shuffled pool. The pool is at least as large as the
	// mover set because every vacated cell joins it.
	for _, p := range origins {
		g.Set(p.X, p.Y, grid.Empty)
		pool = append(pool, p)
	}
	e.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	for i, occ := range movers {
		g.Set(pool[i].X, pool[i].Y, occ)
	}

	stat := RoundStat{
		Moved:          len(movers),
		MeanSimilarity: MeanSimilarity(g),
	}
	if population > 0 {
		stat.UnsatisfiedFrac = float64(len(movers)) / float64(population)
	}
	return stat, nil
}

// Run executes Step the given number of times, sequentially. Rounds
// are numbered from 1. With opts.StopWhenSettled the run ends after
// the first zero-move round; otherwise all rounds execute.
func (e *Engine) Run(rounds int, opts RunOptions) (Result, error) {
	if rounds < 0 {
		return Result{}, fmt.Errorf("%w: rounds must be >= 0, got %d", grid.ErrConfig, rounds)
	}
	if e.grid == nil {
		return Result{}, ErrNotInitialized
	}

	var res Result
	for round := 1; round <= rounds; round++ {
		stat, err := e.Step()
		if err != nil {
			return res, err
		}
		stat.Round = round
		res.Rounds = append(res.Rounds, stat)
		if opts.OnRound != nil {
			opts.OnRound(stat)
		}
		res.Settled = stat.Moved == 0
		if res.Settled && opts.StopWhenSettled {
			break
		}
	}
	return res, nil
}
