// Package grid implements the lattice state for the segregation model:
// a bounded 2-D grid of cells, each empty or occupied by an agent
// carrying an immutable group identity.
package grid

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrConfig is returned when grid parameters are out of range.
var ErrConfig = errors.New("invalid configuration")

// Occupant is the state of a single cell: Empty, or a group identity
// in 1..Groups.
type Occupant int

// Empty marks an unoccupied cell.
const Empty Occupant = 0

// Point is a cell coordinate. X is the column, Y the row.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Cell pairs a coordinate with its occupant state, for snapshot
// consumers (renderers, plotting collaborators).
type Cell struct {
	Point
	Occupant Occupant `json:"occupant"`
}

// Grid is a bounded M×N lattice stored as a flat row-stride slice.
// It is a plain value container: all dynamics live in the sim package.
type Grid struct {
	width  int
	height int
	groups int
	cells  []Occupant // cells[y*width+x]
}

// New creates a grid and assigns each cell independently: Empty with
// probability emptyFrac, otherwise uniformly one of groups identities.
// Group counts therefore follow a multinomial draw, not an exact
// partition; callers needing exact counts must build the grid
// themselves via FromCells.
func New(width, height, groups int, emptyFrac float64, rng *rand.Rand) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %dx%d", ErrConfig, width, height)
	}
	if groups < 1 {
		return nil, fmt.Errorf("%w: groups must be >= 1, got %d", ErrConfig, groups)
	}
	if emptyFrac < 0 || emptyFrac >= 1 {
		return nil, fmt.Errorf("%w: empty fraction must be in [0,1), got %g", ErrConfig, emptyFrac)
	}

	g := &Grid{
		width:  width,
		height: height,
		groups: groups,
		cells:  make([]Occupant, width*height),
	}
	for i := range g.cells {
		if rng.Float64() < emptyFrac {
			g.cells[i] = Empty
			continue
		}
		g.cells[i] = Occupant(1 + rng.Intn(groups))
	}
	return g, nil
}

// FromCells builds a grid from an explicit row-major cell layout.
// Used by tests and by snapshot restore; the layout length must equal
// width*height and occupants must be Empty or within 1..groups.
func FromCells(width, height, groups int, cells []Occupant) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %dx%d", ErrConfig, width, height)
	}
	if groups < 1 {
		return nil, fmt.Errorf("%w: groups must be >= 1, got %d", ErrConfig, groups)
	}
	if len(cells) != width*height {
		return nil, fmt.Errorf("%w: expected %d cells, got %d", ErrConfig, width*height, len(cells))
	}
	for i, c := range cells {
		if c < Empty || int(c) > groups {
			return nil, fmt.Errorf("%w: cell %d has occupant %d outside 0..%d", ErrConfig, i, c, groups)
		}
	}
	g := &Grid{
		width:  width,
		height: height,
		groups: groups,
		cells:  make([]Occupant, len(cells)),
	}
	copy(g.cells, cells)
	return g, nil
}

// Width returns the grid width (number of columns).
func (g *Grid) Width() int { return g.width }

// Height returns the grid height (number of rows).
func (g *Grid) Height() int { return g.height }

// Groups returns the number of group identities.
func (g *Grid) Groups() int { return g.groups }

// Size returns the total cell count.
func (g *Grid) Size() int { return len(g.cells) }

// At returns the occupant of cell (x, y). Coordinates must be in bounds.
func (g *Grid) At(x, y int) Occupant {
	return g.cells[y*g.width+x]
}

// Set replaces the occupant of cell (x, y).
func (g *Grid) Set(x, y int, occ Occupant) {
	g.cells[y*g.width+x] = occ
}

// NeighborCounts returns the number of occupied Moore neighbors of
// (x, y) that share the occupant's group (same) and that belong to a
// different group (other). The neighborhood is truncated at the grid
// boundary: no wraparound.
func (g *Grid) NeighborCounts(x, y int) (same, other int) {
	occ := g.At(x, y)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || nx >= g.width || ny < 0 || ny >= g.height {
				continue
			}
			n := g.At(nx, ny)
			if n == Empty {
				continue
			}
			if n == occ {
				same++
			} else {
				other++
			}
		}
	}
	return same, other
}

// Population returns the number of occupied cells.
func (g *Grid) Population() int {
	count := 0
	for _, c := range g.cells {
		if c != Empty {
			count++
		}
	}
	return count
}

// GroupCounts returns the population of each group. Index i holds the
// count for group i; index 0 holds the empty-cell count.
func (g *Grid) GroupCounts() []int {
	counts := make([]int, g.groups+1)
	for _, c := range g.cells {
		counts[c]++
	}
	return counts
}

// Snapshot returns a read-only copy of every cell with its coordinates
// and occupant state, in row-major order.
func (g *Grid) Snapshot() []Cell {
	cells := make([]Cell, 0, len(g.cells))
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			cells = append(cells, Cell{
				Point:    Point{X: x, Y: y},
				Occupant: g.At(x, y),
			})
		}
	}
	return cells
}

// Cells returns a copy of the raw row-major occupant layout.
func (g *Grid) Cells() []Occupant {
	out := make([]Occupant, len(g.cells))
	copy(out, g.cells)
	return out
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := &Grid{
		width:  g.width,
		height: g.height,
		groups: g.groups,
		cells:  make([]Occupant, len(g.cells)),
	}
	copy(c.cells, g.cells)
	return c
}

// Equal reports whether two grids have identical dimensions and cell
// layouts.
func (g *Grid) Equal(o *Grid) bool {
	if g.width != o.width || g.height != o.height || g.groups != o.groups {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}
