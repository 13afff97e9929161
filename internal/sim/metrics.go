package sim

import "github.com/avandermeer/segsim/internal/grid"

// MeanSimilarity returns the mean same-group neighbor share over all
// agents that have at least one occupied neighbor. Returns 0 for a
// grid with no such agents.
func MeanSimilarity(g *grid.Grid) float64 {
	var sum float64
	var agents int
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			if g.At(x, y) == grid.Empty {
				continue
			}
			same, other := g.NeighborCounts(x, y)
			if same+other == 0 {
				continue
			}
			sum += float64(same) / float64(same+other)
			agents++
		}
	}
	if agents == 0 {
		return 0
	}
	return sum / float64(agents)
}

// UnsatisfiedCount returns the number of agents whose same-group
// neighbor ratio is strictly below threshold. Agents with no occupied
// neighbors never count.
func UnsatisfiedCount(g *grid.Grid, threshold float64) int {
	count := 0
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			if g.At(x, y) == grid.Empty {
				continue
			}
			same, other := g.NeighborCounts(x, y)
			if same+other == 0 {
				continue
			}
			if float64(same)/float64(same+other) < threshold {
				count++
			}
		}
	}
	return count
}
