package visualization

import (
	"strings"

	"github.com/avandermeer/segsim/internal/grid"
)

// RenderASCII renders the grid as text, one row per line. Empty cells
// are '.', group n is its digit for n <= 9 and an uppercase letter above.
func RenderASCII(g *grid.Grid) string {
	var b strings.Builder
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			if x > 0 {
				b.WriteByte(' ')
			}
			b.WriteByte(occupantRune(g.At(x, y)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func occupantRune(o grid.Occupant) byte {
	switch {
	case o == grid.Empty:
		return '.'
	case o <= 9:
		return byte('0' + o)
	default:
		return byte('A' + o - 10)
	}
}
