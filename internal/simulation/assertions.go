package simulation

import (
	"testing"
)

// AssertPopulationConserved asserts that agents are neither created nor
// destroyed: per-group counts of the final grid match the initial grid.
func AssertPopulationConserved(t *testing.T, result Result) {
	t.Helper()
	initial := result.Initial.GroupCounts()
	final := result.Final.GroupCounts()
	if len(initial) != len(final) {
		t.Fatalf("AssertPopulationConserved: group count length changed: %d vs %d", len(initial), len(final))
	}
	for group := range initial {
		if initial[group] != final[group] {
			t.Errorf("AssertPopulationConserved: group %d: %d agents initially, %d finally", group, initial[group], final[group])
		}
	}
}

// AssertSimilarityRises asserts that mean neighborhood similarity does not
// fall between the first and last round.
func AssertSimilarityRises(t *testing.T, result Result) {
	t.Helper()
	if len(result.Rounds) < 2 {
		t.Fatalf("AssertSimilarityRises: need at least 2 rounds, got %d", len(result.Rounds))
	}
	first, last := result.FirstRound(), result.LastRound()
	if last.MeanSimilarity < first.MeanSimilarity {
		t.Errorf("AssertSimilarityRises: similarity fell from %.4f (round %d) to %.4f (round %d)",
			first.MeanSimilarity, first.Round, last.MeanSimilarity, last.Round)
	}
}

// AssertSettledWithin asserts the run reached a round with zero movers
// within maxRounds.
func AssertSettledWithin(t *testing.T, result Result, maxRounds int) {
	t.Helper()
	for _, s := range result.Rounds {
		if s.Moved == 0 {
			if s.Round > maxRounds {
				t.Errorf("AssertSettledWithin: first settled round %d exceeds %d", s.Round, maxRounds)
			}
			return
		}
	}
	t.Errorf("AssertSettledWithin: never settled in %d rounds", len(result.Rounds))
}

// AssertNoMoves asserts that no agent moved in any round.
func AssertNoMoves(t *testing.T, result Result) {
	t.Helper()
	if moved := result.TotalMoved(); moved != 0 {
		t.Errorf("AssertNoMoves: %d agents moved", moved)
	}
	if !result.Initial.Equal(result.Final) {
		t.Error("AssertNoMoves: grid changed despite zero reported moves")
	}
}

// AssertIdenticalOutcome asserts two results produced the same final grid
// and the same per-round mover counts.
func AssertIdenticalOutcome(t *testing.T, a, b Result) {
	t.Helper()
	if !a.Final.Equal(b.Final) {
		t.Error("AssertIdenticalOutcome: final grids differ")
	}
	if len(a.Rounds) != len(b.Rounds) {
		t.Fatalf("AssertIdenticalOutcome: round counts differ: %d vs %d", len(a.Rounds), len(b.Rounds))
	}
	for i := range a.Rounds {
		if a.Rounds[i].Moved != b.Rounds[i].Moved {
			t.Errorf("AssertIdenticalOutcome: round %d: %d vs %d movers", a.Rounds[i].Round, a.Rounds[i].Moved, b.Rounds[i].Moved)
		}
	}
}
