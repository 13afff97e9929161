// Package simulation provides a test harness for validating emergent
// dynamics of the segregation engine.
//
// Scenarios exercise the real Engine and SQLiteRunStore — no mocks. Each
// scenario builds a grid (random or explicit layout), runs a configurable
// number of rounds, persists the run, and returns the collected series for
// property-based assertions.
//
// Each test gets an isolated SQLite database via t.TempDir().
//
// Usage:
//
//	func TestClustering(t *testing.T) {
//	    r := simulation.NewRunner(t)
//	    result := r.Run(simulation.Scenario{
//	        Name:   "clustering",
//	        Config: sim.DefaultConfig(),
//	        Rounds: 40,
//	    })
//	    simulation.AssertPopulationConserved(t, result)
//	}
package simulation
