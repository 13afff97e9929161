package simulation

import (
	"context"
	"testing"
)

func TestRunPersistence(t *testing.T) {
	r := NewRunner(t)
	cfg := baseConfig()

	result := r.Run(Scenario{
		Name:   "persistence",
		Config: cfg,
		Rounds: 15,
	})

	ctx := context.Background()
	s := r.Store()

	run, err := s.GetRun(ctx, result.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Width != cfg.Width || run.Height != cfg.Height || run.Seed != cfg.Seed {
		t.Errorf("run parameters not persisted: %+v", run)
	}
	if run.Rounds != len(result.Rounds) {
		t.Errorf("run has %d rounds recorded, result has %d", run.Rounds, len(result.Rounds))
	}

	rounds, err := s.GetRounds(ctx, result.RunID)
	if err != nil {
		t.Fatalf("GetRounds: %v", err)
	}
	if len(rounds) != len(result.Rounds) {
		t.Fatalf("persisted %d rounds, result has %d", len(rounds), len(result.Rounds))
	}
	for i, stored := range rounds {
		got := result.Rounds[i]
		if stored.Round != got.Round || stored.Moved != got.Moved {
			t.Errorf("round %d: stored (%d, %d movers) != result (%d, %d movers)",
				i, stored.Round, stored.Moved, got.Round, got.Moved)
		}
	}

	initial, err := s.GetSnapshot(ctx, result.RunID, 0)
	if err != nil {
		t.Fatalf("GetSnapshot(0): %v", err)
	}
	g0, err := initial.Grid()
	if err != nil {
		t.Fatalf("initial snapshot grid: %v", err)
	}
	if !g0.Equal(result.Initial) {
		t.Error("initial snapshot does not match initial grid")
	}

	final, err := s.GetSnapshot(ctx, result.RunID, len(result.Rounds))
	if err != nil {
		t.Fatalf("GetSnapshot(final): %v", err)
	}
	gf, err := final.Grid()
	if err != nil {
		t.Fatalf("final snapshot grid: %v", err)
	}
	if !gf.Equal(result.Final) {
		t.Error("final snapshot does not match final grid")
	}
}
