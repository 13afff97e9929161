package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/avandermeer/segsim/internal/grid"
)

// storeFactory builds a fresh empty RunStore for a subtest.
type storeFactory func(t *testing.T) RunStore

func sqliteFactory(t *testing.T) RunStore {
	t.Helper()
	s, err := NewSQLiteRunStore(filepath.Join(t.TempDir(), "segsim.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRunStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func memoryFactory(t *testing.T) RunStore {
	t.Helper()
	return NewMemoryRunStore()
}

func factories() map[string]storeFactory {
	return map[string]storeFactory{
		"sqlite": sqliteFactory,
		"memory": memoryFactory,
	}
}

func testRun() Run {
	return Run{
		Width:         10,
		Height:        8,
		Groups:        3,
		EmptyFraction: 0.2,
		Threshold:     0.5,
		Seed:          42,
	}
}

func TestRunStore_CreateAndGet(t *testing.T) {
	for name, factory := range factories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			id, err := s.CreateRun(ctx, testRun())
			if err != nil {
				t.Fatalf("CreateRun: %v", err)
			}
			if id == 0 {
				t.Fatal("expected non-zero run ID")
			}

			run, err := s.GetRun(ctx, id)
			if err != nil {
				t.Fatalf("GetRun: %v", err)
			}
			if run.Width != 10 || run.Height != 8 || run.Groups != 3 {
				t.Errorf("dimensions not persisted: %+v", run)
			}
			if run.EmptyFraction != 0.2 || run.Threshold != 0.5 || run.Seed != 42 {
				t.Errorf("parameters not persisted: %+v", run)
			}
			if run.CreatedAt.IsZero() {
				t.Error("created_at not set")
			}
			if run.Rounds != 0 {
				t.Errorf("new run should have 0 rounds, got %d", run.Rounds)
			}
		})
	}
}

func TestRunStore_GetRun_NotFound(t *testing.T) {
	for name, factory := range factories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			if _, err := s.GetRun(context.Background(), 999); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestRunStore_FinishRun(t *testing.T) {
	for name, factory := range factories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			id, err := s.CreateRun(ctx, testRun())
			if err != nil {
				t.Fatalf("CreateRun: %v", err)
			}
			if err := s.FinishRun(ctx, id, 25); err != nil {
				t.Fatalf("FinishRun: %v", err)
			}

			run, err := s.GetRun(ctx, id)
			if err != nil {
				t.Fatalf("GetRun: %v", err)
			}
			if run.Rounds != 25 {
				t.Errorf("expected 25 rounds, got %d", run.Rounds)
			}

			if err := s.FinishRun(ctx, 999, 1); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound for missing run, got %v", err)
			}
		})
	}
}

func TestRunStore_ListRuns_NewestFirst(t *testing.T) {
	for name, factory := range factories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			var ids []int64
			for i := 0; i < 3; i++ {
				id, err := s.CreateRun(ctx, testRun())
				if err != nil {
					t.Fatalf("CreateRun: %v", err)
				}
				ids = append(ids, id)
			}

			runs, err := s.ListRuns(ctx)
			if err != nil {
				t.Fatalf("ListRuns: %v", err)
			}
			if len(runs) != 3 {
				t.Fatalf("expected 3 runs, got %d", len(runs))
			}
			for i := range runs {
				if runs[i].ID != ids[len(ids)-1-i] {
					t.Errorf("position %d: got run %d, want %d", i, runs[i].ID, ids[len(ids)-1-i])
				}
			}
		})
	}
}

func TestRunStore_Rounds(t *testing.T) {
	for name, factory := range factories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			id, err := s.CreateRun(ctx, testRun())
			if err != nil {
				t.Fatalf("CreateRun: %v", err)
			}

			for i := 1; i <= 3; i++ {
				r := Round{
					RunID:           id,
					Round:           i,
					Moved:           10 - i,
					UnsatisfiedFrac: 0.1 * float64(i),
					MeanSimilarity:  0.5 + 0.1*float64(i),
				}
				if err := s.AddRound(ctx, r); err != nil {
					t.Fatalf("AddRound %d: %v", i, err)
				}
			}

			series, err := s.GetRounds(ctx, id)
			if err != nil {
				t.Fatalf("GetRounds: %v", err)
			}
			if len(series) != 3 {
				t.Fatalf("expected 3 rounds, got %d", len(series))
			}
			for i, r := range series {
				if r.Round != i+1 {
					t.Errorf("position %d: round %d out of order", i, r.Round)
				}
				if r.Moved != 10-(i+1) {
					t.Errorf("round %d: moved %d not persisted", r.Round, r.Moved)
				}
			}
		})
	}
}

func TestRunStore_SnapshotRoundTrip(t *testing.T) {
	for name, factory := range factories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			id, err := s.CreateRun(ctx, testRun())
			if err != nil {
				t.Fatalf("CreateRun: %v", err)
			}

			cells := []grid.Occupant{
				1, 2, grid.Empty,
				2, 1, 1,
			}
			snap := Snapshot{
				RunID:  id,
				Round:  0,
				Width:  3,
				Height: 2,
				Groups: 2,
				Cells:  cells,
			}
			if err := s.SaveSnapshot(ctx, snap); err != nil {
				t.Fatalf("SaveSnapshot: %v", err)
			}

			got, err := s.GetSnapshot(ctx, id, 0)
			if err != nil {
				t.Fatalf("GetSnapshot: %v", err)
			}
			if got.Width != 3 || got.Height != 2 || got.Groups != 2 {
				t.Errorf("dimensions not persisted: %+v", got)
			}
			if len(got.Cells) != len(cells) {
				t.Fatalf("expected %d cells, got %d", len(cells), len(got.Cells))
			}
			for i := range cells {
				if got.Cells[i] != cells[i] {
					t.Errorf("cell %d: got %d, want %d", i, got.Cells[i], cells[i])
				}
			}

			g, err := got.Grid()
			if err != nil {
				t.Fatalf("Grid: %v", err)
			}
			if g.At(1, 0) != 2 || g.At(2, 0) != grid.Empty {
				t.Error("reconstructed grid does not match layout")
			}

			if _, err := s.GetSnapshot(ctx, id, 99); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound for missing snapshot, got %v", err)
			}
		})
	}
}

func TestSQLiteRunStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segsim.db")
	ctx := context.Background()

	s, err := NewSQLiteRunStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteRunStore: %v", err)
	}
	id, err := s.CreateRun(ctx, testRun())
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := NewSQLiteRunStore(path)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer s2.Close()

	run, err := s2.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun after reopen: %v", err)
	}
	if run.Seed != 42 {
		t.Errorf("run not durable across reopen: %+v", run)
	}
}
