package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/avandermeer/segsim/internal/grid"
)

// MemoryRunStore implements RunStore in memory. Useful for tests and
// for runs that do not need persistence.
type MemoryRunStore struct {
	mu        sync.RWMutex
	nextID    int64
	runs      map[int64]Run
	rounds    map[int64][]Round
	snapshots map[int64]map[int]Snapshot
}

// NewMemoryRunStore creates an empty in-memory run store.
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{
		nextID:    1,
		runs:      make(map[int64]Run),
		rounds:    make(map[int64][]Round),
		snapshots: make(map[int64]map[int]Snapshot),
	}
}

// CreateRun records a new run and returns its ID.
func (s *MemoryRunStore) CreateRun(ctx context.Context, run Run) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run.ID = s.nextID
	run.CreatedAt = time.Now().UTC()
	run.Rounds = 0
	s.nextID++
	s.runs[run.ID] = run
	return run.ID, nil
}

// FinishRun records the number of rounds a run executed.
func (s *MemoryRunStore) FinishRun(ctx context.Context, runID int64, rounds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	run.Rounds = rounds
	s.runs[runID] = run
	return nil
}

// AddRound appends a round record to a run.
func (s *MemoryRunStore) AddRound(ctx context.Context, round Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rounds[round.RunID] = append(s.rounds[round.RunID], round)
	return nil
}

// SaveSnapshot stores a grid snapshot for a run.
func (s *MemoryRunStore) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byRound, ok := s.snapshots[snap.RunID]
	if !ok {
		byRound = make(map[int]Snapshot)
		s.snapshots[snap.RunID] = byRound
	}
	snap.Cells = append([]grid.Occupant(nil), snap.Cells...)
	byRound[snap.Round] = snap
	return nil
}

// GetRun returns a run by ID.
func (s *MemoryRunStore) GetRun(ctx context.Context, id int64) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %d: %w", id, ErrNotFound)
	}
	return &run, nil
}

// ListRuns returns all runs, newest first.
func (s *MemoryRunStore) ListRuns(ctx context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]Run, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })
	return runs, nil
}

// GetRounds returns a run's round series in round order.
func (s *MemoryRunStore) GetRounds(ctx context.Context, runID int64) ([]Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := append([]Round(nil), s.rounds[runID]...)
	sort.Slice(series, func(i, j int) bool { return series[i].Round < series[j].Round })
	return series, nil
}

// GetSnapshot returns the snapshot for a run and round.
func (s *MemoryRunStore) GetSnapshot(ctx context.Context, runID int64, round int) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[runID][round]
	if !ok {
		return nil, fmt.Errorf("snapshot %d/%d: %w", runID, round, ErrNotFound)
	}
	return &snap, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryRunStore) Close() error {
	return nil
}
