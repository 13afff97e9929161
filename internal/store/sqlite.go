package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/avandermeer/segsim/internal/grid"
)

// SQLiteRunStore implements RunStore using SQLite for persistence.
type SQLiteRunStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteRunStore opens (or creates) the SQLite store at dbPath.
// The parent directory is created if needed.
func NewSQLiteRunStore(dbPath string) (*SQLiteRunStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRunStore{db: db, dbPath: dbPath}, nil
}

// CreateRun records a new run and returns its ID.
func (s *SQLiteRunStore) CreateRun(ctx context.Context, run Run) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (created_at, width, height, group_count, empty_fraction, threshold, seed, rounds)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		time.Now().UTC().Format(time.RFC3339Nano),
		run.Width, run.Height, run.Groups, run.EmptyFraction, run.Threshold, run.Seed)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}
	return id, nil
}

// FinishRun records the number of rounds a run executed.
func (s *SQLiteRunStore) FinishRun(ctx context.Context, runID int64, rounds int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET rounds = ? WHERE id = ?`, rounds, runID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	return nil
}

// AddRound appends a round record to a run.
func (s *SQLiteRunStore) AddRound(ctx context.Context, round Round) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rounds (run_id, round, moved, unsatisfied_frac, mean_similarity)
		VALUES (?, ?, ?, ?, ?)`,
		round.RunID, round.Round, round.Moved, round.UnsatisfiedFrac, round.MeanSimilarity)
	if err != nil {
		return fmt.Errorf("failed to insert round: %w", err)
	}
	return nil
}

// SaveSnapshot stores a grid snapshot for a run.
func (s *SQLiteRunStore) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	cells, err := json.Marshal(snap.Cells)
	if err != nil {
		return fmt.Errorf("failed to marshal cells: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO snapshots (run_id, round, width, height, group_count, cells)
		VALUES (?, ?, ?, ?, ?, ?)`,
		snap.RunID, snap.Round, snap.Width, snap.Height, snap.Groups, string(cells))
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// GetRun returns a run by ID.
func (s *SQLiteRunStore) GetRun(ctx context.Context, id int64) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, width, height, group_count, empty_fraction, threshold, seed, rounds
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return run, nil
}

// ListRuns returns all runs, newest first.
func (s *SQLiteRunStore) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, width, height, group_count, empty_fraction, threshold, seed, rounds
		FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRounds returns a run's round series in round order.
func (s *SQLiteRunStore) GetRounds(ctx context.Context, runID int64) ([]Round, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, round, moved, unsatisfied_frac, mean_similarity
		FROM rounds WHERE run_id = ? ORDER BY round`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %w", err)
	}
	defer rows.Close()

	var series []Round
	for rows.Next() {
		var r Round
		if err := rows.Scan(&r.RunID, &r.Round, &r.Moved, &r.UnsatisfiedFrac, &r.MeanSimilarity); err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		series = append(series, r)
	}
	return series, rows.Err()
}

// GetSnapshot returns the snapshot for a run and round.
func (s *SQLiteRunStore) GetSnapshot(ctx context.Context, runID int64, round int) (*Snapshot, error) {
	var (
		snap  Snapshot
		cells string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, round, width, height, group_count, cells
		FROM snapshots WHERE run_id = ? AND round = ?`, runID, round).
		Scan(&snap.RunID, &snap.Round, &snap.Width, &snap.Height, &snap.Groups, &cells)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot %d/%d: %w", runID, round, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}

	if err := json.Unmarshal([]byte(cells), &snap.Cells); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cells: %w", err)
	}
	// Guard against corrupted rows
	if _, err := grid.FromCells(snap.Width, snap.Height, snap.Groups, snap.Cells); err != nil {
		return nil, fmt.Errorf("invalid snapshot %d/%d: %w", runID, round, err)
	}
	return &snap, nil
}

// Close closes the database.
func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run       Run
		createdAt string
	)
	err := row.Scan(&run.ID, &createdAt, &run.Width, &run.Height, &run.Groups,
		&run.EmptyFraction, &run.Threshold, &run.Seed, &run.Rounds)
	if err != nil {
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		run.CreatedAt = t
	}
	return &run, nil
}
