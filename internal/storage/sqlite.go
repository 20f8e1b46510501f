// Package storage persists training-run history: one row per run and one
// row per validation checkpoint (step, training loss, infinity-norm error).
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spinn-ml/spinn/internal/train"

	_ "modernc.org/sqlite"
)

// RunInfo describes one training run.
type RunInfo struct {
	Kernel string
	Steps  int
	Seed   uint64
}

// SQLiteStore records runs and checkpoints in a SQLite database.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore creates a store backed by the database at path. Call Init
// before use.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Init opens the database and creates the schema if needed. Idempotent.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("storage: sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			kernel     TEXT NOT NULL,
			steps      INTEGER NOT NULL,
			seed       INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS checkpoints (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			step   INTEGER NOT NULL,
			loss   REAL NOT NULL,
			linf   REAL NOT NULL,
			PRIMARY KEY (run_id, step)
		);
	`)
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("storage: store is not initialized")
	}
	return s.db, nil
}

// StartRun inserts a run row and returns its id.
func (s *SQLiteStore) StartRun(ctx context.Context, info RunInfo) (int64, error) {
	db, err := s.getDB()
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO runs (started_at, kernel, steps, seed)
		VALUES (?, ?, ?, ?)
	`, time.Now().UTC().Format(time.RFC3339), info.Kernel, info.Steps, int64(info.Seed))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecordCheckpoint upserts one checkpoint row for the run.
func (s *SQLiteStore) RecordCheckpoint(ctx context.Context, runID int64, c train.Checkpoint) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO checkpoints (run_id, step, loss, linf)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, step) DO UPDATE SET
			loss = excluded.loss,
			linf = excluded.linf
	`, runID, c.Step, c.Loss, c.LinfError)
	return err
}

// Checkpoints returns the run's checkpoints in step order.
func (s *SQLiteStore) Checkpoints(ctx context.Context, runID int64) ([]train.Checkpoint, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT step, loss, linf FROM checkpoints
		WHERE run_id = ? ORDER BY step
	`, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []train.Checkpoint
	for rows.Next() {
		var c train.Checkpoint
		if err := rows.Scan(&c.Step, &c.Loss, &c.LinfError); err != nil {
			return nil, fmt.Errorf("storage: scan checkpoint: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Recorder adapts the store to the train.Recorder interface for one run.
func (s *SQLiteStore) Recorder(ctx context.Context, runID int64) train.Recorder {
	return train.RecorderFunc(func(c train.Checkpoint) error {
		return s.RecordCheckpoint(ctx, runID, c)
	})
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
