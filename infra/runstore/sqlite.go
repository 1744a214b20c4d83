package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists runs in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS dispatch_runs (
        run_id TEXT PRIMARY KEY,
        policy TEXT,
        completed_at INTEGER,
        report TEXT
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Save inserts or replaces the run.
func (s *SQLiteStore) Save(ctx context.Context, run Run) error {
	data, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("runstore: encode report: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO dispatch_runs (run_id, policy, completed_at, report)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(run_id) DO UPDATE SET
            policy = excluded.policy,
            completed_at = excluded.completed_at,
            report = excluded.report`,
		run.RunID, run.Policy, run.CompletedAt.UnixNano(), string(data))
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, runID string) (Run, error) {
	runs, err := s.query(ctx, `SELECT run_id, policy, completed_at, report FROM dispatch_runs WHERE run_id = ?`, runID)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ErrNotFound
	}
	return runs[0], nil
}

func (s *SQLiteStore) Latest(ctx context.Context) (Run, error) {
	runs, err := s.List(ctx, 1)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ErrNotFound
	}
	return runs[0], nil
}

// List returns runs ordered by completion time, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT run_id, policy, completed_at, report FROM dispatch_runs ORDER BY completed_at DESC, rowid DESC`
	if limit > 0 {
		return s.query(ctx, q+` LIMIT ?`, limit)
	}
	return s.query(ctx, q)
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Run
	for rows.Next() {
		var r Run
		var ts int64
		var data string
		if err := rows.Scan(&r.RunID, &r.Policy, &ts, &data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &r.Report); err != nil {
			return nil, fmt.Errorf("runstore: decode report %s: %w", r.RunID, err)
		}
		r.CompletedAt = time.Unix(0, ts).UTC()
		res = append(res, r)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
