package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLite is a single-file VertexPersister, following the teacher's
// SQLiteStore[S] (graph/store/sqlite.go): WAL mode for concurrent reads,
// a single writer connection, auto-migrated schema on first use.
//
// Designed for development, single-process jobs and prototyping before a
// job graduates to a shared backend.
type SQLite struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLite opens (creating if necessary) a SQLite-backed VertexPersister
// at path. Use ":memory:" for a throwaway in-process database.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("pregel/store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pregel/store: %s: %w", pragma, err)
		}
	}

	s := &SQLite{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) createTables(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS vertex_snapshots (
			job_id TEXT NOT NULL,
			worker_id TEXT NOT NULL,
			superstep INTEGER NOT NULL,
			vertices TEXT NOT NULL,
			PRIMARY KEY (job_id, worker_id)
		)
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("pregel/store: create vertex_snapshots table: %w", err)
	}
	return nil
}

func (s *SQLite) SaveSnapshot(ctx context.Context, jobID, workerID string, superstep int32, vertices []VertexRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(vertices)
	if err != nil {
		return fmt.Errorf("pregel/store: marshal snapshot: %w", err)
	}

	const query = `
		INSERT INTO vertex_snapshots (job_id, worker_id, superstep, vertices)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(job_id, worker_id) DO UPDATE SET
			superstep = excluded.superstep,
			vertices = excluded.vertices
	`
	if _, err := s.db.ExecContext(ctx, query, jobID, workerID, superstep, string(data)); err != nil {
		return fmt.Errorf("pregel/store: save snapshot: %w", err)
	}
	return nil
}

func (s *SQLite) LoadLatestSnapshot(ctx context.Context, jobID, workerID string) ([]VertexRecord, int32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const query = `
		SELECT superstep, vertices FROM vertex_snapshots
		WHERE job_id = ? AND worker_id = ?
	`
	var (
		superstep int32
		data      string
	)
	err := s.db.QueryRowContext(ctx, query, jobID, workerID).Scan(&superstep, &data)
	if err == sql.ErrNoRows {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("pregel/store: load snapshot: %w", err)
	}

	var vertices []VertexRecord
	if err := json.Unmarshal([]byte(data), &vertices); err != nil {
		return nil, 0, fmt.Errorf("pregel/store: unmarshal snapshot: %w", err)
	}
	return vertices, superstep, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

var _ VertexPersister = (*SQLite)(nil)
