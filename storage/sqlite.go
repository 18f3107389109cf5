package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mink555/covergate/graph"
)

// SqliteCheckpoints implements CheckpointStore on a SQLite file.
// State is stored as one JSON blob per session.
// Thread-safe: sql.DB handles connection pooling and concurrent access.
type SqliteCheckpoints struct {
	db *sql.DB
}

var _ CheckpointStore = (*SqliteCheckpoints)(nil)

// OpenSqlite opens or creates a checkpoint database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteCheckpoints, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	store := &SqliteCheckpoints{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// OpenSqliteInMemory creates an in-memory database (useful for testing).
func OpenSqliteInMemory() (*SqliteCheckpoints, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}

	store := &SqliteCheckpoints{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *SqliteCheckpoints) Close() error {
	return s.db.Close()
}

func (s *SqliteCheckpoints) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS checkpoints (
			session_id TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load returns the stored state for a session.
func (s *SqliteCheckpoints) Load(ctx context.Context, sessionID string) (graph.TurnState, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM checkpoints WHERE session_id = ?`, sessionID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return graph.TurnState{}, false, nil
	}
	if err != nil {
		return graph.TurnState{}, false, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	var state graph.TurnState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return graph.TurnState{}, false, fmt.Errorf("corrupt checkpoint for session %s: %w", sessionID, err)
	}
	return state, true, nil
}

// Save persists the full state for a session, replacing any previous checkpoint.
func (s *SqliteCheckpoints) Save(ctx context.Context, sessionID string, state graph.TurnState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to serialize checkpoint: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (session_id, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at
	`, sessionID, string(raw), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Delete removes a session's checkpoint.
func (s *SqliteCheckpoints) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM checkpoints WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}
