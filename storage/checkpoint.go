// Package storage persists conversation state between turns.
//
// Information Hiding:
// - Serialization format hidden
// - SQLite connection management hidden behind the interface
package storage

import (
	"context"

	"github.com/mink555/covergate/graph"
)

// CheckpointStore loads and saves a session's TurnState so multi-turn
// conversations survive across calls and process restarts.
type CheckpointStore interface {
	// Load returns the state for a session. found is false for a
	// session that has never been saved.
	Load(ctx context.Context, sessionID string) (state graph.TurnState, found bool, err error)

	// Save persists the full state for a session, replacing any
	// previous checkpoint.
	Save(ctx context.Context, sessionID string, state graph.TurnState) error

	// Delete removes a session's checkpoint. Deleting an unknown
	// session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// Close releases underlying resources.
	Close() error
}
