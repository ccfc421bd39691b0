package ports

import (
	"context"
	"errors"

	"github.com/aretw0/switchboard/pkg/domain"
)

// CheckpointStore defines the interface for persisting session checkpoints.
// This allows for durable execution, enabling "Stop & Resume" conversations.
type CheckpointStore interface {
	// Load retrieves the latest checkpoint for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Checkpoint, error)

	// Save persists the checkpoint, replacing any previous one of the same session.
	Save(ctx context.Context, cp *domain.Checkpoint) error

	// Clear removes the session. Clearing an unknown session is not an error.
	Clear(ctx context.Context, sessionID string) error
}

// Lister is implemented by stores that can enumerate their sessions.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// ErrListNotSupported is returned when a store cannot enumerate sessions.
var ErrListNotSupported = errors.New("store does not support listing sessions")
