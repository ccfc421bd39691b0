// Package middleware wraps checkpoint stores with persistence-time transforms.
package middleware

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

// Middleware allows wrapping a CheckpointStore to add behavior.
type Middleware func(ports.CheckpointStore) ports.CheckpointStore

// Chain applies mws to store. The first middleware is the outermost:
// it sees a Save first and a Load last.
func Chain(store ports.CheckpointStore, mws ...Middleware) ports.CheckpointStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

// passthrough forwards Clear and List to the wrapped store.
type passthrough struct {
	next ports.CheckpointStore
}

func (p passthrough) Clear(ctx context.Context, sessionID string) error {
	return p.next.Clear(ctx, sessionID)
}

func (p passthrough) List(ctx context.Context) ([]string, error) {
	lister, ok := p.next.(ports.Lister)
	if !ok {
		return nil, ports.ErrListNotSupported
	}
	return lister.List(ctx)
}

// withState returns a shallow copy of cp carrying state.
func withState(cp *domain.Checkpoint, state domain.ConversationState) *domain.Checkpoint {
	out := *cp
	out.State = state
	return &out
}
