package graph

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Action is the unit of work of a node. It receives the current merged state and
// returns the partial update to append.
type Action func(ctx context.Context, state domain.ConversationState) (domain.Update, error)

// Node is a named stage of the conversation.
type Node struct {
	Name   string
	Action Action
}

// Router picks the successor of a conditional edge from the merged state.
type Router func(state domain.ConversationState) string

// CandidateRouter is a router that knows its possible results up front.
type CandidateRouter interface {
	Route(state domain.ConversationState) string
	Candidates() []string
}
