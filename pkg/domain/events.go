package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter  EventType = "node_enter"
	EventNodeLeave  EventType = "node_leave"
	EventRoute      EventType = "route"
	EventCheckpoint EventType = "checkpoint"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Step      int       `json:"step"`
}

// NodeEvent represents entry into or exit from a node.
type NodeEvent struct {
	EventBase
	Node     string        `json:"node"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// RouteEvent represents the transition chosen after a step.
type RouteEvent struct {
	EventBase
	From        string `json:"from"`
	To          string `json:"to"`
	Conditional bool   `json:"conditional"`
}

// CheckpointEvent is emitted after a checkpoint was persisted.
type CheckpointEvent struct {
	EventBase
	LastNode string `json:"last_node"`
	Messages int    `json:"messages"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnNodeEnter  func(context.Context, *NodeEvent)
	OnNodeLeave  func(context.Context, *NodeEvent)
	OnRoute      func(context.Context, *RouteEvent)
	OnCheckpoint func(context.Context, *CheckpointEvent)
}

// ComposeHooks fans every callback out to all the given hook sets, in order.
func ComposeHooks(hooks ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range hooks {
		h := h
		if h.OnNodeEnter != nil {
			prev := out.OnNodeEnter
			out.OnNodeEnter = func(ctx context.Context, e *NodeEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnNodeEnter(ctx, e)
			}
		}
		if h.OnNodeLeave != nil {
			prev := out.OnNodeLeave
			out.OnNodeLeave = func(ctx context.Context, e *NodeEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnNodeLeave(ctx, e)
			}
		}
		if h.OnRoute != nil {
			prev := out.OnRoute
			out.OnRoute = func(ctx context.Context, e *RouteEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnRoute(ctx, e)
			}
		}
		if h.OnCheckpoint != nil {
			prev := out.OnCheckpoint
			out.OnCheckpoint = func(ctx context.Context, e *CheckpointEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnCheckpoint(ctx, e)
			}
		}
	}
	return out
}
