package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/switchboard/pkg/domain"
)

// LogHooks returns lifecycle hooks that write one record per event.
// Node enter and route records are Debug, failures are Error.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter", "session_id", e.SessionID, "node", e.Node, "step", e.Step)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "node_leave", "session_id", e.SessionID, "node", e.Node, "duration", e.Duration, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "node_leave", "session_id", e.SessionID, "node", e.Node, "duration", e.Duration)
		},
		OnRoute: func(ctx context.Context, e *domain.RouteEvent) {
			logger.DebugContext(ctx, "route", "session_id", e.SessionID, "from", e.From, "to", e.To, "conditional", e.Conditional)
		},
		OnCheckpoint: func(ctx context.Context, e *domain.CheckpointEvent) {
			logger.DebugContext(ctx, "checkpoint", "session_id", e.SessionID, "last_node", e.LastNode, "messages", e.Messages)
		},
	}
}
