package runtime

import (
	"context"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
)

func (e *Engine) base(t domain.EventType, cp *domain.Checkpoint) domain.EventBase {
	return domain.EventBase{
		Timestamp: e.now(),
		Type:      t,
		SessionID: cp.SessionID,
		Step:      cp.Step,
	}
}

func (e *Engine) emitNode(ctx context.Context, t domain.EventType, cp *domain.Checkpoint, node string, d time.Duration, err error) {
	hook := e.hooks.OnNodeEnter
	if t == domain.EventNodeLeave {
		hook = e.hooks.OnNodeLeave
	}
	if hook == nil {
		return
	}
	hook(ctx, &domain.NodeEvent{EventBase: e.base(t, cp), Node: node, Duration: d, Err: err})
}

func (e *Engine) emitRoute(ctx context.Context, cp *domain.Checkpoint, from, to string, conditional bool) {
	if e.hooks.OnRoute == nil {
		return
	}
	e.hooks.OnRoute(ctx, &domain.RouteEvent{
		EventBase:   e.base(domain.EventRoute, cp),
		From:        from,
		To:          to,
		Conditional: conditional,
	})
}

func (e *Engine) emitCheckpoint(ctx context.Context, cp *domain.Checkpoint) {
	if e.hooks.OnCheckpoint == nil {
		return
	}
	e.hooks.OnCheckpoint(ctx, &domain.CheckpointEvent{
		EventBase: e.base(domain.EventCheckpoint, cp),
		LastNode:  cp.LastNode,
		Messages:  cp.State.Len(),
	})
}
