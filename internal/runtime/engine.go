package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/graph"
	"github.com/aretw0/switchboard/pkg/session"
)

const tracerName = "github.com/aretw0/switchboard"

// Engine is the core graph runner.
// It holds no per-session state: everything it needs is loaded from the checkpoint store.
type Engine struct {
	graph     *graph.Graph
	sessions  *session.Manager
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	tracer    trace.Tracer
	stepLimit int
	now       func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracer sets the tracer used for node spans.
func WithTracer(tracer trace.Tracer) EngineOption {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithStepLimit bounds the number of steps a single run may take.
func WithStepLimit(limit int) EngineOption {
	return func(e *Engine) {
		if limit > 0 {
			e.stepLimit = limit
		}
	}
}

// WithClock overrides the time source used for checkpoints and events.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a new engine for a compiled graph.
func NewEngine(g *graph.Graph, sessions *session.Manager, opts ...EngineOption) *Engine {
	e := &Engine{
		graph:     g,
		sessions:  sessions,
		logger:    logging.NewNop(),
		tracer:    otel.Tracer(tracerName),
		stepLimit: domain.DefaultStepLimit,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the compiled graph the engine runs.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// Run drives the session until it reaches the terminal marker.
// A checkpoint is written after every step, so on error the returned checkpoint is the
// last one persisted and a later Run resumes from it.
func (e *Engine) Run(ctx context.Context, sessionID string, input []domain.Message) (*domain.Checkpoint, error) {
	if sessionID == "" {
		return nil, domain.ErrEmptySessionID
	}

	var result *domain.Checkpoint
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		store := e.sessions.Store()

		cp, err := e.begin(ctx, sessionID, input)
		if err != nil {
			return err
		}
		result = cp

		steps := 0
		for !cp.Done() {
			if err := ctx.Err(); err != nil {
				e.logger.Info("run cancelled", "session_id", sessionID, "node", cp.LastNode, "err", err)
				return err
			}
			if steps >= e.stepLimit {
				return &domain.StepLimitExceededError{SessionID: sessionID, Node: cp.LastNode, Limit: e.stepLimit}
			}

			next, err := e.step(ctx, cp)
			if err != nil {
				return err
			}
			if err := store.Save(ctx, next); err != nil {
				return fmt.Errorf("failed to save checkpoint: %w", err)
			}
			e.emitCheckpoint(ctx, next)

			cp = next
			result = cp
			steps++
		}
		return nil
	})
	return result, err
}

// begin loads the checkpoint to resume from, or initialises a new session.
func (e *Engine) begin(ctx context.Context, sessionID string, input []domain.Message) (*domain.Checkpoint, error) {
	cp, err := e.sessions.Store().Load(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		cp = domain.NewCheckpoint(sessionID, domain.NewConversationState(input...))
		cp.UpdatedAt = e.now()
		e.logger.Debug("session started", "session_id", sessionID)
		return cp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	switch {
	case cp.Done():
		if len(input) == 0 {
			return cp, nil
		}
		cp = cp.NextTurn(input)
		cp.UpdatedAt = e.now()
		e.logger.Debug("new turn", "session_id", sessionID, "turn", cp.Turn)
	case len(input) > 0:
		e.logger.Warn("ignoring input for a session in progress",
			"session_id", sessionID,
			"node", cp.LastNode,
			"messages", len(input),
		)
	}

	if cp.LastNode != domain.Entry && !cp.Done() {
		if _, ok := e.graph.Node(cp.LastNode); !ok {
			return nil, &domain.UnknownPositionError{SessionID: sessionID, Node: cp.LastNode}
		}
	}
	return cp, nil
}

// step executes the node at the checkpoint position and returns the checkpoint that follows it.
// Nothing is persisted here.
func (e *Engine) step(ctx context.Context, cp *domain.Checkpoint) (*domain.Checkpoint, error) {
	if cp.LastNode == domain.Entry {
		next := e.graph.EntryTarget()
		e.emitRoute(ctx, cp, domain.Entry, next, false)
		return cp.Advance(cp.State, next, e.now()), nil
	}

	name := cp.LastNode
	node, ok := e.graph.Node(name)
	if !ok {
		return nil, &domain.UnknownPositionError{SessionID: cp.SessionID, Node: name}
	}

	update, err := e.invoke(ctx, cp, node)
	if err != nil {
		return nil, &domain.NodeActionError{SessionID: cp.SessionID, Node: name, Err: err}
	}
	merged := domain.Merge(cp.State, update)

	next, conditional, err := e.resolve(cp.SessionID, name, merged)
	if err != nil {
		return nil, err
	}
	e.emitRoute(ctx, cp, name, next, conditional)

	e.logger.Debug("step",
		"session_id", cp.SessionID,
		"node", name,
		"next", next,
		"step", cp.Step+1,
	)
	return cp.Advance(merged, next, e.now()), nil
}

// invoke runs the node action inside a span and the enter/leave hooks.
func (e *Engine) invoke(ctx context.Context, cp *domain.Checkpoint, node graph.Node) (domain.Update, error) {
	e.emitNode(ctx, domain.EventNodeEnter, cp, node.Name, 0, nil)

	ctx, span := e.startSpan(ctx, cp, node.Name)
	start := e.now()
	update, err := node.Action(ctx, cp.State.Clone())
	elapsed := e.now().Sub(start)
	endSpan(span, len(update.Messages), err)

	e.emitNode(ctx, domain.EventNodeLeave, cp, node.Name, elapsed, err)
	return update, err
}

// resolve picks the successor of a node from its outgoing edge.
func (e *Engine) resolve(sessionID, name string, merged domain.ConversationState) (string, bool, error) {
	edge, ok := e.graph.Edge(name)
	if !ok {
		return "", false, &domain.UnknownPositionError{SessionID: sessionID, Node: name}
	}

	switch edge := edge.(type) {
	case graph.FixedEdge:
		return edge.Target, false, nil
	case graph.ConditionalEdge:
		target := edge.Router(merged)
		if !edge.Allows(target) {
			return "", true, &domain.InvalidRouteError{
				SessionID:  sessionID,
				Node:       name,
				Target:     target,
				Candidates: edge.Targets(),
			}
		}
		return target, true, nil
	default:
		return "", false, fmt.Errorf("unsupported edge type %T", edge)
	}
}
