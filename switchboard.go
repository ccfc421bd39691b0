package switchboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/switchboard/internal/runtime"
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/graph"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/session"
)

// Engine is the high-level entry point for the Switchboard library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime   *runtime.Engine
	sessions  *session.Manager
	store     ports.CheckpointStore
	locker    ports.DistributedLocker
	lockTTL   time.Duration
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	tracer    trace.Tracer
	stepLimit int
	Name      string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets the checkpoint store (default: in-memory).
func WithStore(store ports.CheckpointStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed locking of sessions across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed session locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithLifecycleHooks registers observability hooks.
// Use domain.ComposeHooks to register several sets.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTracer sets the tracer used for node spans (default: the global otel provider).
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// WithStepLimit bounds the number of steps a single run may take (default 100).
func WithStepLimit(limit int) Option {
	return func(e *Engine) {
		e.stepLimit = limit
	}
}

// WithName labels the engine; the name is added to every log line.
func WithName(name string) Option {
	return func(e *Engine) {
		e.Name = name
	}
}

// New initializes a new Switchboard Engine for a compiled graph.
func New(g *graph.Graph, opts ...Option) (*Engine, error) {
	if g == nil {
		return nil, fmt.Errorf("graph is required")
	}

	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("graph", eng.Name)
	}

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}
	if eng.lockTTL > 0 {
		sessionOpts = append(sessionOpts, session.WithLockTTL(eng.lockTTL))
	}
	eng.sessions = session.NewManager(eng.store, sessionOpts...)

	eng.runtime = runtime.NewEngine(g, eng.sessions,
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithTracer(eng.tracer),
		runtime.WithStepLimit(eng.stepLimit),
	)
	return eng, nil
}

// Run drives the session until it reaches the terminal marker and returns its state.
// On error the returned state is the last one checkpointed.
func (e *Engine) Run(ctx context.Context, sessionID string, input ...domain.Message) (domain.ConversationState, error) {
	cp, err := e.Execute(ctx, sessionID, input...)
	if cp == nil {
		return domain.ConversationState{}, err
	}
	return cp.State, err
}

// Execute is Run returning the full checkpoint.
func (e *Engine) Execute(ctx context.Context, sessionID string, input ...domain.Message) (*domain.Checkpoint, error) {
	return e.runtime.Run(ctx, sessionID, input)
}

// Say runs the session with a single user message.
func (e *Engine) Say(ctx context.Context, sessionID, text string) (domain.ConversationState, error) {
	return e.Run(ctx, sessionID, domain.UserMessage(text))
}

// Checkpoint returns the stored checkpoint of a session.
func (e *Engine) Checkpoint(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	return e.sessions.Load(ctx, sessionID)
}

// Clear removes a session.
func (e *Engine) Clear(ctx context.Context, sessionID string) error {
	return e.sessions.Clear(ctx, sessionID)
}

// Sessions lists the stored session IDs when the store supports it.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// CanList reports whether the configured store can enumerate sessions.
func (e *Engine) CanList() bool {
	_, ok := e.store.(ports.Lister)
	return ok
}

// Graph returns the compiled graph.
func (e *Engine) Graph() *graph.Graph {
	return e.runtime.Graph()
}

// Store returns the checkpoint store.
func (e *Engine) Store() ports.CheckpointStore {
	return e.store
}

// IsNotFound reports whether err means the session does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrSessionNotFound)
}
