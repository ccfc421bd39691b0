package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/switchboard/internal/runtime"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/graph"
	"github.com/aretw0/switchboard/pkg/routing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errReplyUnavailable = errors.New("reply service unavailable")

// flaky fails the first n calls, then behaves like inner.
func flaky(n int, inner graph.Action) graph.Action {
	calls := 0
	return func(ctx context.Context, s domain.ConversationState) (domain.Update, error) {
		calls++
		if calls <= n {
			return domain.Update{}, errReplyUnavailable
		}
		return inner(ctx, s)
	}
}

func TestEngine_NodeErrorAndResume(t *testing.T) {
	engine, store := newEngine(supportGraph(flaky(1, echoChoice("decision"))))
	ctx := context.Background()
	input := []domain.Message{domain.UserMessage("opção 2")}

	cp, err := engine.Run(ctx, "s", input)
	require.Error(t, err)

	var nodeErr *domain.NodeActionError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "decision", nodeErr.Node)
	assert.Equal(t, "s", nodeErr.SessionID)
	assert.ErrorIs(t, err, errReplyUnavailable)

	// The failed step was not checkpointed.
	assert.Equal(t, "decision", cp.LastNode)
	stored, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "decision", stored.LastNode)
	assert.Equal(t, 3, stored.State.Len())

	// Resuming completes the run as if nothing had happened.
	resumed, err := engine.Run(ctx, "s", nil)
	require.NoError(t, err)

	reference, _ := newEngine(supportGraph(echoChoice("decision")))
	want, err := reference.Run(ctx, "s", input)
	require.NoError(t, err)

	assert.Equal(t, contents(want.State), contents(resumed.State))
	assert.Equal(t, want.Step, resumed.Step)
}

func TestEngine_InputIgnoredMidFlight(t *testing.T) {
	engine, _ := newEngine(supportGraph(flaky(1, echoChoice("decision"))))
	ctx := context.Background()

	_, err := engine.Run(ctx, "s", []domain.Message{domain.UserMessage("opção 1")})
	require.Error(t, err)

	cp, err := engine.Run(ctx, "s", []domain.Message{domain.UserMessage("opção 2")})
	require.NoError(t, err)
	assert.NotContains(t, contents(cp.State), "opção 2")
	assert.Contains(t, contents(cp.State), "Você escolheu a opção 1.")
}

func TestEngine_InvalidRoute(t *testing.T) {
	g, err := graph.New().
		AddNode("a", say("a", "hello")).
		SetEntry("a").
		AddConditionalEdge("a", func(domain.ConversationState) string { return "ghost" }, domain.Terminal).
		Compile()
	require.NoError(t, err)

	engine, store := newEngine(g)
	ctx := context.Background()

	_, err = engine.Run(ctx, "s", nil)
	var routeErr *domain.InvalidRouteError
	require.ErrorAs(t, err, &routeErr)
	assert.Equal(t, "a", routeErr.Node)
	assert.Equal(t, "ghost", routeErr.Target)
	assert.Equal(t, []string{domain.Terminal}, routeErr.Candidates)

	stored, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "a", stored.LastNode)
	assert.Equal(t, 0, stored.State.Len(), "the node's reply must not be persisted")
}

func TestEngine_StepLimit(t *testing.T) {
	g, err := graph.New().
		AddNode("loop", say("loop", "again")).
		SetEntry("loop").
		AddConditionalEdge("loop", func(domain.ConversationState) string { return "loop" }, "loop", domain.Terminal).
		Compile()
	require.NoError(t, err)

	engine, store := newEngine(g, runtime.WithStepLimit(10))
	ctx := context.Background()

	cp, err := engine.Run(ctx, "s", nil)
	var limitErr *domain.StepLimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 10, limitErr.Limit)
	assert.Equal(t, "loop", limitErr.Node)
	assert.Equal(t, 10, cp.Step)

	stored, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, 9, stored.State.Len())

	// The limit is per run: a second run gets a fresh budget.
	cp, err = engine.Run(ctx, "s", nil)
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 20, cp.Step)
}

func TestEngine_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var saved int
	hooks := domain.LifecycleHooks{
		OnCheckpoint: func(ctx context.Context, e *domain.CheckpointEvent) {
			saved++
			if e.LastNode == "decision" {
				cancel()
			}
		},
	}
	engine, _ := newEngine(supportGraph(echoChoice("decision")), runtime.WithLifecycleHooks(hooks))

	cp, err := engine.Run(ctx, "s", []domain.Message{domain.UserMessage("opção 1")})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "decision", cp.LastNode)
	assert.Equal(t, 3, saved)

	resumed, err := engine.Run(context.Background(), "s", nil)
	require.NoError(t, err)
	assert.True(t, resumed.Done())
	assert.Equal(t, 6, resumed.State.Len())
}

func TestEngine_UnknownPosition(t *testing.T) {
	engine, store := newEngine(supportGraph(echoChoice("decision")))
	ctx := context.Background()

	cp := domain.NewCheckpoint("s", domain.ConversationState{})
	cp.LastNode = "removed_node"
	require.NoError(t, store.Save(ctx, cp))

	_, err := engine.Run(ctx, "s", nil)
	var posErr *domain.UnknownPositionError
	require.ErrorAs(t, err, &posErr)
	assert.Equal(t, "removed_node", posErr.Node)
}

func TestEngine_ActionCannotMutateStoredState(t *testing.T) {
	g, err := graph.New().
		AddNode("vandal", func(ctx context.Context, s domain.ConversationState) (domain.Update, error) {
			if len(s.Messages) > 0 {
				s.Messages[0].Content = "rewritten"
			}
			return domain.Update{}, nil
		}).
		SetEntry("vandal").
		AddRoute("vandal", routing.Always(domain.Terminal)).
		Compile()
	require.NoError(t, err)

	engine, _ := newEngine(g)
	cp, err := engine.Run(context.Background(), "s", []domain.Message{domain.UserMessage("original")})
	require.NoError(t, err)
	assert.Equal(t, "original", cp.State.Messages[0].Content)
}
