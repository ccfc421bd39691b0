package runtime_test

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/switchboard/internal/runtime"
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/graph"
	"github.com/aretw0/switchboard/pkg/routing"
	"github.com/aretw0/switchboard/pkg/session"
)

// say returns an action that appends a fixed assistant reply.
func say(node, text string) graph.Action {
	return func(ctx context.Context, s domain.ConversationState) (domain.Update, error) {
		return domain.Reply(domain.AssistantMessage(node, text)), nil
	}
}

// echoChoice replies with the user's first message, so routing can be driven by input.
func echoChoice(node string) graph.Action {
	return func(ctx context.Context, s domain.ConversationState) (domain.Update, error) {
		for _, m := range s.Messages {
			if m.Role == domain.RoleUser {
				return domain.Reply(domain.AssistantMessage(node, "Você escolheu: "+m.Content)), nil
			}
		}
		return domain.Reply(domain.AssistantMessage(node, "nenhuma escolha")), nil
	}
}

// supportGraph mirrors the customer-service flow with deterministic replies.
func supportGraph(decision graph.Action) *graph.Graph {
	g, err := graph.New().
		AddNode("greeting", say("greeting", "Olá! Bem-vindo.")).
		AddNode("info_collection", say("info_collection", "Por favor, informe seus dados.")).
		AddNode("decision", decision).
		AddNode("option1", say("option1", "Você escolheu a opção 1.")).
		AddNode("option2", say("option2", "Você escolheu a opção 2.")).
		AddNode("option3", say("option3", "Vamos para a opção 3.")).
		AddNode("closing", say("closing", "Obrigado pelo contato!")).
		SetEntry("greeting").
		AddFixedEdge("greeting", "info_collection").
		AddFixedEdge("info_collection", "decision").
		AddRoute("decision", routing.NewKeyword("option3",
			routing.Rule{Match: "opção 1", Target: "option1"},
			routing.Rule{Match: "opção 2", Target: "option2"},
		)).
		AddFixedEdge("option1", "closing").
		AddFixedEdge("option2", "closing").
		AddFixedEdge("option3", "closing").
		AddRoute("closing", routing.Always(domain.Terminal)).
		Compile()
	if err != nil {
		panic(err)
	}
	return g
}

func newEngine(g *graph.Graph, opts ...runtime.EngineOption) (*runtime.Engine, *memory.Store) {
	store := memory.NewStore()
	return runtime.NewEngine(g, session.NewManager(store), opts...), store
}

// recorder captures hook events in order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) { r.add("enter:%s", e.Node) },
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) { r.add("leave:%s", e.Node) },
		OnRoute:     func(ctx context.Context, e *domain.RouteEvent) { r.add("route:%s->%s", e.From, e.To) },
	}
}

func (r *recorder) visited() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if name, ok := strings.CutPrefix(e, "enter:"); ok {
			out = append(out, name)
		}
	}
	return out
}

func contents(s domain.ConversationState) []string {
	out := make([]string, len(s.Messages))
	for i, m := range s.Messages {
		out[i] = m.Content
	}
	return out
}
