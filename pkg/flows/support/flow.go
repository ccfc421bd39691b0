// Package support builds the customer-service conversation: a greeting, information
// collection, a three-way decision and a closing message.
package support

import (
	"context"
	"fmt"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/graph"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/routing"
)

// Node names.
const (
	Greeting       = "greeting"
	InfoCollection = "info_collection"
	Decision       = "decision"
	Option1        = "option1"
	Option2        = "option2"
	Option3        = "option3"
	Closing        = "closing"
)

// Stage is a node that asks the reply service to voice a fixed utterance in a persona.
type Stage struct {
	Name      string
	Persona   string
	Utterance string
}

// Stages lists the stages in registration order.
var Stages = []Stage{
	{Greeting, Friendly, "Olá, como posso ajudar?"},
	{InfoCollection, Professional, "Posso coletar algumas informações?"},
	{Decision, Professional, "Agora precisamos decidir a melhor direção."},
	{Option1, Friendly, "Você escolheu a opção 1. Vamos seguir por esse caminho."},
	{Option2, Friendly, "Você escolheu a opção 2. Vamos seguir por esse caminho."},
	{Option3, Friendly, "Você escolheu a opção 3. Vamos seguir por esse caminho."},
	{Closing, Friendly, "Atendimento finalizado. Tenha um ótimo dia!"},
}

// DecisionRules are the keyword rules of the decision stage, in priority order.
var DecisionRules = []routing.Rule{
	{Match: "opção 1", Target: Option1},
	{Match: "opção 2", Target: Option2},
}

type options struct {
	keyword []routing.KeywordOption
	table   map[string]string
}

// Option configures the flow.
type Option func(*options)

// WithDiacriticFolding lets the decision accept "opcao 1" as well as "opção 1".
func WithDiacriticFolding() Option {
	return func(o *options) {
		o.keyword = append(o.keyword, routing.WithDiacriticFolding())
	}
}

// WithPersonas replaces the persona table.
func WithPersonas(table map[string]string) Option {
	return func(o *options) {
		o.table = table
	}
}

// StageAction returns the action of a stage: render the prompt, call the generator and
// reply with its answer.
func StageAction(gen ports.ReplyGenerator, personas map[string]string, s Stage) graph.Action {
	prompt := PromptWith(personas, s.Persona, s.Utterance)
	return func(ctx context.Context, _ domain.ConversationState) (domain.Update, error) {
		text, err := gen.Generate(ctx, prompt)
		if err != nil {
			return domain.Update{}, fmt.Errorf("generate %s reply: %w", s.Name, err)
		}
		return domain.Reply(domain.AssistantMessage(s.Name, text)), nil
	}
}

// New builds and compiles the support graph around a reply generator.
func New(gen ports.ReplyGenerator, opts ...Option) (*graph.Graph, error) {
	o := &options{table: Personas}
	for _, opt := range opts {
		opt(o)
	}

	b := graph.New()
	for _, s := range Stages {
		b.AddNode(s.Name, StageAction(gen, o.table, s))
	}

	return b.
		SetEntry(Greeting).
		AddFixedEdge(Greeting, InfoCollection).
		AddFixedEdge(InfoCollection, Decision).
		AddRoute(Decision, routing.NewKeywordWith(Option3, DecisionRules, o.keyword...)).
		AddFixedEdge(Option1, Closing).
		AddFixedEdge(Option2, Closing).
		AddFixedEdge(Option3, Closing).
		AddRoute(Closing, routing.Always(domain.Terminal)).
		Compile()
}
