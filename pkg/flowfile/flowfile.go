// Package flowfile builds conversation graphs from YAML or JSON documents.
//
// A flow declares its nodes (a persona and a prompt voiced by the reply generator,
// or a fixed reply), fixed edges and keyword routes:
//
//	entry: greeting
//	nodes:
//	  - name: greeting
//	    persona: friendly
//	    prompt: Olá, como posso ajudar?
//	  - name: bye
//	    reply: Até logo!
//	edges:
//	  - from: greeting
//	    to: bye
//	  - from: bye
//	    to: END
//	routes:
//	  - from: decision
//	    default: option3
//	    rules:
//	      - match: opção 1
//	        to: option1
//
// END (or __end__) names the terminal marker.
package flowfile

import (
	"context"
	"fmt"
	"maps"
	"os"

	"github.com/aretw0/switchboard/internal/compiler"
	"github.com/aretw0/switchboard/internal/dto"
	"github.com/aretw0/switchboard/internal/validator"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/flows/support"
	"github.com/aretw0/switchboard/pkg/graph"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/routing"
)

// EndAlias is the flow-file spelling of domain.Terminal.
const EndAlias = "END"

// Flow is a parsed and validated flow document.
type Flow struct {
	def *dto.Flow
}

// Name returns the declared flow name.
func (f *Flow) Name() string {
	return f.def.Name
}

// Load reads and parses the flow at path. The format follows the extension.
func Load(path string) (*Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flow: %w", err)
	}
	flow, err := Parse(data, compiler.FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return flow, nil
}

// Parse decodes and validates a flow document.
func Parse(data []byte, format compiler.Format) (*Flow, error) {
	def, err := compiler.NewParser().Parse(data, format)
	if err != nil {
		return nil, err
	}
	if err := validator.Struct(def); err != nil {
		return nil, fmt.Errorf("invalid flow: %w", err)
	}
	return &Flow{def: def}, nil
}

// Compile builds the graph, wiring prompt nodes to gen.
// Structural problems surface as graph build errors.
func (f *Flow) Compile(gen ports.ReplyGenerator) (*graph.Graph, error) {
	personas := maps.Clone(support.Personas)
	maps.Copy(personas, f.def.Personas)

	var keywordOpts []routing.KeywordOption
	if f.def.Options.DiacriticFolding {
		keywordOpts = append(keywordOpts, routing.WithDiacriticFolding())
	}

	b := graph.New()
	for _, n := range f.def.Nodes {
		if n.Reply != "" {
			b.AddNode(n.Name, fixedReply(n.Name, n.Reply))
			continue
		}
		if gen == nil {
			return nil, fmt.Errorf("node %q needs a reply generator", n.Name)
		}
		b.AddNode(n.Name, support.StageAction(gen, personas, support.Stage{
			Name:      n.Name,
			Persona:   n.Persona,
			Utterance: n.Prompt,
		}))
	}

	b.SetEntry(f.def.Entry)
	for _, e := range f.def.Edges {
		b.AddFixedEdge(e.From, target(e.To))
	}
	for _, r := range f.def.Routes {
		rules := make([]routing.Rule, len(r.Rules))
		for i, rule := range r.Rules {
			rules[i] = routing.Rule{Match: rule.Match, Target: target(rule.To)}
		}
		b.AddRoute(r.From, routing.NewKeywordWith(target(r.Default), rules, keywordOpts...))
	}
	return b.Compile()
}

func target(name string) string {
	if name == EndAlias {
		return domain.Terminal
	}
	return name
}

func fixedReply(node, text string) graph.Action {
	return func(context.Context, domain.ConversationState) (domain.Update, error) {
		return domain.Reply(domain.AssistantMessage(node, text)), nil
	}
}
