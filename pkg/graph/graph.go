package graph

import (
	"slices"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Graph is a validated, immutable conversation graph.
type Graph struct {
	names []string
	nodes map[string]Node
	edges map[string]Edge
	entry string
}

// Names returns the node names in registration order.
func (g *Graph) Names() []string {
	return slices.Clone(g.names)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.names)
}

// Node returns the node registered under name.
func (g *Graph) Node(name string) (Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Edge returns the outgoing edge of a node, or the entry edge for domain.Entry.
func (g *Graph) Edge(name string) (Edge, bool) {
	if name == domain.Entry {
		return FixedEdge{Source: domain.Entry, Target: g.entry}, true
	}
	e, ok := g.edges[name]
	return e, ok
}

// EntryTarget returns the first node executed by a new turn.
func (g *Graph) EntryTarget() string {
	return g.entry
}

// Edges returns the entry edge followed by every node edge in registration order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.names)+1)
	out = append(out, FixedEdge{Source: domain.Entry, Target: g.entry})
	for _, name := range g.names {
		out = append(out, g.edges[name])
	}
	return out
}

// Description is a serialisable view of the graph.
type Description struct {
	Entry string            `json:"entry" yaml:"entry"`
	Nodes []string          `json:"nodes" yaml:"nodes"`
	Edges []EdgeDescription `json:"edges" yaml:"edges"`
}

// EdgeDescription is a serialisable view of an edge.
type EdgeDescription struct {
	From        string   `json:"from" yaml:"from"`
	To          []string `json:"to" yaml:"to"`
	Conditional bool     `json:"conditional" yaml:"conditional"`
}

// Describe returns a description of the graph suitable for JSON output.
func (g *Graph) Describe() Description {
	d := Description{Entry: g.entry, Nodes: g.Names()}
	for _, e := range g.Edges() {
		_, cond := e.(ConditionalEdge)
		d.Edges = append(d.Edges, EdgeDescription{From: e.From(), To: e.Targets(), Conditional: cond})
	}
	return d
}
