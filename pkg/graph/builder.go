package graph

import (
	"github.com/aretw0/switchboard/pkg/domain"
)

// Builder records node and edge declarations. Errors are reported by Compile,
// so declarations can be chained freely.
type Builder struct {
	nodes []Node
	edges []Edge
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{}
}

// AddNode registers a node.
func (b *Builder) AddNode(name string, action Action) *Builder {
	b.nodes = append(b.nodes, Node{Name: name, Action: action})
	return b
}

// AddFixedEdge declares that from is always followed by to.
func (b *Builder) AddFixedEdge(from, to string) *Builder {
	b.edges = append(b.edges, FixedEdge{Source: from, Target: to})
	return b
}

// AddConditionalEdge declares that router picks the successor of from among candidates.
func (b *Builder) AddConditionalEdge(from string, router Router, candidates ...string) *Builder {
	b.edges = append(b.edges, ConditionalEdge{
		Source:     from,
		Router:     router,
		Candidates: dedupe(candidates),
	})
	return b
}

// AddRoute is AddConditionalEdge for a router that declares its own candidates.
func (b *Builder) AddRoute(from string, r CandidateRouter) *Builder {
	if r == nil {
		return b.AddConditionalEdge(from, nil)
	}
	return b.AddConditionalEdge(from, r.Route, r.Candidates()...)
}

// SetEntry declares the first node to run.
func (b *Builder) SetEntry(name string) *Builder {
	return b.AddFixedEdge(domain.Entry, name)
}

// Compile validates the declarations and returns the immutable graph.
func (b *Builder) Compile() (*Graph, error) {
	g, err := validate(b.nodes, b.edges)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
