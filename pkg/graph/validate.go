package graph

import (
	"github.com/aretw0/switchboard/pkg/domain"
)

// validate runs the checks in order and stops at the first failure.
func validate(nodes []Node, edges []Edge) (*Graph, error) {
	byName := make(map[string]Node, len(nodes))
	names := make([]string, 0, len(nodes))

	// 1. Node names and actions.
	for _, n := range nodes {
		switch {
		case n.Name == "":
			return nil, &InvalidNodeError{Name: n.Name, Reason: "name is empty"}
		case n.Name == domain.Entry || n.Name == domain.Terminal:
			return nil, &InvalidNodeError{Name: n.Name, Reason: "name is reserved"}
		case n.Action == nil:
			return nil, &InvalidNodeError{Name: n.Name, Reason: "action is nil"}
		}
		if _, exists := byName[n.Name]; exists {
			return nil, &DuplicateNodeError{Name: n.Name}
		}
		byName[n.Name] = n
		names = append(names, n.Name)
	}

	// 2. Edge shape and references.
	for _, e := range edges {
		if ce, ok := e.(ConditionalEdge); ok {
			if ce.Router == nil {
				return nil, &InvalidEdgeError{Source: ce.Source, Reason: "router is nil"}
			}
			if len(ce.Candidates) == 0 {
				return nil, &InvalidEdgeError{Source: ce.Source, Reason: "no candidate targets declared"}
			}
		}
		if _, ok := byName[e.From()]; !ok && e.From() != domain.Entry {
			return nil, &UnresolvedEdgeTargetError{Source: e.From(), Target: e.From()}
		}
		for _, t := range e.Targets() {
			if _, ok := byName[t]; !ok && t != domain.Terminal {
				return nil, &UnresolvedEdgeTargetError{Source: e.From(), Target: t}
			}
		}
	}

	// 3. Exactly one outgoing declaration per node.
	outgoing := make(map[string][]Edge, len(nodes)+1)
	for _, e := range edges {
		outgoing[e.From()] = append(outgoing[e.From()], e)
	}
	for _, name := range names {
		if n := len(outgoing[name]); n != 1 {
			return nil, &ConflictingEdgeError{Node: name, Declared: n}
		}
	}

	// 4. Entry has a single fixed edge.
	entryEdges := outgoing[domain.Entry]
	if len(entryEdges) != 1 {
		return nil, &ConflictingEdgeError{Node: domain.Entry, Declared: len(entryEdges)}
	}
	entry, ok := entryEdges[0].(FixedEdge)
	if !ok {
		return nil, &ConflictingEdgeError{Node: domain.Entry, Declared: 1, Conditional: true}
	}

	g := &Graph{
		names: names,
		nodes: byName,
		edges: make(map[string]Edge, len(names)),
		entry: entry.Target,
	}
	for _, name := range names {
		g.edges[name] = outgoing[name][0]
	}

	// 5 & 6. Reachability.
	reached := g.reachable()
	for _, name := range names {
		if !reached[name] {
			return nil, &UnreachableNodeError{Name: name}
		}
	}
	if !reached[domain.Terminal] {
		return nil, &NoTerminalPathError{}
	}

	return g, nil
}

// reachable walks the edges breadth-first from the entry.
func (g *Graph) reachable() map[string]bool {
	visited := map[string]bool{}
	queue := []string{g.entry}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		e, ok := g.edges[current]
		if !ok {
			continue
		}
		for _, t := range e.Targets() {
			if !visited[t] {
				queue = append(queue, t)
			}
		}
	}
	return visited
}
