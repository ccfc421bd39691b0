/*
Package graph provides the fluent builder used to declare Switchboard conversation graphs.

A graph is a set of named nodes, each owning an action, connected by exactly one outgoing
edge per node. Edges are either fixed (always the same successor) or conditional (a router
inspects the merged state and picks one of its declared candidates). The pseudo-node
domain.Entry marks where execution starts and domain.Terminal where it ends.

Compile validates the declarations and returns an immutable *Graph:

	g, err := graph.New().
		AddNode("greeting", greet).
		AddNode("decision", decide).
		SetEntry("greeting").
		AddFixedEdge("greeting", "decision").
		AddRoute("decision", routing.NewKeyword("option3",
			routing.Rule{Match: "opção 1", Target: "option1"},
		)).
		Compile()

Every validation failure satisfies errors.Is(err, graph.ErrInvalidGraph).
*/
package graph
