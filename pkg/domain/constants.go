package domain

// Reserved positions of the execution state machine.
const (
	// Entry is the pseudo-node every run starts from. It owns a single fixed edge.
	Entry = "__start__"

	// Terminal is the absorbing marker that ends a traversal.
	Terminal = "__end__"
)

// DefaultStepLimit bounds a single run when no explicit ceiling is configured.
const DefaultStepLimit = 100
