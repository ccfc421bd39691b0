package graph

import (
	"errors"
	"fmt"
)

// ErrInvalidGraph is matched by every error returned from Compile.
var ErrInvalidGraph = errors.New("invalid graph")

type invalidGraph struct{}

func (invalidGraph) Is(target error) bool { return target == ErrInvalidGraph }

// DuplicateNodeError is returned when two nodes share a name.
type DuplicateNodeError struct {
	invalidGraph
	Name string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("node %q registered more than once", e.Name)
}

// InvalidNodeError is returned for reserved or empty names and nil actions.
type InvalidNodeError struct {
	invalidGraph
	Name   string
	Reason string
}

func (e *InvalidNodeError) Error() string {
	return fmt.Sprintf("invalid node %q: %s", e.Name, e.Reason)
}

// InvalidEdgeError is returned for malformed edge declarations.
type InvalidEdgeError struct {
	invalidGraph
	Source string
	Reason string
}

func (e *InvalidEdgeError) Error() string {
	return fmt.Sprintf("invalid edge from %q: %s", e.Source, e.Reason)
}

// UnresolvedEdgeTargetError is returned when an edge references a name that is not a node.
type UnresolvedEdgeTargetError struct {
	invalidGraph
	Source string
	Target string
}

func (e *UnresolvedEdgeTargetError) Error() string {
	return fmt.Sprintf("edge from %q references unknown node %q", e.Source, e.Target)
}

// ConflictingEdgeError is returned when a node does not have exactly one outgoing edge.
// Declared is the number of declarations found (0 when missing).
type ConflictingEdgeError struct {
	invalidGraph
	Node        string
	Declared    int
	Conditional bool
}

func (e *ConflictingEdgeError) Error() string {
	switch {
	case e.Declared == 0:
		return fmt.Sprintf("node %q has no outgoing edge", e.Node)
	case e.Conditional:
		return fmt.Sprintf("node %q must have a fixed outgoing edge, got a conditional one", e.Node)
	default:
		return fmt.Sprintf("node %q has %d outgoing edges, expected exactly one", e.Node, e.Declared)
	}
}

// UnreachableNodeError is returned when a node cannot be reached from the entry.
type UnreachableNodeError struct {
	invalidGraph
	Name string
}

func (e *UnreachableNodeError) Error() string {
	return fmt.Sprintf("node %q is unreachable from the entry", e.Name)
}

// NoTerminalPathError is returned when the terminal marker cannot be reached from the entry.
type NoTerminalPathError struct {
	invalidGraph
}

func (e *NoTerminalPathError) Error() string {
	return "no path from the entry reaches the terminal"
}
