package graph

import "slices"

// Edge is the outgoing transition of a node.
// It is either a FixedEdge or a ConditionalEdge.
type Edge interface {
	From() string
	Targets() []string
	isEdge()
}

// FixedEdge always moves from Source to Target.
type FixedEdge struct {
	Source string
	Target string
}

func (e FixedEdge) From() string      { return e.Source }
func (e FixedEdge) Targets() []string { return []string{e.Target} }
func (FixedEdge) isEdge()             {}

// ConditionalEdge asks Router for the successor, which must be one of Candidates.
type ConditionalEdge struct {
	Source     string
	Router     Router
	Candidates []string
}

func (e ConditionalEdge) From() string      { return e.Source }
func (e ConditionalEdge) Targets() []string { return slices.Clone(e.Candidates) }
func (ConditionalEdge) isEdge()             {}

// Allows reports whether target is one of the declared candidates.
func (e ConditionalEdge) Allows(target string) bool {
	return slices.Contains(e.Candidates, target)
}
