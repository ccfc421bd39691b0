package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrEmptySessionID is returned when an operation is attempted without a session ID.
var ErrEmptySessionID = errors.New("session id cannot be empty")

// NodeActionError wraps a failure raised by a node action (typically the reply call).
// The checkpoint is not advanced, so a retry re-runs the same node.
type NodeActionError struct {
	SessionID string
	Node      string
	Err       error
}

func (e *NodeActionError) Error() string {
	return fmt.Sprintf("session %s: node %q failed: %v", e.SessionID, e.Node, e.Err)
}

func (e *NodeActionError) Unwrap() error {
	return e.Err
}

// InvalidRouteError is returned when a router picks a target outside its declared candidates.
type InvalidRouteError struct {
	SessionID  string
	Node       string
	Target     string
	Candidates []string
}

func (e *InvalidRouteError) Error() string {
	return fmt.Sprintf("session %s: router of %q returned %q, expected one of [%s]",
		e.SessionID, e.Node, e.Target, strings.Join(e.Candidates, ", "))
}

// StepLimitExceededError is returned when a run exceeds its step ceiling.
type StepLimitExceededError struct {
	SessionID string
	Node      string
	Limit     int
}

func (e *StepLimitExceededError) Error() string {
	return fmt.Sprintf("session %s: step limit of %d exceeded at %q", e.SessionID, e.Limit, e.Node)
}

// UnknownPositionError is returned when a checkpoint points at a node the graph does not have.
// This happens when a session is resumed against a different graph.
type UnknownPositionError struct {
	SessionID string
	Node      string
}

func (e *UnknownPositionError) Error() string {
	return fmt.Sprintf("session %s: checkpoint position %q is not a node of this graph", e.SessionID, e.Node)
}
