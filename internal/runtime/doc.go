// Package runtime executes compiled graphs against persisted checkpoints.
package runtime
