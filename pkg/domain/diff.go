package domain

// CheckpointDiff represents the changes between two checkpoints of a session.
// It is designed to be serialized to JSON for partial updates on the client.
type CheckpointDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	LastNode *string `json:"last_node,omitempty"`
	Turn     *int    `json:"turn,omitempty"`

	// Appended contains the messages added since old. The log is append-only.
	Appended []Message `json:"appended,omitempty"`
}

// Diff calculates the difference between old and new.
// If old is nil, it returns a diff representing the entire new checkpoint (initial load).
// It returns nil when nothing changed.
func Diff(old, new *Checkpoint) *CheckpointDiff {
	if new == nil {
		return nil
	}

	diff := &CheckpointDiff{SessionID: new.SessionID}

	if old == nil || old.LastNode != new.LastNode {
		last := new.LastNode
		diff.LastNode = &last
	}
	if old != nil && old.Turn != new.Turn {
		turn := new.Turn
		diff.Turn = &turn
	}

	from := 0
	if old != nil {
		from = len(old.State.Messages)
	}
	if len(new.State.Messages) > from {
		diff.Appended = append([]Message(nil), new.State.Messages[from:]...)
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *CheckpointDiff) IsEmpty() bool {
	return d.LastNode == nil && d.Turn == nil && len(d.Appended) == 0
}

// AssistantReplies returns the appended assistant messages in order.
func (d *CheckpointDiff) AssistantReplies() []Message {
	if d == nil {
		return nil
	}
	var out []Message
	for _, m := range d.Appended {
		if m.Role == RoleAssistant {
			out = append(out, m)
		}
	}
	return out
}
