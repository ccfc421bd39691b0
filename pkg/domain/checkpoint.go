package domain

import "time"

// Checkpoint is the persisted snapshot of a session.
type Checkpoint struct {
	SessionID string            `json:"session_id" msgpack:"session_id" bson:"session_id"`
	State     ConversationState `json:"state" msgpack:"state" bson:"state"`

	// LastNode is the position execution resumes from: a node name, Entry or Terminal.
	LastNode string `json:"last_node" msgpack:"last_node" bson:"last_node"`

	// Step counts the completed steps over the whole session.
	Step int `json:"step" msgpack:"step" bson:"step"`

	// Turn counts the passes from Entry to Terminal started in this session.
	Turn int `json:"turn" msgpack:"turn" bson:"turn"`

	UpdatedAt time.Time `json:"updated_at" msgpack:"updated_at" bson:"updated_at"`
}

// NewCheckpoint creates the initial checkpoint of a session positioned at Entry.
func NewCheckpoint(sessionID string, state ConversationState) *Checkpoint {
	return &Checkpoint{
		SessionID: sessionID,
		State:     state,
		LastNode:  Entry,
		Turn:      1,
	}
}

// Done reports whether the session has reached the terminal marker.
func (c *Checkpoint) Done() bool {
	return c.LastNode == Terminal
}

// Advance returns the checkpoint that follows a completed step.
func (c *Checkpoint) Advance(state ConversationState, next string, now time.Time) *Checkpoint {
	return &Checkpoint{
		SessionID: c.SessionID,
		State:     state,
		LastNode:  next,
		Step:      c.Step + 1,
		Turn:      c.Turn,
		UpdatedAt: now,
	}
}

// NextTurn restarts a finished session at Entry with the new input appended.
func (c *Checkpoint) NextTurn(input []Message) *Checkpoint {
	return &Checkpoint{
		SessionID: c.SessionID,
		State:     Merge(c.State, Update{Messages: input}),
		LastNode:  Entry,
		Step:      c.Step,
		Turn:      c.Turn + 1,
		UpdatedAt: c.UpdatedAt,
	}
}

// Clone returns a deep copy of the checkpoint.
func (c *Checkpoint) Clone() *Checkpoint {
	if c == nil {
		return nil
	}
	cp := *c
	cp.State = c.State.Clone()
	return &cp
}
