package domain

// ConversationState is the append-only message log of a session.
// It is only ever changed through Merge.
type ConversationState struct {
	Messages []Message `json:"messages" msgpack:"messages" bson:"messages"`
}

// Update is the partial state a node returns.
// It carries zero or more new messages, never a replacement of the history.
type Update struct {
	Messages []Message
}

// NewConversationState creates a state seeded with the given messages.
func NewConversationState(messages ...Message) ConversationState {
	return ConversationState{Messages: append([]Message(nil), messages...)}
}

// Reply is a convenience constructor for the common single-message update.
func Reply(messages ...Message) Update {
	return Update{Messages: messages}
}

// Merge appends the update's messages to current, in order, and returns the result.
// current is never modified; the returned state owns a fresh backing array.
func Merge(current ConversationState, update Update) ConversationState {
	if len(update.Messages) == 0 {
		return current.Clone()
	}
	merged := make([]Message, 0, len(current.Messages)+len(update.Messages))
	merged = append(merged, current.Messages...)
	merged = append(merged, update.Messages...)
	return ConversationState{Messages: merged}
}

// Clone returns a deep copy of the state.
func (s ConversationState) Clone() ConversationState {
	if s.Messages == nil {
		return ConversationState{}
	}
	return ConversationState{Messages: append(make([]Message, 0, len(s.Messages)), s.Messages...)}
}

// Last returns the latest message, if any.
func (s ConversationState) Last() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Len returns the number of messages in the state.
func (s ConversationState) Len() int {
	return len(s.Messages)
}
