package domain

import "fmt"

// Role identifies the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ParseRole converts a raw string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown message role %q", s)
	}
	return r, nil
}

// Message is a single conversation record.
// Messages are values: once appended to a ConversationState they are never modified.
type Message struct {
	Role    Role   `json:"role" yaml:"role" msgpack:"role" bson:"role"`
	Content string `json:"content" yaml:"content" msgpack:"content" bson:"content"`

	// Node is the stage that produced the message. Empty for caller-supplied input.
	Node string `json:"node,omitempty" yaml:"node,omitempty" msgpack:"node,omitempty" bson:"node,omitempty"`
}

// UserMessage builds a message authored by the user.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds a reply produced by the given node.
func AssistantMessage(node, content string) Message {
	return Message{Role: RoleAssistant, Content: content, Node: node}
}

// SystemMessage builds a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}
