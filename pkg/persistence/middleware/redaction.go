package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

// Mask replaces every redacted match.
const Mask = "***"

type redactionStore struct {
	passthrough
	patterns []*regexp.Regexp
}

// NewRedaction creates a middleware that masks message content matching any of the
// patterns before it is persisted. The in-memory state of the caller is not touched.
func NewRedaction(patternStrings ...string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.CheckpointStore) ports.CheckpointStore {
		return &redactionStore{passthrough: passthrough{next: next}, patterns: patterns}
	}, nil
}

func (m *redactionStore) Save(ctx context.Context, cp *domain.Checkpoint) error {
	if cp == nil {
		return domain.ErrEmptySessionID
	}
	msgs := make([]domain.Message, len(cp.State.Messages))
	for i, msg := range cp.State.Messages {
		msg.Content = m.mask(msg.Content)
		msgs[i] = msg
	}
	return m.next.Save(ctx, withState(cp, domain.ConversationState{Messages: msgs}))
}

func (m *redactionStore) Load(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactionStore) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}
