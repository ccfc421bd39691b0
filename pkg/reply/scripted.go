package reply

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/switchboard/pkg/ports"
)

var (
	_ ports.ReplyGenerator = (*Scripted)(nil)
	_ ports.ReplyGenerator = Func(nil)
)

// Func adapts a function to ports.ReplyGenerator.
type Func func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Scripted returns canned replies and records every prompt it receives.
// A prompt is answered by the longest key it contains; ties are broken lexically.
// Prompts matching no key are answered by Fallback, which echoes the prompt by default.
type Scripted struct {
	replies  map[string]string
	keys     []string
	Fallback func(prompt string) string

	mu    sync.Mutex
	calls []string
}

// NewScripted creates a scripted generator.
func NewScripted(replies map[string]string) *Scripted {
	s := &Scripted{replies: make(map[string]string, len(replies))}
	for k, v := range replies {
		s.replies[k] = v
		s.keys = append(s.keys, k)
	}
	sort.Slice(s.keys, func(i, j int) bool {
		if len(s.keys[i]) != len(s.keys[j]) {
			return len(s.keys[i]) > len(s.keys[j])
		}
		return s.keys[i] < s.keys[j]
	})
	return s
}

// Generate returns the scripted reply for prompt.
func (s *Scripted) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.calls = append(s.calls, prompt)
	s.mu.Unlock()

	for _, k := range s.keys {
		if strings.Contains(prompt, k) {
			return s.replies[k], nil
		}
	}
	if s.Fallback != nil {
		return s.Fallback(prompt), nil
	}
	return prompt, nil
}

// Calls returns the prompts received so far, in order.
func (s *Scripted) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}
