package ports

import "context"

// ReplyGenerator produces the text of an assistant reply for a prompt.
// Implementations may block on the network and must honor ctx.
type ReplyGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
