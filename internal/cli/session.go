package cli

import (
	"context"
	"io"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/internal/presentation/tui"
)

// RunOptions configure an interactive session.
type RunOptions struct {
	SessionID string
	Input     string
	Headless  bool
}

// RunSession drives a session over in/out until EOF or exit. Replies are rendered as
// markdown when out is a terminal.
func RunSession(ctx context.Context, engine *switchboard.Engine, opts RunOptions, in io.Reader, out io.Writer) error {
	r := switchboard.NewRunner(in, out)
	r.Headless = opts.Headless

	if !opts.Headless && tui.IsTerminal(out) {
		tui.PrintBanner(out, switchboard.Version)
		render, err := tui.NewRenderer(tui.Width(out))
		if err != nil {
			return err
		}
		r.Renderer = render
	}

	return r.Run(ctx, engine, opts.SessionID, opts.Input)
}
