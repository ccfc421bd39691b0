package switchboard

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Runner drives an interactive conversation over the provided IO.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a new Runner on the given IO.
func NewRunner(in io.Reader, out io.Writer) *Runner {
	return &Runner{Input: in, Output: out}
}

// Run starts or resumes the session with first as input, then reads one line per turn
// until EOF, "exit" or "quit". Each turn prints the assistant replies it produced.
func (r *Runner) Run(ctx context.Context, engine *Engine, sessionID, first string) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lineReader := bufio.NewReader(r.Input)

	if !r.Headless {
		fmt.Fprintf(r.Output, "--- Switchboard (session %s) ---\n", sessionID)
	}

	input := first
	for {
		if err := r.turn(ctx, engine, sessionID, input); err != nil {
			return err
		}

		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		text, err := lineReader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("input error: %w", err)
		}
		input = strings.TrimSpace(text)
		if input == "exit" || input == "quit" {
			if !r.Headless {
				fmt.Fprintln(r.Output, "Bye!")
			}
			return nil
		}
		if err == io.EOF {
			// a last line without a newline is still a turn
			if input == "" {
				return nil
			}
			return r.turn(ctx, engine, sessionID, input)
		}
	}
}

func (r *Runner) turn(ctx context.Context, engine *Engine, sessionID, input string) error {
	before, err := engine.Checkpoint(ctx, sessionID)
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("failed to load session: %w", err)
	}

	var msgs []domain.Message
	if input != "" {
		clean, err := domain.SanitizeInput(input)
		if err != nil {
			return err
		}
		msgs = append(msgs, domain.UserMessage(clean))
	}
	after, runErr := engine.Execute(ctx, sessionID, msgs...)

	// Print whatever was checkpointed, even when the run stopped early.
	for _, m := range domain.Diff(before, after).AssistantReplies() {
		r.print(m)
	}
	if runErr != nil {
		return fmt.Errorf("run error: %w", runErr)
	}
	return nil
}

func (r *Runner) print(m domain.Message) {
	out := m.Content
	if r.Renderer != nil {
		if rendered, err := r.Renderer(out); err == nil {
			out = rendered
		}
	}
	if r.Headless {
		fmt.Fprintln(r.Output, strings.TrimSpace(out))
		return
	}
	fmt.Fprintf(r.Output, "[%s] %s\n", m.Node, strings.TrimSpace(out))
}
