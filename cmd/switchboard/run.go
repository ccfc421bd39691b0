package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aretw0/switchboard/internal/cli"
)

var runOpts cli.RunOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Chat with the flow in the terminal",
	Long: `Starts or resumes a session and reads one user message per line from stdin.
Type "exit" or "quit" to leave; the session stays in the store and can be resumed with --session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		st, _, err := cli.LoadStack(sigCtx, globals)
		if err != nil {
			return err
		}
		defer st.Close()

		opts := runOpts
		if opts.SessionID == "" {
			opts.SessionID = uuid.NewString()
		}
		err = cli.RunSession(sigCtx, st.Engine, opts, os.Stdin, os.Stdout)
		if err != nil && sigCtx.Signal() != nil && sigCtx.Err() == context.Canceled {
			st.Logger.Info("interrupted", "signal", sigCtx.Signal().String(), "session_id", opts.SessionID)
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runOpts.SessionID, "session", "s", "", "Session id to start or resume (default: a new uuid)")
	runCmd.Flags().StringVarP(&runOpts.Input, "input", "i", "", "First user message")
	runCmd.Flags().BoolVar(&runOpts.Headless, "headless", false, "Print bare replies without banner, prompt or node labels")
}
