package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/switchboard/pkg/flowfile"
	"github.com/aretw0/switchboard/pkg/reply"
)

var validateCmd = &cobra.Command{
	Use:   "validate <flow-file>",
	Short: "Check a flow file",
	Long:  `Parses and compiles a flow file, reporting schema and graph errors without calling any reply service.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flow, err := flowfile.Load(args[0])
		if err != nil {
			return err
		}
		g, err := flow.Compile(reply.NewScripted(nil))
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Flow %q is valid: %d nodes, entry %q\n", flow.Name(), g.Len(), g.EntryTarget())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
