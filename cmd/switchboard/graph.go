package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/switchboard/internal/cli"
	"github.com/aretw0/switchboard/internal/presentation/graph"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the conversation graph",
	Long: `Prints the compiled graph as a Mermaid diagram (default), JSON or YAML.
With --session, the Mermaid output highlights the nodes the session visited.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		sessionID, _ := cmd.Flags().GetString("session")

		st, _, err := cli.LoadStack(cmd.Context(), globals)
		if err != nil {
			return err
		}
		defer st.Close()

		g := st.Engine.Graph()
		out := cmd.OutOrStdout()
		switch format {
		case "mermaid":
			var overlay *graph.GraphOverlay
			if sessionID != "" {
				cp, err := st.Engine.Checkpoint(cmd.Context(), sessionID)
				if err != nil {
					return fmt.Errorf("loading session %q: %w", sessionID, err)
				}
				overlay = graph.OverlayFromCheckpoint(cp)
			}
			fmt.Fprint(out, graph.GenerateMermaid(g, overlay))
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(g.Describe())
		case "yaml":
			enc := yaml.NewEncoder(out)
			defer enc.Close()
			return enc.Encode(g.Describe())
		default:
			return fmt.Errorf("unknown format %q (use mermaid, json or yaml)", format)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("format", "f", "mermaid", "Output format: mermaid, json or yaml")
	graphCmd.Flags().String("session", "", "Highlight the path of this session")
}
