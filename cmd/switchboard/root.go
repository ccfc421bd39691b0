package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/switchboard/internal/cli"
)

var globals cli.GlobalOptions

var rootCmd = &cobra.Command{
	Use:   "switchboard",
	Short: "Switchboard runs graph-driven customer-service conversations",
	Long: `Switchboard executes a conversation graph turn by turn, checkpointing every step
so sessions can be resumed from any process sharing the same store.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globals.ConfigFile, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&globals.DotEnv, "env-file", ".env", "Path to a .env file (ignored when missing)")
	rootCmd.PersistentFlags().StringVar(&globals.LogLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&globals.Flow, "flow", "", "Flow file to run instead of the built-in support flow")
}
